package model

import (
	"encoding/json"
	"time"
)

// DocumentChunk stores one slice of extracted document text together with its
// embedding. Embedding is stored as a JSON array of float32 for portability.
// Chunks are immutable after creation; they disappear only when their session
// or source file is deleted.
type DocumentChunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  uint      `gorm:"index" json:"session_id"` // 0 = not scoped to a session
	SourceFile string    `gorm:"size:256;not null;index" json:"source_file"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  string    `gorm:"type:text" json:"-"` // JSON array of float32
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *DocumentChunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *DocumentChunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}

// RetrievedMatch is one similarity-search hit. It is built per query and
// never persisted.
type RetrievedMatch struct {
	Content    string  `json:"content"`
	SourceFile string  `json:"source_file"`
	Similarity float64 `json:"similarity"`
}
