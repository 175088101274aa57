package model

import "time"

// Session groups uploaded documents and chat history for one study topic.
type Session struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `gorm:"size:512" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SessionStats is a session row joined with its document counters.
type SessionStats struct {
	Session
	DocumentCount int `json:"document_count"`
	ChunkCount    int `json:"chunk_count"`
}
