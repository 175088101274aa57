package repository

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	"studybuddy/internal/model"
)

// ChunkRepository persists document chunks and answers similarity queries
// over them. Ranking happens in-process over the candidate set; callers treat
// the result order as authoritative.
type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&chunks).Error; err != nil {
		return fmt.Errorf("insert document chunks failed: %w", err)
	}
	return nil
}

// SimilaritySearch returns at most count chunks whose cosine similarity to
// embedding is at least threshold, ordered by descending similarity. A zero
// sessionID searches across all sessions.
func (r *ChunkRepository) SimilaritySearch(ctx context.Context, embedding []float32, threshold float64, count int, sessionID uint) ([]model.RetrievedMatch, error) {
	query := r.db.WithContext(ctx).Model(&model.DocumentChunk{})
	if sessionID != 0 {
		query = query.Where("session_id = ?", sessionID)
	}

	var chunks []model.DocumentChunk
	if err := query.Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("load chunks for similarity search failed: %w", err)
	}

	return rankChunks(chunks, embedding, threshold, count), nil
}

// rankChunks scores candidates against embedding, keeps those at or above
// threshold, and returns the top count ordered by descending similarity.
func rankChunks(chunks []model.DocumentChunk, embedding []float32, threshold float64, count int) []model.RetrievedMatch {
	matches := make([]model.RetrievedMatch, 0, len(chunks))
	for i := range chunks {
		score := cosineSimilarity(embedding, chunks[i].EmbeddingVector())
		if score < threshold {
			continue
		}
		matches = append(matches, model.RetrievedMatch{
			Content:    chunks[i].Content,
			SourceFile: chunks[i].SourceFile,
			Similarity: score,
		})
	}
	return topMatches(matches, count)
}

func (r *ChunkRepository) DeleteBySessionID(ctx context.Context, sessionID uint) error {
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.DocumentChunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by session failed: %w", err)
	}
	return nil
}

// SourceFileInfo lists one ingested file and its chunk count.
type SourceFileInfo struct {
	SourceFile string `json:"source_file"`
	ChunkCount int    `json:"chunk_count"`
}

// ListSourceFiles returns the files ingested into a session.
func (r *ChunkRepository) ListSourceFiles(ctx context.Context, sessionID uint) ([]SourceFileInfo, error) {
	var files []SourceFileInfo
	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Select("source_file, COUNT(*) AS chunk_count").
		Where("session_id = ?", sessionID).
		Group("source_file").
		Order("source_file ASC").
		Scan(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list source files failed: %w", err)
	}
	return files, nil
}

type sessionCounters struct {
	SessionID     uint
	DocumentCount int
	ChunkCount    int
}

// CountBySession returns per-session document and chunk counters.
func (r *ChunkRepository) CountBySession(ctx context.Context) (map[uint]model.SessionStats, error) {
	var rows []sessionCounters
	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Select("session_id, COUNT(DISTINCT source_file) AS document_count, COUNT(*) AS chunk_count").
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count chunks by session failed: %w", err)
	}

	stats := make(map[uint]model.SessionStats, len(rows))
	for _, row := range rows {
		stats[row.SessionID] = model.SessionStats{
			DocumentCount: row.DocumentCount,
			ChunkCount:    row.ChunkCount,
		}
	}
	return stats, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func topMatches(matches []model.RetrievedMatch, count int) []model.RetrievedMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if count > 0 && len(matches) > count {
		matches = matches[:count]
	}
	return matches
}
