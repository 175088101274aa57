package app

import (
	"context"
	"fmt"
	"strings"

	"studybuddy/internal/model"
)

// RetrievalService answers "which stored chunks are relevant to this query"
// by embedding the query and delegating ranking to the document store.
type RetrievalService struct {
	store    DocumentStore
	embedder TextEmbedder
}

func NewRetrievalService(store DocumentStore, embedder TextEmbedder) *RetrievalService {
	return &RetrievalService{store: store, embedder: embedder}
}

// Retrieve returns at most count matches scoring at least threshold, ordered
// by descending similarity. An empty result is a valid outcome; store
// failures propagate so callers can decide how to degrade.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, threshold float64, count int, sessionID uint) ([]model.RetrievedMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}
	if threshold < 0 || threshold > 1 || count <= 0 {
		return nil, ErrInvalidInput
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	matches, err := s.store.SimilaritySearch(ctx, embedding, threshold, count, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	return matches, nil
}
