package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/internal/model"
)

func TestRetrievePassesParametersThrough(t *testing.T) {
	store := &fakeStore{matches: []model.RetrievedMatch{
		{Content: "mitosis", SourceFile: "bio.pdf", Similarity: 0.8},
	}}
	embedder := &fakeEmbedder{vector: []float32{0.5, 0.5}}
	svc := NewRetrievalService(store, embedder)

	matches, err := svc.Retrieve(context.Background(), "what is mitosis", 0.3, 5, 42)
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.5}, store.gotEmbedding)
	assert.Equal(t, 0.3, store.gotThreshold)
	assert.Equal(t, 5, store.gotCount)
	assert.Equal(t, uint(42), store.gotSessionID)
	require.Len(t, matches, 1)
	assert.Equal(t, "mitosis", matches[0].Content)
}

func TestRetrieveEmptyResultIsNotAnError(t *testing.T) {
	svc := NewRetrievalService(&fakeStore{}, &fakeEmbedder{vector: []float32{1}})

	matches, err := svc.Retrieve(context.Background(), "unrelated question", 0.3, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieveStoreFailurePropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := NewRetrievalService(store, &fakeEmbedder{vector: []float32{1}})

	_, err := svc.Retrieve(context.Background(), "question", 0.3, 5, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestRetrieveEmbeddingFailurePropagates(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("dimension mismatch")}
	svc := NewRetrievalService(&fakeStore{}, embedder)

	_, err := svc.Retrieve(context.Background(), "question", 0.3, 5, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbedding)
}

func TestRetrieveValidatesInput(t *testing.T) {
	svc := NewRetrievalService(&fakeStore{}, &fakeEmbedder{vector: []float32{1}})

	_, err := svc.Retrieve(context.Background(), "   ", 0.3, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Retrieve(context.Background(), "q", 1.5, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Retrieve(context.Background(), "q", 0.3, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
