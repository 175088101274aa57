package app

import (
	"context"

	"studybuddy/internal/ai"
	"studybuddy/internal/model"
)

type fakeStore struct {
	matches  []model.RetrievedMatch
	err      error
	inserted []model.DocumentChunk

	gotEmbedding []float32
	gotThreshold float64
	gotCount     int
	gotSessionID uint
}

func (f *fakeStore) InsertChunks(_ context.Context, chunks []model.DocumentChunk) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeStore) SimilaritySearch(_ context.Context, embedding []float32, threshold float64, count int, sessionID uint) ([]model.RetrievedMatch, error) {
	f.gotEmbedding = embedding
	f.gotThreshold = threshold
	f.gotCount = count
	f.gotSessionID = sessionID
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error

	embedCalls []string
	batchCalls [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.embedCalls = append(f.embedCalls, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.batchCalls = append(f.batchCalls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

type fakeCompleter struct {
	reply string
	err   error

	requests []ai.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakePublisher struct {
	published []model.ChatMessage
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, msg model.ChatMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}
