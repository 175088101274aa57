package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/internal/model"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}

func TestTopMatchesOrdersAndLimits(t *testing.T) {
	matches := []model.RetrievedMatch{
		{Content: "low", Similarity: 0.31},
		{Content: "high", Similarity: 0.92},
		{Content: "mid", Similarity: 0.55},
	}

	top := topMatches(matches, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].Content)
	assert.Equal(t, "mid", top[1].Content)
}

func chunkWithEmbedding(content, sourceFile string, vec []float32) model.DocumentChunk {
	chunk := model.DocumentChunk{Content: content, SourceFile: sourceFile}
	chunk.SetEmbedding(vec)
	return chunk
}

func TestRankChunksKeepsScoreAtThreshold(t *testing.T) {
	chunks := []model.DocumentChunk{
		chunkWithEmbedding("aligned", "a.pdf", []float32{1, 0}),
		chunkWithEmbedding("diagonal", "b.pdf", []float32{1, 1}),
	}

	// cosine({1,0}, {1,0}) is exactly 1.0; a threshold of 1.0 must keep it.
	matches := rankChunks(chunks, []float32{1, 0}, 1.0, 5)
	require.Len(t, matches, 1)
	assert.Equal(t, "aligned", matches[0].Content)
	assert.Equal(t, "a.pdf", matches[0].SourceFile)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
}

func TestRankChunksDropsBelowThreshold(t *testing.T) {
	chunks := []model.DocumentChunk{
		chunkWithEmbedding("orthogonal", "a.pdf", []float32{0, 1}),
		chunkWithEmbedding("opposed", "a.pdf", []float32{-1, 0}),
	}

	// Orthogonal scores exactly 0.0 and stays at threshold 0; opposed scores
	// -1.0 and is dropped.
	matches := rankChunks(chunks, []float32{1, 0}, 0, 5)
	require.Len(t, matches, 1)
	assert.Equal(t, "orthogonal", matches[0].Content)
}

func TestRankChunksReturnsIngestedChunkForItsOwnEmbedding(t *testing.T) {
	vec := []float32{0.3, 0.5, 0.8}
	chunks := []model.DocumentChunk{
		chunkWithEmbedding("the ingested passage", "notes.pdf", vec),
		chunkWithEmbedding("unrelated", "notes.pdf", []float32{-0.8, 0.1, -0.3}),
	}

	matches := rankChunks(chunks, vec, 0.99, 5)
	require.Len(t, matches, 1)
	assert.Equal(t, "the ingested passage", matches[0].Content)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestRankChunksOrdersAndLimits(t *testing.T) {
	chunks := []model.DocumentChunk{
		chunkWithEmbedding("mid", "a.pdf", []float32{1, 1}),
		chunkWithEmbedding("best", "a.pdf", []float32{1, 0}),
		chunkWithEmbedding("worst", "a.pdf", []float32{1, 4}),
	}

	matches := rankChunks(chunks, []float32{1, 0}, 0.1, 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "best", matches[0].Content)
	assert.Equal(t, "mid", matches[1].Content)
}

func TestTopMatchesStableForTies(t *testing.T) {
	matches := []model.RetrievedMatch{
		{Content: "first", Similarity: 0.5},
		{Content: "second", Similarity: 0.5},
	}

	top := topMatches(matches, 5)
	require.Len(t, top, 2)
	assert.Equal(t, "first", top[0].Content)
	assert.Equal(t, "second", top[1].Content)
}
