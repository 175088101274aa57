package app

import (
	"context"
	"fmt"
	"strings"

	"studybuddy/internal/model"
	"studybuddy/internal/pkg/pdfextract"
	"studybuddy/internal/pkg/textsplit"
)

const embeddingBatchSize = 10 // most providers cap batch input size

// DocumentStore is the persistence collaborator for chunks. It owns both
// insertion and similarity ranking; services never re-sort its results.
type DocumentStore interface {
	InsertChunks(ctx context.Context, chunks []model.DocumentChunk) error
	SimilaritySearch(ctx context.Context, embedding []float32, threshold float64, count int, sessionID uint) ([]model.RetrievedMatch, error)
}

// TextEmbedder converts text into fixed-dimension vectors.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestService runs the ingestion path: extract, chunk, embed, store.
type IngestService struct {
	store    DocumentStore
	embedder TextEmbedder
	extract  func(data []byte) (string, error)
}

func NewIngestService(store DocumentStore, embedder TextEmbedder) *IngestService {
	return &IngestService{
		store:    store,
		embedder: embedder,
		extract:  pdfextract.ExtractText,
	}
}

type IngestInput struct {
	FileName  string
	Data      []byte
	SessionID uint // 0 = not scoped to a session
}

type IngestResult struct {
	FileName        string `json:"filename"`
	ChunksProcessed int    `json:"chunks_processed"`
}

// IngestPDF extracts text from the uploaded PDF and stores embedded chunks.
// A well-formed document with no extractable text succeeds with zero chunks;
// extraction and embedding failures abort the whole operation, so a document
// is either fully ingested or not at all.
func (s *IngestService) IngestPDF(ctx context.Context, input IngestInput) (*IngestResult, error) {
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" || len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}

	text, err := s.extract(input.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	chunks := textsplit.Chunk(text, textsplit.DefaultChunkSize)
	if len(chunks) == 0 {
		return &IngestResult{FileName: fileName, ChunksProcessed: 0}, nil
	}

	var embeddings [][]float32
	for i := 0; i < len(chunks); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := s.embedder.EmbedBatch(ctx, chunks[i:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", ErrEmbedding, len(embeddings), len(chunks))
	}

	records := make([]model.DocumentChunk, len(chunks))
	for i := range chunks {
		records[i] = model.DocumentChunk{
			SessionID:  input.SessionID,
			SourceFile: fileName,
			Content:    chunks[i],
		}
		records[i].SetEmbedding(embeddings[i])
	}
	if err := s.store.InsertChunks(ctx, records); err != nil {
		return nil, fmt.Errorf("store chunks failed: %w", err)
	}

	return &IngestResult{FileName: fileName, ChunksProcessed: len(records)}, nil
}
