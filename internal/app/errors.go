package app

import "errors"

// Operation errors. All of them abort the enclosing request and surface to
// the HTTP boundary; none are retried here. Malformed flashcard output is
// deliberately not an error, see FlashcardsResult.Parsed.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")

	// ErrExtraction marks an unreadable or corrupt uploaded document.
	ErrExtraction = errors.New("document text extraction failed")

	// ErrEmbedding marks a failed embedding call or a dimension mismatch.
	ErrEmbedding = errors.New("embedding generation failed")

	// ErrRetrieval marks a failed similarity search. A search that finds
	// nothing is a valid empty result, never this error.
	ErrRetrieval = errors.New("similarity search failed")

	// ErrCompletion marks a failed language-model call.
	ErrCompletion = errors.New("completion request failed")
)
