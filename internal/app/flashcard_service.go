package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"studybuddy/internal/ai"
)

// Flashcard generation samples broadly across the stored documents, so it
// runs with a lower threshold and a larger match count than Ask.
const (
	flashcardThreshold    = 0.2
	flashcardMatchCount   = 10
	flashcardContentLimit = 4000
)

// flashcardProbe is embedded in place of a user question to pull a
// representative sample of the stored material.
const flashcardProbe = "key concepts, definitions, and important facts from the study material"

const flashcardSystemPrompt = `You are a flashcard generator for students. You MUST follow these rules strictly:

1. ONLY use the provided study content - do NOT add outside knowledge
2. Generate between 5 and 10 question/answer pairs
3. Respond with ONLY a JSON array of objects, each with exactly two keys: "question" and "answer"
4. Do not wrap the JSON in markdown, do not add commentary before or after it`

const noDocumentsMessage = "No study materials found. Please upload documents first."

type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlashcardsResult is a typed best-effort outcome: Parsed reports whether the
// cards came from the model or are the local placeholder fallback.
type FlashcardsResult struct {
	Flashcards []Flashcard `json:"flashcards"`
	Count      int         `json:"count"`
	Parsed     bool        `json:"parsed"`
	Message    string      `json:"message,omitempty"`
}

var placeholderFlashcard = Flashcard{
	Question: "Flashcard generation hit a snag. What should you do?",
	Answer:   "The model returned flashcards in an unexpected format. Please try generating them again.",
}

// GenerateFlashcards builds question/answer cards from a broad sample of the
// stored documents. A malformed model reply is recovered locally with a
// placeholder card rather than failing the request; availability wins over
// correctness here.
func (s *StudyService) GenerateFlashcards(ctx context.Context, sessionID uint) (*FlashcardsResult, error) {
	matches, err := s.retrieval.Retrieve(ctx, flashcardProbe, flashcardThreshold, flashcardMatchCount, sessionID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &FlashcardsResult{
			Flashcards: []Flashcard{},
			Message:    noDocumentsMessage,
		}, nil
	}

	contents := make([]string, 0, len(matches))
	for _, m := range matches {
		contents = append(contents, m.Content)
	}
	combined := strings.Join(contents, "\n\n")
	if runes := []rune(combined); len(runes) > flashcardContentLimit {
		combined = string(runes[:flashcardContentLimit])
	}

	raw, err := s.completer.Complete(ctx, ai.CompletionRequest{
		Model: s.chatModel,
		Messages: []ai.ChatMessage{
			{Role: "system", Content: flashcardSystemPrompt},
			{Role: "user", Content: "Study content:\n\n" + combined},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletion, err)
	}

	cards, ok := parseFlashcards(raw)
	if !ok {
		return &FlashcardsResult{
			Flashcards: []Flashcard{placeholderFlashcard},
			Count:      1,
			Parsed:     false,
			Message:    "flashcard parsing failed",
		}, nil
	}

	return &FlashcardsResult{
		Flashcards: cards,
		Count:      len(cards),
		Parsed:     true,
	}, nil
}

// parseFlashcards decodes the model reply, tolerating markdown code fences
// and prose around the JSON array.
func parseFlashcards(raw string) ([]Flashcard, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}

	var cards []Flashcard
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &cards); err != nil {
		return nil, false
	}
	if len(cards) == 0 {
		return nil, false
	}
	for _, card := range cards {
		if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
			return nil, false
		}
	}
	return cards, true
}
