package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studybuddy/internal/ai"
	"studybuddy/internal/model"
)

// Per-operation retrieval settings. Ask wants few, clearly relevant chunks;
// flashcard generation wants a broad low-threshold sample across documents.
const (
	askThreshold  = 0.3
	askMatchCount = 5

	askTemperature = 0.3

	sourcePreviewChars = 100
)

const askSystemPrompt = `You are a helpful study assistant. You MUST follow these rules strictly:

1. ONLY answer questions using the information provided in the context below
2. Answer naturally and conversationally - don't say "According to Source X"
3. If the answer is not in the provided context, say "I don't have information about that in your uploaded documents"
4. Do NOT use your general knowledge - ONLY use the provided context
5. Be direct and helpful - answer as if you're explaining content from the student's own notes

Remember: Your job is to help students understand THEIR materials, not to provide general knowledge.`

const summarySystemPrompt = "Summarize the following text efficiently."

const noInformationReply = "I don't have any information about that in your uploaded documents. Please upload relevant study materials first."

// Completer is the language-model collaborator, single-shot and non-streaming.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (string, error)
}

// ChatLogPublisher hands chat turns to an async persistence pipeline.
type ChatLogPublisher interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
}

// HistoryCache caches per-session chat transcripts.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

// ChatLogReader reads back persisted chat transcripts.
type ChatLogReader interface {
	ListBySessionID(ctx context.Context, sessionID uint, limit int) ([]model.ChatMessage, error)
}

// StudyService turns retrieved chunks into language-model requests that are
// contractually restricted to the supplied evidence, and shapes the raw
// replies into API responses.
type StudyService struct {
	retrieval    *RetrievalService
	completer    Completer
	publisher    ChatLogPublisher
	historyCache HistoryCache
	chatLog      ChatLogReader
	chatModel    string
	summaryModel string
}

func NewStudyService(
	retrieval *RetrievalService,
	completer Completer,
	publisher ChatLogPublisher,
	historyCache HistoryCache,
	chatLog ChatLogReader,
	chatModel string,
	summaryModel string,
) *StudyService {
	return &StudyService{
		retrieval:    retrieval,
		completer:    completer,
		publisher:    publisher,
		historyCache: historyCache,
		chatLog:      chatLog,
		chatModel:    chatModel,
		summaryModel: summaryModel,
	}
}

type AskInput struct {
	Question  string
	SessionID uint // 0 = search across all sessions
}

// Source describes one piece of evidence handed to the model.
type Source struct {
	SourceNumber int     `json:"source_number"`
	Filename     string  `json:"filename"`
	Similarity   float64 `json:"similarity"`
	Preview      string  `json:"preview"`
}

type AskResult struct {
	Reply       string   `json:"reply"`
	Sources     []Source `json:"sources"`
	ContextUsed bool     `json:"context_used"`
	NumSources  int      `json:"num_sources"`
}

// Ask answers a question grounded in the student's uploaded documents. With
// no relevant chunks it short-circuits to a canned reply and never calls the
// completion service.
func (s *StudyService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	matches, err := s.retrieval.Retrieve(ctx, question, askThreshold, askMatchCount, input.SessionID)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		result := &AskResult{
			Reply:       noInformationReply,
			Sources:     []Source{},
			ContextUsed: false,
		}
		s.logChatTurn(ctx, input.SessionID, question, result.Reply)
		return result, nil
	}

	contextBlock, sources := buildContext(matches)
	userPrompt := fmt.Sprintf("Context from uploaded documents:\n\n%s\n\nStudent's Question: %s", contextBlock, question)

	reply, err := s.completer.Complete(ctx, ai.CompletionRequest{
		Model: s.chatModel,
		Messages: []ai.ChatMessage{
			{Role: "system", Content: askSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: askTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	reply = strings.TrimSpace(reply)

	s.logChatTurn(ctx, input.SessionID, question, reply)

	return &AskResult{
		Reply:       reply,
		Sources:     sources,
		ContextUsed: true,
		NumSources:  len(sources),
	}, nil
}

// buildContext labels each match as "[Source i]" in input order and produces
// the parallel source descriptors shown to the student.
func buildContext(matches []model.RetrievedMatch) (string, []Source) {
	parts := make([]string, 0, len(matches))
	sources := make([]Source, 0, len(matches))

	for i, match := range matches {
		parts = append(parts, fmt.Sprintf("[Source %d]: %s", i+1, match.Content))
		sources = append(sources, Source{
			SourceNumber: i + 1,
			Filename:     match.SourceFile,
			Similarity:   match.Similarity,
			Preview:      preview(match.Content, sourcePreviewChars),
		})
	}
	return strings.Join(parts, "\n\n"), sources
}

func preview(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

type SummaryResult struct {
	Summary string `json:"summary"`
}

// Summarize condenses arbitrary caller-supplied text. Unlike Ask and
// flashcard generation it is not grounded in stored documents; the text comes
// straight from the request.
func (s *StudyService) Summarize(ctx context.Context, text string) (*SummaryResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}

	summary, err := s.completer.Complete(ctx, ai.CompletionRequest{
		Model: s.summaryModel,
		Messages: []ai.ChatMessage{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	return &SummaryResult{Summary: strings.TrimSpace(summary)}, nil
}

// History returns the chat transcript for a session, served from cache when
// it is fresh.
func (s *StudyService) History(ctx context.Context, sessionID uint, limit int) ([]model.ChatMessage, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.chatLog.ListBySessionID(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

// logChatTurn enqueues the question/answer pair for async persistence. The
// transcript is a convenience, so enqueue failures never fail the request.
func (s *StudyService) logChatTurn(ctx context.Context, sessionID uint, question, reply string) {
	if s.publisher == nil {
		return
	}
	if s.historyCache != nil && sessionID != 0 {
		_ = s.historyCache.MarkDirty(ctx, sessionID)
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}
	now := time.Now()
	_ = s.publisher.Publish(ctx, model.ChatMessage{
		SessionID: sessionID,
		Role:      "user",
		Content:   question,
		CreatedAt: now,
	})
	_ = s.publisher.Publish(ctx, model.ChatMessage{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   reply,
		CreatedAt: now,
	})
}

func trimMessages(messages []model.ChatMessage, limit int) []model.ChatMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
