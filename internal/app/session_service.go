package app

import (
	"context"
	"strings"

	"studybuddy/internal/model"
	"studybuddy/internal/repository"
)

// SessionService owns the study-session CRUD around the retrieval core.
type SessionService struct {
	sessionRepo  *repository.SessionRepository
	chunkRepo    *repository.ChunkRepository
	messageRepo  *repository.ChatMessageRepository
	historyCache HistoryCache
}

func NewSessionService(
	sessionRepo *repository.SessionRepository,
	chunkRepo *repository.ChunkRepository,
	messageRepo *repository.ChatMessageRepository,
	historyCache HistoryCache,
) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		chunkRepo:    chunkRepo,
		messageRepo:  messageRepo,
		historyCache: historyCache,
	}
}

type CreateSessionInput struct {
	Name        string
	Description string
}

func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*model.Session, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	session := &model.Session{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns all sessions with their document counters.
func (s *SessionService) ListSessions(ctx context.Context) ([]model.SessionStats, error) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	counters, err := s.chunkRepo.CountBySession(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]model.SessionStats, len(sessions))
	for i, session := range sessions {
		stats[i] = model.SessionStats{
			Session:       session,
			DocumentCount: counters[session.ID].DocumentCount,
			ChunkCount:    counters[session.ID].ChunkCount,
		}
	}
	return stats, nil
}

// SessionDetail is a session together with the files ingested into it.
type SessionDetail struct {
	model.Session
	Documents []repository.SourceFileInfo `json:"documents"`
}

func (s *SessionService) GetSession(ctx context.Context, sessionID uint) (*SessionDetail, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	documents, err := s.chunkRepo.ListSourceFiles(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: *session, Documents: documents}, nil
}

type UpdateSessionInput struct {
	Name        *string
	Description *string
}

func (s *SessionService) UpdateSession(ctx context.Context, sessionID uint, input UpdateSessionInput) (*model.Session, error) {
	if sessionID == 0 || (input.Name == nil && input.Description == nil) {
		return nil, ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		session.Name = name
	}
	if input.Description != nil {
		session.Description = strings.TrimSpace(*input.Description)
	}
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes the session together with its chunks and transcript.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID uint) error {
	if sessionID == 0 {
		return ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if err := s.chunkRepo.DeleteBySessionID(ctx, sessionID); err != nil {
		return err
	}
	if err := s.messageRepo.DeleteBySessionID(ctx, sessionID); err != nil {
		return err
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}
	return nil
}
