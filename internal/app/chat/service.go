package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/app/chatflow"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/observability"
)

// Service owns chat threads: CRUD on the thread collection plus the turn
// path that binds the orchestrator to the thread store.
type Service struct {
	threads domain.ThreadStore
	orch    *chatflow.Orchestrator

	now   func() time.Time
	newID func() string
}

func NewService(threads domain.ThreadStore, orch *chatflow.Orchestrator) *Service {
	return &Service{
		threads: threads,
		orch:    orch,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *Service) CreateThread(ctx context.Context, title string) (*domain.ChatThread, error) {
	if title == "" {
		return nil, domain.NewValidationError("title", "is required")
	}
	thread := &domain.ChatThread{
		ID:        domain.ThreadID(s.newID()),
		Title:     title,
		Thread:    []domain.ChatMessage{},
		CreatedAt: s.now(),
	}
	if err := s.threads.CreateThread(ctx, thread); err != nil {
		observability.LoggerFromContext(ctx).Errorw("failed to create thread", "error", err)
		return nil, err
	}
	return thread, nil
}

func (s *Service) GetThread(ctx context.Context, id domain.ThreadID) (*domain.ChatThread, error) {
	return s.threads.GetThread(ctx, id)
}

func (s *Service) ListThreads(ctx context.Context) ([]*domain.ChatThread, error) {
	return s.threads.ListThreads(ctx)
}

func (s *Service) RenameThread(ctx context.Context, id domain.ThreadID, title string) (*domain.ChatThread, error) {
	if title == "" {
		return nil, domain.NewValidationError("title", "is required")
	}
	return s.threads.UpdateThread(ctx, id, domain.ThreadPatch{Title: &title})
}

func (s *Service) DeleteThread(ctx context.Context, id domain.ThreadID) error {
	return s.threads.DeleteThread(ctx, id)
}

// RunTurn executes one chat turn against an existing thread. messages is the
// client-supplied history including the new user message; it becomes the
// model input as-is. After the stream is fully drained the concatenation of
// messages and everything the turn produced replaces the thread content in
// a single write. A failed save is logged and swallowed: the streamed
// response already left the building.
func (s *Service) RunTurn(
	ctx context.Context,
	id domain.ThreadID,
	messages []domain.ChatMessage,
	emit chatflow.Emitter,
) (*chatflow.TurnResult, error) {
	log := observability.LoggerFromContext(ctx).With("thread_id", id)

	// The thread must exist before the loop appends to it.
	if _, err := s.threads.GetThread(ctx, id); err != nil {
		return nil, err
	}

	result, err := s.orch.RunTurn(ctx, messages, emit)
	if err != nil {
		return nil, err
	}

	full := make([]domain.ChatMessage, 0, len(messages)+len(result.Messages))
	full = append(full, messages...)
	full = append(full, result.Messages...)

	if _, err := s.threads.UpdateThread(ctx, id, domain.ThreadPatch{Thread: &full}); err != nil {
		log.Errorw("failed to save chat thread", "error", err)
	} else {
		log.Infow("chat turn persisted", "messages", len(full), "truncated", result.Truncated)
	}

	return result, nil
}
