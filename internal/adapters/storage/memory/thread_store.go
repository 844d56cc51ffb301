package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain"
)

type ThreadStore struct {
	mu      sync.RWMutex
	threads map[domain.ThreadID]*domain.ChatThread
}

func NewThreadStore() *ThreadStore {
	return &ThreadStore{
		threads: make(map[domain.ThreadID]*domain.ChatThread),
	}
}

func (s *ThreadStore) CreateThread(ctx context.Context, thread *domain.ChatThread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.threads[thread.ID]; exists {
		return fmt.Errorf("thread %s: %w", thread.ID, domain.ErrAlreadyExists)
	}
	s.threads[thread.ID] = cloneThread(thread)
	return nil
}

// UpdateThread replaces the supplied fields. A thread write replaces the
// whole message sequence; the last writer wins.
func (s *ThreadStore) UpdateThread(ctx context.Context, id domain.ThreadID, patch domain.ThreadPatch) (*domain.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[id]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	if patch.Title != nil {
		thread.Title = *patch.Title
	}
	if patch.Thread != nil {
		thread.Thread = cloneMessages(*patch.Thread)
	}
	return cloneThread(thread), nil
}

func (s *ThreadStore) DeleteThread(ctx context.Context, id domain.ThreadID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.threads[id]; !exists {
		return fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	delete(s.threads, id)
	return nil
}

func (s *ThreadStore) GetThread(ctx context.Context, id domain.ThreadID) (*domain.ChatThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, ok := s.threads[id]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	return cloneThread(thread), nil
}

// ListThreads returns threads ordered by creation time descending.
func (s *ThreadStore) ListThreads(ctx context.Context) ([]*domain.ChatThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ChatThread, 0, len(s.threads))
	for _, t := range s.threads {
		result = append(result, cloneThread(t))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func cloneThread(t *domain.ChatThread) *domain.ChatThread {
	copied := *t
	copied.Thread = cloneMessages(t.Thread)
	return &copied
}

func cloneMessages(msgs []domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(msgs))
	for i, msg := range msgs {
		msg.Parts = append([]domain.MessagePart(nil), msg.Parts...)
		out[i] = msg
	}
	return out
}
