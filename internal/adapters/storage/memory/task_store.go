package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain"
)

type TaskStore struct {
	mu    sync.RWMutex
	tasks map[domain.TaskID]*domain.Task
	order []domain.TaskID
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[domain.TaskID]*domain.Task),
	}
}

func (s *TaskStore) CreateTask(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %s: %w", task.ID, domain.ErrAlreadyExists)
	}
	copied := *task
	s.tasks[task.ID] = &copied
	s.order = append(s.order, task.ID)
	return nil
}

func (s *TaskStore) UpdateTask(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		return fmt.Errorf("task %s: %w", task.ID, domain.ErrNotFound)
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *TaskStore) DeleteTask(ctx context.Context, id domain.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	delete(s.tasks, id)
	for i, tid := range s.order {
		if tid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *TaskStore) GetTask(ctx context.Context, id domain.TaskID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	copied := *task
	return &copied, nil
}

func (s *TaskStore) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Task, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.tasks[id]
		result = append(result, &copied)
	}
	return result, nil
}

func (s *TaskStore) ListTasksByGroup(ctx context.Context, groupID domain.GroupID) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Task
	for _, id := range s.order {
		if s.tasks[id].GroupID == groupID {
			copied := *s.tasks[id]
			result = append(result, &copied)
		}
	}
	return result, nil
}
