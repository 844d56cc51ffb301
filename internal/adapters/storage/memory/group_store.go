package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain"
)

type GroupStore struct {
	mu     sync.RWMutex
	groups map[domain.GroupID]*domain.Group
	order  []domain.GroupID
}

func NewGroupStore() *GroupStore {
	return &GroupStore{
		groups: make(map[domain.GroupID]*domain.Group),
	}
}

func (s *GroupStore) CreateGroup(ctx context.Context, group *domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[group.ID]; exists {
		return fmt.Errorf("group %s: %w", group.ID, domain.ErrAlreadyExists)
	}
	copied := *group
	s.groups[group.ID] = &copied
	s.order = append(s.order, group.ID)
	return nil
}

func (s *GroupStore) UpdateGroup(ctx context.Context, group *domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[group.ID]; !exists {
		return fmt.Errorf("group %s: %w", group.ID, domain.ErrNotFound)
	}
	copied := *group
	s.groups[group.ID] = &copied
	return nil
}

func (s *GroupStore) DeleteGroup(ctx context.Context, id domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[id]; !exists {
		return fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	delete(s.groups, id)
	for i, gid := range s.order {
		if gid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *GroupStore) GetGroup(ctx context.Context, id domain.GroupID) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	copied := *group
	return &copied, nil
}

func (s *GroupStore) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Group, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.groups[id]
		result = append(result, &copied)
	}
	return result, nil
}
