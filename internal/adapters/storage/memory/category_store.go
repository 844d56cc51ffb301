package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain"
)

type CategoryStore struct {
	mu         sync.RWMutex
	categories map[domain.CategoryID]*domain.Category
	order      []domain.CategoryID
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{
		categories: make(map[domain.CategoryID]*domain.Category),
	}
}

func (s *CategoryStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[category.ID]; exists {
		return fmt.Errorf("category %s: %w", category.ID, domain.ErrAlreadyExists)
	}
	copied := *category
	s.categories[category.ID] = &copied
	s.order = append(s.order, category.ID)
	return nil
}

func (s *CategoryStore) UpdateCategory(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[category.ID]; !exists {
		return fmt.Errorf("category %s: %w", category.ID, domain.ErrNotFound)
	}
	copied := *category
	s.categories[category.ID] = &copied
	return nil
}

func (s *CategoryStore) DeleteCategory(ctx context.Context, id domain.CategoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[id]; !exists {
		return fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	delete(s.categories, id)
	for i, cid := range s.order {
		if cid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *CategoryStore) GetCategory(ctx context.Context, id domain.CategoryID) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	copied := *category
	return &copied, nil
}

func (s *CategoryStore) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Category, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.categories[id]
		result = append(result, &copied)
	}
	return result, nil
}
