package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/observability"
)

// Service holds the CRUD logic for tasks, groups and categories. All
// validation lives here; the stores are plain persistence.
type Service struct {
	tasks      domain.TaskStore
	groups     domain.GroupStore
	categories domain.CategoryStore

	newID func() string
}

func NewService(
	tasks domain.TaskStore,
	groups domain.GroupStore,
	categories domain.CategoryStore,
) *Service {
	return &Service{
		tasks:      tasks,
		groups:     groups,
		categories: categories,
		newID:      func() string { return uuid.NewString() },
	}
}

// ─────────────────────────────────────────────
// Tasks
// ─────────────────────────────────────────────

type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.Status
	Priority    domain.Priority
	CategoryID  domain.CategoryID
	GroupID     domain.GroupID
	Due         *time.Time
}

func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	if in.Title == "" {
		return nil, domain.NewValidationError("title", "is required")
	}
	if in.GroupID == "" {
		return nil, domain.NewValidationError("groupId", "is required")
	}
	if in.Status == "" {
		in.Status = domain.StatusTodo
	}
	if !in.Status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown value %q", in.Status))
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, domain.NewValidationError("priority", fmt.Sprintf("unknown value %q", in.Priority))
	}

	// The group reference must resolve at creation time.
	if _, err := s.groups.GetGroup(ctx, in.GroupID); err != nil {
		return nil, fmt.Errorf("group %s: %w", in.GroupID, err)
	}

	task := &domain.Task{
		ID:          domain.TaskID(s.newID()),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		CategoryID:  in.CategoryID,
		GroupID:     in.GroupID,
		Due:         in.Due,
	}

	if err := s.tasks.CreateTask(ctx, task); err != nil {
		observability.LoggerFromContext(ctx).Errorw("failed to create task", "error", err)
		return nil, err
	}
	return task, nil
}

// UpdateTask applies a partial update: only supplied fields change. The id
// and, once set, the group are immutable.
func (s *Service) UpdateTask(ctx context.Context, id domain.TaskID, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.GroupID != nil && *patch.GroupID != task.GroupID {
		return nil, domain.ErrGroupImmutable
	}
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, domain.NewValidationError("title", "must be non-empty")
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, domain.NewValidationError("status", fmt.Sprintf("unknown value %q", *patch.Status))
		}
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		if *patch.Priority != "" && !patch.Priority.Valid() {
			return nil, domain.NewValidationError("priority", fmt.Sprintf("unknown value %q", *patch.Priority))
		}
		task.Priority = *patch.Priority
	}
	if patch.CategoryID != nil {
		task.CategoryID = *patch.CategoryID
	}
	if patch.Due != nil {
		task.Due = patch.Due
	}

	if err := s.tasks.UpdateTask(ctx, task); err != nil {
		observability.LoggerFromContext(ctx).Errorw("failed to update task", "task_id", id, "error", err)
		return nil, err
	}
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, id domain.TaskID) error {
	return s.tasks.DeleteTask(ctx, id)
}

func (s *Service) GetTask(ctx context.Context, id domain.TaskID) (*domain.Task, error) {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detachDanglingCategory(ctx, task)
}

func (s *Service) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	list, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return s.detachDanglingCategories(ctx, list)
}

func (s *Service) ListTasksByGroup(ctx context.Context, groupID domain.GroupID) ([]*domain.Task, error) {
	list, err := s.tasks.ListTasksByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.detachDanglingCategories(ctx, list)
}

// detachDanglingCategories nullifies category references that no longer
// resolve. Deleting a category must never delete or corrupt its tasks.
func (s *Service) detachDanglingCategories(ctx context.Context, list []*domain.Task) ([]*domain.Task, error) {
	known := map[domain.CategoryID]bool{}
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		known[c.ID] = true
	}

	out := make([]*domain.Task, 0, len(list))
	for _, t := range list {
		if t.CategoryID != "" && !known[t.CategoryID] {
			copied := *t
			copied.CategoryID = ""
			t = &copied
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Service) detachDanglingCategory(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	out, err := s.detachDanglingCategories(ctx, []*domain.Task{task})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ─────────────────────────────────────────────
// Groups
// ─────────────────────────────────────────────

func (s *Service) CreateGroup(ctx context.Context, name string) (*domain.Group, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	group := &domain.Group{
		ID:   domain.GroupID(s.newID()),
		Name: name,
	}
	if err := s.groups.CreateGroup(ctx, group); err != nil {
		observability.LoggerFromContext(ctx).Errorw("failed to create group", "error", err)
		return nil, err
	}
	return group, nil
}

func (s *Service) UpdateGroup(ctx context.Context, id domain.GroupID, patch domain.GroupPatch) (*domain.Group, error) {
	group, err := s.groups.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, domain.NewValidationError("name", "must be non-empty")
		}
		group.Name = *patch.Name
	}
	if err := s.groups.UpdateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup refuses to delete a group that still has tasks.
func (s *Service) DeleteGroup(ctx context.Context, id domain.GroupID) error {
	if _, err := s.groups.GetGroup(ctx, id); err != nil {
		return err
	}
	remaining, err := s.tasks.ListTasksByGroup(ctx, id)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return fmt.Errorf("group %s has %d tasks: %w", id, len(remaining), domain.ErrGroupNotEmpty)
	}
	return s.groups.DeleteGroup(ctx, id)
}

func (s *Service) GetGroup(ctx context.Context, id domain.GroupID) (*domain.Group, error) {
	return s.groups.GetGroup(ctx, id)
}

func (s *Service) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	return s.groups.ListGroups(ctx)
}

// ─────────────────────────────────────────────
// Categories
// ─────────────────────────────────────────────

func (s *Service) CreateCategory(ctx context.Context, name, color string) (*domain.Category, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if color == "" {
		color = domain.DefaultCategoryColor
	}
	category := &domain.Category{
		ID:    domain.CategoryID(s.newID()),
		Name:  name,
		Color: color,
	}
	if err := s.categories.CreateCategory(ctx, category); err != nil {
		observability.LoggerFromContext(ctx).Errorw("failed to create category", "error", err)
		return nil, err
	}
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id domain.CategoryID, patch domain.CategoryPatch) (*domain.Category, error) {
	category, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, domain.NewValidationError("name", "must be non-empty")
		}
		category.Name = *patch.Name
	}
	if patch.Color != nil {
		category.Color = *patch.Color
	}
	if err := s.categories.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory detaches rather than deletes dependents: tasks referencing
// the category are left untouched and resolve to no category at read time.
func (s *Service) DeleteCategory(ctx context.Context, id domain.CategoryID) error {
	return s.categories.DeleteCategory(ctx, id)
}

func (s *Service) GetCategory(ctx context.Context, id domain.CategoryID) (*domain.Category, error) {
	return s.categories.GetCategory(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.ListCategories(ctx)
}
