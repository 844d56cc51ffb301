package domain

import (
	"context"
	"time"
)

// Task always belongs to a group; the category reference is optional and may
// dangle after the category is deleted (it is nullified at the read layer,
// never cascaded).
type Task struct {
	ID          TaskID     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority,omitempty"`
	CategoryID  CategoryID `json:"categoryId,omitempty"`
	GroupID     GroupID    `json:"groupId"`
	Due         *time.Time `json:"date,omitempty"`
}

// Group owns zero or more tasks; the task holds the back-reference.
type Group struct {
	ID   GroupID `json:"id"`
	Name string  `json:"name"`
}

// Category is display metadata only. Color is a free-form token.
type Category struct {
	ID    CategoryID `json:"id"`
	Name  string     `json:"name"`
	Color string     `json:"color"`
}

// TaskPatch is a partial update: nil fields keep their prior value.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *Status     `json:"status,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	CategoryID  *CategoryID `json:"categoryId,omitempty"`
	GroupID     *GroupID    `json:"groupId,omitempty"`
	Due         *time.Time  `json:"date,omitempty"`
}

type GroupPatch struct {
	Name *string `json:"name,omitempty"`
}

type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// TaskStore defines task persistence
type TaskStore interface {
	CreateTask(ctx context.Context, task *Task) error
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, id TaskID) error
	GetTask(ctx context.Context, id TaskID) (*Task, error)
	ListTasks(ctx context.Context) ([]*Task, error)
	ListTasksByGroup(ctx context.Context, groupID GroupID) ([]*Task, error)
}

// GroupStore defines group persistence
type GroupStore interface {
	CreateGroup(ctx context.Context, group *Group) error
	UpdateGroup(ctx context.Context, group *Group) error
	DeleteGroup(ctx context.Context, id GroupID) error
	GetGroup(ctx context.Context, id GroupID) (*Group, error)
	ListGroups(ctx context.Context) ([]*Group, error)
}

// CategoryStore defines category persistence
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *Category) error
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id CategoryID) error
	GetCategory(ctx context.Context, id CategoryID) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
}
