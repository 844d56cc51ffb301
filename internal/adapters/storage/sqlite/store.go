// Package sqlite persists the task, group, category and chat thread data in
// a single SQLite database. One Store implements all four store ports.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/taskdeck/taskdeck/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	priority    TEXT NOT NULL DEFAULT '',
	category_id TEXT NOT NULL DEFAULT '',
	group_id    TEXT NOT NULL,
	due         TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_group ON tasks(group_id);

CREATE TABLE IF NOT EXISTS groups (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL,
	color TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_threads (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	thread     TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);
`

type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and runs the migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("setting busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("setting journal_mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ─────────────────────────────────────────────
// TaskStore
// ─────────────────────────────────────────────

func (s *Store) CreateTask(ctx context.Context, task *domain.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, status, priority, category_id, group_id, due)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.Status, task.Priority,
		task.CategoryID, task.GroupID, dueString(task.Due))
	if err != nil {
		return fmt.Errorf("insert task %s: %w", task.ID, err)
	}
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, task *domain.Task) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title=?, description=?, status=?, priority=?, category_id=?, group_id=?, due=?
		 WHERE id=?`,
		task.Title, task.Description, task.Status, task.Priority,
		task.CategoryID, task.GroupID, dueString(task.Due), task.ID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", task.ID, err)
	}
	return affected(res, fmt.Sprintf("task %s", task.ID))
}

func (s *Store) DeleteTask(ctx context.Context, id domain.TaskID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return affected(res, fmt.Sprintf("task %s", id))
}

func (s *Store) GetTask(ctx context.Context, id domain.TaskID) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, status, priority, category_id, group_id, due
		 FROM tasks WHERE id=?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return task, err
}

func (s *Store) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	return s.queryTasks(ctx,
		`SELECT id, title, description, status, priority, category_id, group_id, due
		 FROM tasks ORDER BY rowid`)
}

func (s *Store) ListTasksByGroup(ctx context.Context, groupID domain.GroupID) ([]*domain.Task, error) {
	return s.queryTasks(ctx,
		`SELECT id, title, description, status, priority, category_id, group_id, due
		 FROM tasks WHERE group_id=? ORDER BY rowid`, groupID)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var result []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	var due sql.NullString
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status,
		&task.Priority, &task.CategoryID, &task.GroupID, &due)
	if err != nil {
		return nil, err
	}
	if due.Valid && due.String != "" {
		t, err := time.Parse(time.RFC3339, due.String)
		if err != nil {
			return nil, fmt.Errorf("parse due date: %w", err)
		}
		task.Due = &t
	}
	return &task, nil
}

func dueString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// ─────────────────────────────────────────────
// GroupStore
// ─────────────────────────────────────────────

func (s *Store) CreateGroup(ctx context.Context, group *domain.Group) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (id, name) VALUES (?, ?)`, group.ID, group.Name)
	if err != nil {
		return fmt.Errorf("insert group %s: %w", group.ID, err)
	}
	return nil
}

func (s *Store) UpdateGroup(ctx context.Context, group *domain.Group) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name=? WHERE id=?`, group.Name, group.ID)
	if err != nil {
		return fmt.Errorf("update group %s: %w", group.ID, err)
	}
	return affected(res, fmt.Sprintf("group %s", group.ID))
}

func (s *Store) DeleteGroup(ctx context.Context, id domain.GroupID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete group %s: %w", id, err)
	}
	return affected(res, fmt.Sprintf("group %s", id))
}

func (s *Store) GetGroup(ctx context.Context, id domain.GroupID) (*domain.Group, error) {
	var group domain.Group
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM groups WHERE id=?`, id).Scan(&group.ID, &group.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get group %s: %w", id, err)
	}
	return &group, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM groups ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var result []*domain.Group
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(&group.ID, &group.Name); err != nil {
			return nil, err
		}
		result = append(result, &group)
	}
	return result, rows.Err()
}

// ─────────────────────────────────────────────
// CategoryStore
// ─────────────────────────────────────────────

func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, color) VALUES (?, ?, ?)`,
		category.ID, category.Name, category.Color)
	if err != nil {
		return fmt.Errorf("insert category %s: %w", category.ID, err)
	}
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, category *domain.Category) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name=?, color=? WHERE id=?`,
		category.Name, category.Color, category.ID)
	if err != nil {
		return fmt.Errorf("update category %s: %w", category.ID, err)
	}
	return affected(res, fmt.Sprintf("category %s", category.ID))
}

func (s *Store) DeleteCategory(ctx context.Context, id domain.CategoryID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return affected(res, fmt.Sprintf("category %s", id))
}

func (s *Store) GetCategory(ctx context.Context, id domain.CategoryID) (*domain.Category, error) {
	var category domain.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, color FROM categories WHERE id=?`, id).
		Scan(&category.ID, &category.Name, &category.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	return &category, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var result []*domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Color); err != nil {
			return nil, err
		}
		result = append(result, &category)
	}
	return result, rows.Err()
}

// ─────────────────────────────────────────────
// ThreadStore
// ─────────────────────────────────────────────

func (s *Store) CreateThread(ctx context.Context, thread *domain.ChatThread) error {
	raw, err := json.Marshal(thread.Thread)
	if err != nil {
		return fmt.Errorf("marshal thread %s: %w", thread.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_threads (id, title, thread, created_at) VALUES (?, ?, ?, ?)`,
		thread.ID, thread.Title, string(raw), thread.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert thread %s: %w", thread.ID, err)
	}
	return nil
}

func (s *Store) UpdateThread(ctx context.Context, id domain.ThreadID, patch domain.ThreadPatch) (*domain.ChatThread, error) {
	thread, err := s.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		thread.Title = *patch.Title
	}
	if patch.Thread != nil {
		thread.Thread = *patch.Thread
	}

	raw, err := json.Marshal(thread.Thread)
	if err != nil {
		return nil, fmt.Errorf("marshal thread %s: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_threads SET title=?, thread=? WHERE id=?`,
		thread.Title, string(raw), id)
	if err != nil {
		return nil, fmt.Errorf("update thread %s: %w", id, err)
	}
	if err := affected(res, fmt.Sprintf("thread %s", id)); err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *Store) DeleteThread(ctx context.Context, id domain.ThreadID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_threads WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete thread %s: %w", id, err)
	}
	return affected(res, fmt.Sprintf("thread %s", id))
}

func (s *Store) GetThread(ctx context.Context, id domain.ThreadID) (*domain.ChatThread, error) {
	var thread domain.ChatThread
	var raw, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, thread, created_at FROM chat_threads WHERE id=?`, id).
		Scan(&thread.ID, &thread.Title, &raw, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get thread %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(raw), &thread.Thread); err != nil {
		return nil, fmt.Errorf("unmarshal thread %s: %w", id, err)
	}
	thread.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for thread %s: %w", id, err)
	}
	return &thread, nil
}

func (s *Store) ListThreads(ctx context.Context) ([]*domain.ChatThread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, thread, created_at FROM chat_threads ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close()

	var result []*domain.ChatThread
	for rows.Next() {
		var thread domain.ChatThread
		var raw, createdAt string
		if err := rows.Scan(&thread.ID, &thread.Title, &raw, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &thread.Thread); err != nil {
			return nil, fmt.Errorf("unmarshal thread %s: %w", thread.ID, err)
		}
		thread.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for thread %s: %w", thread.ID, err)
		}
		result = append(result, &thread)
	}
	return result, rows.Err()
}

func affected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
