package tools

import (
	"context"
	"time"

	"github.com/taskdeck/taskdeck/internal/app/tasks"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// RegisterTaskTools wires the task CRUD capabilities into the registry.
// Mutating tools return minimal confirmations, never the full record, to
// keep tool outputs small.
func RegisterTaskTools(reg *Registry, svc *tasks.Service) {
	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "addTask",
			Description: "Add a new task",
			Schema: domain.ToolSchema{
				Required: []string{"title", "groupId"},
				Properties: map[string]domain.SchemaProperty{
					"title":       {Type: "string", Description: "Task title"},
					"description": {Type: "string"},
					"status":      {Type: "string", Enum: []string{"todo", "inprogress", "done"}},
					"date":        {Type: "string", Description: "Due date, ISO 8601"},
					"priority":    {Type: "string", Enum: []string{"low", "medium", "high"}},
					"groupId":     {Type: "string"},
					"categoryId":  {Type: "string"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			due, err := parseDate(stringArg(args, "date"))
			if err != nil {
				return nil, err
			}
			task, err := svc.CreateTask(ctx, tasks.CreateTaskInput{
				Title:       stringArg(args, "title"),
				Description: stringArg(args, "description"),
				Status:      domain.Status(stringArg(args, "status")),
				Priority:    domain.Priority(stringArg(args, "priority")),
				CategoryID:  domain.CategoryID(stringArg(args, "categoryId")),
				GroupID:     domain.GroupID(stringArg(args, "groupId")),
				Due:         due,
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"id": task.ID, "title": task.Title}, nil
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "updateTask",
			Description: "Update a task",
			Schema: domain.ToolSchema{
				Required: []string{"id"},
				Properties: map[string]domain.SchemaProperty{
					"id":          {Type: "string", Description: "Task ID"},
					"title":       {Type: "string"},
					"description": {Type: "string"},
					"status":      {Type: "string", Enum: []string{"todo", "inprogress", "done"}},
					"date":        {Type: "string", Description: "Due date, ISO 8601"},
					"priority":    {Type: "string", Enum: []string{"low", "medium", "high"}},
					"categoryId":  {Type: "string"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			patch := domain.TaskPatch{}
			if v, ok := args["title"].(string); ok {
				patch.Title = &v
			}
			if v, ok := args["description"].(string); ok {
				patch.Description = &v
			}
			if v, ok := args["status"].(string); ok {
				st := domain.Status(v)
				patch.Status = &st
			}
			if v, ok := args["priority"].(string); ok {
				p := domain.Priority(v)
				patch.Priority = &p
			}
			if v, ok := args["categoryId"].(string); ok {
				c := domain.CategoryID(v)
				patch.CategoryID = &c
			}
			if v, ok := args["date"].(string); ok && v != "" {
				due, err := parseDate(v)
				if err != nil {
					return nil, err
				}
				patch.Due = due
			}
			task, err := svc.UpdateTask(ctx, domain.TaskID(stringArg(args, "id")), patch)
			if err != nil {
				return nil, err
			}
			return map[string]any{"id": task.ID, "title": task.Title}, nil
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "deleteTask",
			Description: "Delete a task",
			Schema: domain.ToolSchema{
				Required: []string{"id"},
				Properties: map[string]domain.SchemaProperty{
					"id": {Type: "string", Description: "Task ID"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			if err := svc.DeleteTask(ctx, domain.TaskID(stringArg(args, "id"))); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "getTasksByGroupId",
			Description: "Get tasks by group ID",
			Schema: domain.ToolSchema{
				Required: []string{"groupId"},
				Properties: map[string]domain.SchemaProperty{
					"groupId": {Type: "string", Description: "Group ID"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return svc.ListTasksByGroup(ctx, domain.GroupID(stringArg(args, "groupId")))
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "getTasks",
			Description: "Get all tasks",
			Schema: domain.ToolSchema{
				Properties: map[string]domain.SchemaProperty{},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return svc.ListTasks(ctx)
		},
	})
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Date-only input is common from the model.
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil, domain.NewValidationError("date", "must be an ISO 8601 date")
		}
	}
	return &t, nil
}
