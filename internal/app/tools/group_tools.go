package tools

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/app/tasks"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// RegisterGroupTools wires the group CRUD capabilities into the registry.
func RegisterGroupTools(reg *Registry, svc *tasks.Service) {
	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "addGroup",
			Description: "Add a new group",
			Schema: domain.ToolSchema{
				Required: []string{"name"},
				Properties: map[string]domain.SchemaProperty{
					"name": {Type: "string", Description: "Group name"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			group, err := svc.CreateGroup(ctx, stringArg(args, "name"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"id": group.ID, "name": group.Name}, nil
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "updateGroup",
			Description: "Update a group",
			Schema: domain.ToolSchema{
				Required: []string{"id"},
				Properties: map[string]domain.SchemaProperty{
					"id":   {Type: "string", Description: "Group ID"},
					"name": {Type: "string"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			patch := domain.GroupPatch{}
			if v, ok := args["name"].(string); ok {
				patch.Name = &v
			}
			group, err := svc.UpdateGroup(ctx, domain.GroupID(stringArg(args, "id")), patch)
			if err != nil {
				return nil, err
			}
			return map[string]any{"id": group.ID, "name": group.Name}, nil
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "deleteGroup",
			Description: "Delete a group",
			Schema: domain.ToolSchema{
				Required: []string{"id"},
				Properties: map[string]domain.SchemaProperty{
					"id": {Type: "string", Description: "Group ID"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			if err := svc.DeleteGroup(ctx, domain.GroupID(stringArg(args, "id"))); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "getGroups",
			Description: "Get all groups",
			Schema: domain.ToolSchema{
				Properties: map[string]domain.SchemaProperty{},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return svc.ListGroups(ctx)
		},
	})
}
