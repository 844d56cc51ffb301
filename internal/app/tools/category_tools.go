package tools

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/app/tasks"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// RegisterCategoryTools wires the category CRUD capabilities into the
// registry.
func RegisterCategoryTools(reg *Registry, svc *tasks.Service) {
	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "addCategory",
			Description: "Add a new category",
			Schema: domain.ToolSchema{
				Required: []string{"name"},
				Properties: map[string]domain.SchemaProperty{
					"name":  {Type: "string", Description: "Category name"},
					"color": {Type: "string"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			category, err := svc.CreateCategory(ctx, stringArg(args, "name"), stringArg(args, "color"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"id": category.ID, "name": category.Name}, nil
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "updateCategory",
			Description: "Update a category",
			Schema: domain.ToolSchema{
				Required: []string{"id"},
				Properties: map[string]domain.SchemaProperty{
					"id":    {Type: "string", Description: "Category ID"},
					"name":  {Type: "string"},
					"color": {Type: "string"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			patch := domain.CategoryPatch{}
			if v, ok := args["name"].(string); ok {
				patch.Name = &v
			}
			if v, ok := args["color"].(string); ok {
				patch.Color = &v
			}
			category, err := svc.UpdateCategory(ctx, domain.CategoryID(stringArg(args, "id")), patch)
			if err != nil {
				return nil, err
			}
			return map[string]any{"id": category.ID, "name": category.Name}, nil
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "deleteCategory",
			Description: "Delete a category",
			Schema: domain.ToolSchema{
				Required: []string{"id"},
				Properties: map[string]domain.SchemaProperty{
					"id": {Type: "string", Description: "Category ID"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			if err := svc.DeleteCategory(ctx, domain.CategoryID(stringArg(args, "id"))); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		},
	})

	reg.MustRegister(&Tool{
		ToolDefinition: domain.ToolDefinition{
			Name:        "getCategories",
			Description: "Get all categories",
			Schema: domain.ToolSchema{
				Properties: map[string]domain.SchemaProperty{},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return svc.ListCategories(ctx)
		},
	})
}

// RegisterAll wires the full fixed catalog.
func RegisterAll(reg *Registry, svc *tasks.Service) {
	RegisterTaskTools(reg, svc)
	RegisterGroupTools(reg, svc)
	RegisterCategoryTools(reg, svc)
}
