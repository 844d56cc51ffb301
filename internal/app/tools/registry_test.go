package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/adapters/storage/memory"
	"github.com/taskdeck/taskdeck/internal/app/tasks"
	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/domain"
)

func newTestRegistry(t *testing.T) (*tools.Registry, *tasks.Service) {
	t.Helper()
	svc := tasks.NewService(
		memory.NewTaskStore(),
		memory.NewGroupStore(),
		memory.NewCategoryStore(),
	)
	reg := tools.NewRegistry()
	tools.RegisterAll(reg, svc)
	return reg, svc
}

func TestRegistryCatalog(t *testing.T) {
	reg, _ := newTestRegistry(t)

	assert.Equal(t, 13, reg.Count())

	decls := reg.Declarations()
	require.Len(t, decls, 13)
	// Sorted by name, stable for the model.
	assert.Equal(t, "addCategory", decls[0].Name)

	for _, name := range []string{
		"addTask", "updateTask", "deleteTask", "getTasksByGroupId", "getTasks",
		"addGroup", "updateGroup", "deleteGroup", "getGroups",
		"addCategory", "updateCategory", "deleteCategory", "getCategories",
	} {
		assert.NotNil(t, reg.Get(name), "tool %s should be registered", name)
	}
}

func TestCallUnknownTool(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Call(context.Background(), "launchMissiles", nil)
	assert.ErrorIs(t, err, tools.ErrToolNotFound)
}

func TestCallRejectsMissingRequiredArg(t *testing.T) {
	reg, svc := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Call(ctx, "addTask", map[string]any{"groupId": "g1"})
	assert.True(t, domain.IsValidation(err), "missing title should be rejected")

	// Rejected before any effect.
	list, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCallRejectsEnumViolation(t *testing.T) {
	reg, svc := newTestRegistry(t)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "Chores")
	require.NoError(t, err)

	_, err = reg.Call(ctx, "addTask", map[string]any{
		"title":   "Buy milk",
		"groupId": string(group.ID),
		"status":  "paused",
	})
	assert.True(t, domain.IsValidation(err))

	list, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddTaskToolCreatesRetrievableTask(t *testing.T) {
	reg, svc := newTestRegistry(t)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "Chores")
	require.NoError(t, err)

	out, err := reg.Call(ctx, "addTask", map[string]any{
		"title":    "Buy milk",
		"groupId":  string(group.ID),
		"priority": "high",
	})
	require.NoError(t, err)

	// Minimal confirmation payload, not the full record.
	confirmation, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Buy milk", confirmation["title"])
	id, ok := confirmation["id"].(domain.TaskID)
	require.True(t, ok)

	task, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, task.Status)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
}

func TestAddTaskToolUnknownGroup(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Call(context.Background(), "addTask", map[string]any{
		"title":   "Buy milk",
		"groupId": "missing",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupAndCategoryTools(t *testing.T) {
	reg, svc := newTestRegistry(t)
	ctx := context.Background()

	out, err := reg.Call(ctx, "addGroup", map[string]any{"name": "Projects"})
	require.NoError(t, err)
	groupOut := out.(map[string]any)
	groupID := groupOut["id"].(domain.GroupID)

	out, err = reg.Call(ctx, "addCategory", map[string]any{"name": "Deep Work"})
	require.NoError(t, err)
	catOut := out.(map[string]any)
	catID := catOut["id"].(domain.CategoryID)

	category, err := svc.GetCategory(ctx, catID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategoryColor, category.Color)

	_, err = reg.Call(ctx, "deleteCategory", map[string]any{"id": string(catID)})
	require.NoError(t, err)

	out, err = reg.Call(ctx, "getGroups", map[string]any{})
	require.NoError(t, err)
	groups := out.([]*domain.Group)
	require.Len(t, groups, 1)
	assert.Equal(t, groupID, groups[0].ID)
}

func TestRegisterDuplicate(t *testing.T) {
	reg := tools.NewRegistry()

	tool := &tools.Tool{
		ToolDefinition: domain.ToolDefinition{Name: "dupe"},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, nil
		},
	}
	require.NoError(t, reg.Register(tool))
	assert.ErrorIs(t, reg.Register(tool), tools.ErrToolAlreadyRegistered)
}
