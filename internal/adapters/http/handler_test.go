package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/taskdeck/taskdeck/internal/adapters/http"
	"github.com/taskdeck/taskdeck/internal/adapters/llm"
	"github.com/taskdeck/taskdeck/internal/adapters/storage/memory"
	"github.com/taskdeck/taskdeck/internal/app/chat"
	"github.com/taskdeck/taskdeck/internal/app/chatflow"
	"github.com/taskdeck/taskdeck/internal/app/tasks"
	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/domain"
)

func newTestHandler(t *testing.T, model domain.ChatModel) http.Handler {
	t.Helper()

	taskSvc := tasks.NewService(
		memory.NewTaskStore(),
		memory.NewGroupStore(),
		memory.NewCategoryStore(),
	)
	reg := tools.NewRegistry()
	tools.RegisterAll(reg, taskSvc)

	chatSvc := chat.NewService(memory.NewThreadStore(), chatflow.New(model, reg, 10))
	return httpadapter.NewServer(taskSvc, chatSvc)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestTaskLifecycle(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	rec := doJSON(t, h, http.MethodPost, "/api/groups", map[string]string{"name": "Chores"})
	require.Equal(t, http.StatusCreated, rec.Code)
	group := decode[domain.Group](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/api/tasks", map[string]string{
		"title":   "Buy milk",
		"groupId": string(group.ID),
		"date":    "2026-09-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[domain.Task](t, rec)
	assert.Equal(t, domain.StatusTodo, task.Status)
	require.NotNil(t, task.Due)

	rec = doJSON(t, h, http.MethodGet, "/api/tasks/"+string(task.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Buy milk", decode[domain.Task](t, rec).Title)

	// Collection PUT addresses the task through the body id.
	rec = doJSON(t, h, http.MethodPut, "/api/tasks", map[string]string{
		"id":     string(task.ID),
		"status": "done",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[domain.Task](t, rec)
	assert.Equal(t, domain.StatusDone, updated.Status)
	assert.Equal(t, "Buy milk", updated.Title)

	rec = doJSON(t, h, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Task](t, rec), 1)

	// Collection DELETE addresses the task through the query string.
	rec = doJSON(t, h, http.MethodDelete, "/api/tasks?id="+string(task.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	// Empty list serializes as [], not null.
	body := rec.Body.String()
	assert.Equal(t, "[]", strings.TrimSpace(body))
}

func TestTaskValidationAndNotFound(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	rec := doJSON(t, h, http.MethodPost, "/api/tasks", map[string]string{"title": "orphan"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/tasks/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/tasks", map[string]string{"status": "done"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "collection PUT without id")

	rec = doJSON(t, h, http.MethodDelete, "/api/tasks", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "collection DELETE without id")
}

func TestMoveTaskBetweenGroupsRejected(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	groupA := decode[domain.Group](t, doJSON(t, h, http.MethodPost, "/api/groups", map[string]string{"name": "A"}))
	groupB := decode[domain.Group](t, doJSON(t, h, http.MethodPost, "/api/groups", map[string]string{"name": "B"}))

	task := decode[domain.Task](t, doJSON(t, h, http.MethodPost, "/api/tasks", map[string]string{
		"title":   "stay put",
		"groupId": string(groupA.ID),
	}))

	rec := doJSON(t, h, http.MethodPut, "/api/tasks/"+string(task.ID), map[string]string{
		"groupId": string(groupB.ID),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteGroupConflict(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	group := decode[domain.Group](t, doJSON(t, h, http.MethodPost, "/api/groups", map[string]string{"name": "Chores"}))
	task := decode[domain.Task](t, doJSON(t, h, http.MethodPost, "/api/tasks", map[string]string{
		"title":   "Buy milk",
		"groupId": string(group.ID),
	}))

	rec := doJSON(t, h, http.MethodDelete, "/api/groups/"+string(group.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/tasks/"+string(task.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/groups/"+string(group.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCategoryRoutes(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	rec := doJSON(t, h, http.MethodPost, "/api/categories", map[string]string{"name": "Errands"})
	require.Equal(t, http.StatusCreated, rec.Code)
	category := decode[domain.Category](t, rec)
	assert.Equal(t, domain.DefaultCategoryColor, category.Color)

	rec = doJSON(t, h, http.MethodPut, "/api/categories/"+string(category.ID), map[string]string{"color": "blue"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "blue", decode[domain.Category](t, rec).Color)

	rec = doJSON(t, h, http.MethodDelete, "/api/categories?id="+string(category.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/categories/"+string(category.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatThreadRoutes(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	rec := doJSON(t, h, http.MethodPost, "/api/chat", map[string]string{"title": "Groceries"})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, id)

	rec = doJSON(t, h, http.MethodPost, "/api/chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "title is required")

	rec = doJSON(t, h, http.MethodGet, "/api/chat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Data []domain.ChatThread `json:"data"`
	}](t, rec)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Groceries", list.Data[0].Title)

	rec = doJSON(t, h, http.MethodPatch, "/api/chat/"+id, map[string]string{"title": "Weekly groceries"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/chat/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	thread := decode[struct {
		Thread []domain.ChatMessage `json:"thread"`
	}](t, rec)
	assert.Empty(t, thread.Thread)

	rec = doJSON(t, h, http.MethodDelete, "/api/chat/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/chat/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// parseSSE splits a text/event-stream body into its decoded events.
func parseSSE(t *testing.T, body string) []chatflow.Event {
	t.Helper()

	var events []chatflow.Event
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev chatflow.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestChatTurnStreamsSSE(t *testing.T) {
	model := llm.NewScriptedModel(
		domain.ModelTurn{
			ToolCalls: []domain.ToolCall{{ID: "c1", Name: "addGroup", Args: map[string]any{"name": "Chores"}}},
		},
		domain.ModelTurn{Text: "Done, Chores is ready."},
	)
	h := newTestHandler(t, model)

	rec := doJSON(t, h, http.MethodPost, "/api/chat", map[string]string{"title": "Setup"})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[map[string]string](t, rec)["id"]

	turn := map[string]any{
		"messages": []domain.ChatMessage{domain.NewTextMessage(domain.RoleUser, "make a Chores group")},
	}
	rec = doJSON(t, h, http.MethodPost, "/api/chat/"+id, turn)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)

	// tool-call precedes its result; text deltas precede done.
	var order []chatflow.EventType
	var streamed string
	for _, ev := range events {
		order = append(order, ev.Type)
		if ev.Type == chatflow.EventTextDelta {
			streamed += ev.Text
		}
	}
	callIdx := indexOf(order, chatflow.EventToolCall)
	resultIdx := indexOf(order, chatflow.EventToolResult)
	require.GreaterOrEqual(t, callIdx, 0)
	require.Greater(t, resultIdx, callIdx)
	assert.Equal(t, "Done, Chores is ready.", streamed)

	last := events[len(events)-1]
	assert.Equal(t, chatflow.EventDone, last.Type)
	assert.False(t, last.Truncated)

	// Side effect of the tool call is visible on the entity surface.
	rec = doJSON(t, h, http.MethodGet, "/api/groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	groups := decode[[]domain.Group](t, rec)
	require.Len(t, groups, 1)
	assert.Equal(t, "Chores", groups[0].Name)

	// The full transcript was persisted after the stream drained.
	rec = doJSON(t, h, http.MethodGet, "/api/chat/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	thread := decode[struct {
		Thread []domain.ChatMessage `json:"thread"`
	}](t, rec)
	require.Len(t, thread.Thread, 4)
	assert.Equal(t, domain.RoleUser, thread.Thread[0].Role)
	assert.Equal(t, "Done, Chores is ready.", thread.Thread[3].Text())
}

func TestChatTurnStepBoundSetsTruncated(t *testing.T) {
	model := llm.NewScriptedModel(domain.ModelTurn{
		ToolCalls: []domain.ToolCall{{ID: "loop", Name: "getGroups", Args: map[string]any{}}},
	})
	model.Loop = true
	h := newTestHandler(t, model)

	rec := doJSON(t, h, http.MethodPost, "/api/chat", map[string]string{"title": "runaway"})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[map[string]string](t, rec)["id"]

	turn := map[string]any{
		"messages": []domain.ChatMessage{domain.NewTextMessage(domain.RoleUser, "loop forever")},
	}
	rec = doJSON(t, h, http.MethodPost, "/api/chat/"+id, turn)
	require.Equal(t, http.StatusOK, rec.Code)

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, chatflow.EventDone, last.Type)
	assert.True(t, last.Truncated)
}

func TestChatTurnRequiresMessages(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	rec := doJSON(t, h, http.MethodPost, "/api/chat", map[string]string{"title": "empty"})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[map[string]string](t, rec)["id"]

	rec = doJSON(t, h, http.MethodPost, "/api/chat/"+id, map[string]any{"messages": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatTurnUnknownThreadStreamsError(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	turn := map[string]any{
		"messages": []domain.ChatMessage{domain.NewTextMessage(domain.RoleUser, "hello")},
	}
	rec := doJSON(t, h, http.MethodPost, "/api/chat/missing", turn)
	// Headers are already committed when the turn fails, so the error
	// travels as the terminal stream event.
	require.Equal(t, http.StatusOK, rec.Code)

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, chatflow.EventError, last.Type)
	assert.NotEmpty(t, last.Error)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func indexOf(order []chatflow.EventType, want chatflow.EventType) int {
	for i, typ := range order {
		if typ == want {
			return i
		}
	}
	return -1
}
