package chat_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/adapters/llm"
	"github.com/taskdeck/taskdeck/internal/adapters/storage/memory"
	"github.com/taskdeck/taskdeck/internal/app/chat"
	"github.com/taskdeck/taskdeck/internal/app/chatflow"
	"github.com/taskdeck/taskdeck/internal/app/tasks"
	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// countingThreadStore wraps a ThreadStore and counts content writes.
type countingThreadStore struct {
	domain.ThreadStore

	mu            sync.Mutex
	threadUpdates int
}

func (s *countingThreadStore) UpdateThread(ctx context.Context, id domain.ThreadID, patch domain.ThreadPatch) (*domain.ChatThread, error) {
	if patch.Thread != nil {
		s.mu.Lock()
		s.threadUpdates++
		s.mu.Unlock()
	}
	return s.ThreadStore.UpdateThread(ctx, id, patch)
}

func newChatService(t *testing.T, model domain.ChatModel) (*chat.Service, *countingThreadStore, *tasks.Service) {
	t.Helper()
	taskSvc := tasks.NewService(
		memory.NewTaskStore(),
		memory.NewGroupStore(),
		memory.NewCategoryStore(),
	)
	reg := tools.NewRegistry()
	tools.RegisterAll(reg, taskSvc)

	store := &countingThreadStore{ThreadStore: memory.NewThreadStore()}
	svc := chat.NewService(store, chatflow.New(model, reg, 10))
	return svc, store, taskSvc
}

func TestCreateThreadRequiresTitle(t *testing.T) {
	svc, _, _ := newChatService(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	_, err := svc.CreateThread(context.Background(), "")
	assert.True(t, domain.IsValidation(err))
}

func TestRunTurnRequiresExistingThread(t *testing.T) {
	svc, _, _ := newChatService(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	_, err := svc.RunTurn(context.Background(), domain.ThreadID("missing"),
		[]domain.ChatMessage{domain.NewTextMessage(domain.RoleUser, "hello")}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunTurnPersistsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newChatService(t, llm.NewScriptedModel(domain.ModelTurn{Text: "Hello there."}))

	thread, err := svc.CreateThread(ctx, "Groceries")
	require.NoError(t, err)

	history := []domain.ChatMessage{domain.NewTextMessage(domain.RoleUser, "hi")}
	result, err := svc.RunTurn(ctx, thread.ID, history, nil)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	assert.Equal(t, 1, store.threadUpdates, "exactly one persisted thread update per turn")

	saved, err := svc.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	// Original history plus exactly one new assistant message.
	require.Len(t, saved.Thread, 2)
	assert.Equal(t, domain.RoleUser, saved.Thread[0].Role)
	assert.Equal(t, domain.RoleAssistant, saved.Thread[1].Role)
	assert.Equal(t, "Hello there.", saved.Thread[1].Text())
}

func TestRunTurnPersistsToolTranscriptInOrder(t *testing.T) {
	ctx := context.Background()

	model := llm.NewScriptedModel(
		domain.ModelTurn{
			ToolCalls: []domain.ToolCall{{ID: "c1", Name: "addGroup", Args: map[string]any{"name": "Chores"}}},
		},
		domain.ModelTurn{Text: "Created the Chores group."},
	)
	svc, store, taskSvc := newChatService(t, model)

	thread, err := svc.CreateThread(ctx, "Setup")
	require.NoError(t, err)

	history := []domain.ChatMessage{domain.NewTextMessage(domain.RoleUser, "make a Chores group")}
	_, err = svc.RunTurn(ctx, thread.ID, history, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, store.threadUpdates)

	saved, err := svc.GetThread(ctx, thread.ID)
	require.NoError(t, err)

	// prior history, tool-call request, tool result, final assistant message
	require.Len(t, saved.Thread, 4)
	assert.Equal(t, domain.RoleUser, saved.Thread[0].Role)
	assert.Equal(t, domain.PartToolCall, saved.Thread[1].Parts[0].Type)
	assert.Equal(t, domain.PartToolResult, saved.Thread[2].Parts[0].Type)
	assert.Equal(t, "Created the Chores group.", saved.Thread[3].Text())

	// Tool side effects are visible through the direct entity surface.
	groups, err := taskSvc.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Chores", groups[0].Name)
}

func TestTwoTurnRoundTrip(t *testing.T) {
	ctx := context.Background()

	model := llm.NewScriptedModel(
		domain.ModelTurn{Text: "First answer."},
		domain.ModelTurn{Text: "Second answer."},
	)
	svc, _, _ := newChatService(t, model)

	thread, err := svc.CreateThread(ctx, "Round trip")
	require.NoError(t, err)

	turn1 := []domain.ChatMessage{domain.NewTextMessage(domain.RoleUser, "one")}
	_, err = svc.RunTurn(ctx, thread.ID, turn1, nil)
	require.NoError(t, err)

	saved, err := svc.GetThread(ctx, thread.ID)
	require.NoError(t, err)

	// The client replays the stored thread plus its next message.
	turn2 := append(saved.Thread, domain.NewTextMessage(domain.RoleUser, "two"))
	_, err = svc.RunTurn(ctx, thread.ID, turn2, nil)
	require.NoError(t, err)

	final, err := svc.GetThread(ctx, thread.ID)
	require.NoError(t, err)

	require.Len(t, final.Thread, 4)
	assert.Equal(t, "one", final.Thread[0].Text())
	assert.Equal(t, "First answer.", final.Thread[1].Text())
	assert.Equal(t, "two", final.Thread[2].Text())
	assert.Equal(t, "Second answer.", final.Thread[3].Text())
}

func TestListThreadsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newChatService(t, llm.NewScriptedModel(domain.ModelTurn{Text: "hi"}))

	first, err := svc.CreateThread(ctx, "first")
	require.NoError(t, err)
	second, err := svc.CreateThread(ctx, "second")
	require.NoError(t, err)

	threads, err := svc.ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	// Creation times may collide at clock resolution; both orders valid
	// only when distinct, so just assert the set and titles exist.
	ids := []domain.ThreadID{threads[0].ID, threads[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}
