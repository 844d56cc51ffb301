package chatflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/observability"
)

// systemDirective restricts the model to the task-management domain and
// teaches it to resolve human-readable group names to ids before mutating.
const systemDirective = `You are an AI assistant specialized in managing tasks, groups, and categories for a Task Manager application. You are NOT to provide answers or engage in topics outside of this domain.

When adding tasks, always ask the user which group the tasks belong to. If the user provides only the group name, use the 'getGroups' tool to retrieve its ID.

For updating tasks, if the user lacks task IDs, use 'getTasksByGroupId' or 'getTasks' to locate the correct tasks.

You can perform add, update, and delete operations only for tasks, groups, and categories using the provided tools.

Any queries unrelated to task management should be politely declined.

Always follow these guidelines strictly to maintain context and relevance within the task management scope.`

// DefaultMaxSteps bounds model invocations within a single user turn.
const DefaultMaxSteps = 10

// Orchestrator binds a chat model to the tool registry and runs the bounded
// multi-step tool-use loop:
//
//	awaiting-model-response -> { tool-calls-requested -> executing-tools ->
//	awaiting-model-response } | final-response-ready
type Orchestrator struct {
	model    domain.ChatModel
	registry *tools.Registry
	maxSteps int
	system   string
}

func New(model domain.ChatModel, registry *tools.Registry, maxSteps int) *Orchestrator {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Orchestrator{
		model:    model,
		registry: registry,
		maxSteps: maxSteps,
		system:   systemDirective,
	}
}

// TurnResult is everything a completed turn produced. Messages holds only
// the messages generated this turn, in order: assistant tool-call messages,
// tool results, and the final assistant message. Truncated is set when the
// step bound was reached before the model emitted a final answer.
type TurnResult struct {
	Messages  []domain.ChatMessage
	Truncated bool
}

// RunTurn drives one user turn to completion. history must already include
// the new user message; the orchestrator never creates its own thread.
// Events are emitted as the model streams and tools execute; the returned
// messages are what the caller persists.
func (o *Orchestrator) RunTurn(ctx context.Context, history []domain.ChatMessage, emit Emitter) (*TurnResult, error) {
	log := observability.LoggerFromContext(ctx)

	msgs := make([]domain.ChatMessage, len(history))
	copy(msgs, history)

	var produced []domain.ChatMessage

	for step := 1; step <= o.maxSteps; step++ {
		start := time.Now()
		turn, err := o.model.GenerateTurn(ctx, domain.ModelRequest{
			System:   o.system,
			Messages: msgs,
			Tools:    o.registry.Declarations(),
		}, func(delta string) {
			emit.emit(Event{Type: EventTextDelta, Text: delta})
		})
		if err != nil {
			log.Errorw("model turn failed", "step", step, "error", err)
			return nil, fmt.Errorf("model turn %d: %w", step, err)
		}
		log.Infow("model turn complete",
			"step", step,
			"tool_calls", len(turn.ToolCalls),
			"elapsed_ms", time.Since(start).Milliseconds())

		assistant := assistantMessage(turn)
		msgs = append(msgs, assistant)
		produced = append(produced, assistant)

		if len(turn.ToolCalls) == 0 {
			return &TurnResult{Messages: produced}, nil
		}

		toolMsg := o.executeCalls(ctx, turn.ToolCalls, emit)
		msgs = append(msgs, toolMsg)
		produced = append(produced, toolMsg)
	}

	// Step bound reached without a final answer: silent at the transcript
	// level, but the stream's terminal event carries a truncation flag.
	log.Warnw("turn truncated at step bound", "max_steps", o.maxSteps)
	return &TurnResult{Messages: produced, Truncated: true}, nil
}

// executeCalls runs all tool calls of one model turn. Calls are dispatched
// concurrently; results keep the request order so each one is attributable
// to its call id. A failing tool becomes an error-shaped result fed back to
// the model, never a turn failure.
func (o *Orchestrator) executeCalls(ctx context.Context, calls []domain.ToolCall, emit Emitter) domain.ChatMessage {
	results := make([]json.RawMessage, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		emit.emit(Event{
			Type:   EventToolCall,
			Tool:   call.Name,
			CallID: call.ID,
			Args:   mustJSON(call.Args),
		})

		g.Go(func() error {
			out, err := o.registry.Call(gctx, call.Name, call.Args)
			if err != nil {
				observability.LoggerFromContext(ctx).Warnw("tool call failed",
					"tool", call.Name, "call_id", call.ID, "error", err)
				results[i] = mustJSON(map[string]any{"error": err.Error()})
				return nil
			}
			results[i] = mustJSON(out)
			return nil
		})
	}
	_ = g.Wait()

	parts := make([]domain.MessagePart, 0, len(calls))
	for i, call := range calls {
		emit.emit(Event{
			Type:   EventToolResult,
			Tool:   call.Name,
			CallID: call.ID,
			Result: results[i],
		})
		parts = append(parts, domain.MessagePart{
			Type:   domain.PartToolResult,
			Tool:   call.Name,
			CallID: call.ID,
			Result: results[i],
		})
	}
	return domain.ChatMessage{Role: domain.RoleTool, Parts: parts}
}

// assistantMessage converts a model turn into a persisted message: text part
// first, then one tool-call part per requested call.
func assistantMessage(turn *domain.ModelTurn) domain.ChatMessage {
	var parts []domain.MessagePart
	if turn.Text != "" {
		parts = append(parts, domain.MessagePart{Type: domain.PartText, Text: turn.Text})
	}
	for _, call := range turn.ToolCalls {
		parts = append(parts, domain.MessagePart{
			Type:   domain.PartToolCall,
			Tool:   call.Name,
			CallID: call.ID,
			Args:   mustJSON(call.Args),
		})
	}
	return domain.ChatMessage{Role: domain.RoleAssistant, Parts: parts}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return b
}
