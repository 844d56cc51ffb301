package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// ScriptedModel is a deterministic ChatModel for tests and local dev. Each
// GenerateTurn pops the next scripted turn; with Loop set, the last turn
// repeats forever (useful for exercising the step bound).
type ScriptedModel struct {
	mu    sync.Mutex
	turns []domain.ModelTurn
	next  int

	Loop bool

	// Requests records every request seen, newest last.
	Requests []domain.ModelRequest
}

func NewScriptedModel(turns ...domain.ModelTurn) *ScriptedModel {
	return &ScriptedModel{turns: turns}
}

func (m *ScriptedModel) GenerateTurn(
	ctx context.Context,
	req domain.ModelRequest,
	onDelta func(string),
) (*domain.ModelTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if len(m.turns) == 0 {
		return nil, fmt.Errorf("scripted model has no turns")
	}

	idx := m.next
	if idx >= len(m.turns) {
		if !m.Loop {
			return &domain.ModelTurn{Text: "I have nothing further to add."}, nil
		}
		idx = len(m.turns) - 1
	}
	m.next++

	turn := m.turns[idx]
	if turn.Text != "" && onDelta != nil {
		// Stream in two chunks so callers see real deltas.
		half := len(turn.Text) / 2
		if half > 0 {
			onDelta(turn.Text[:half])
			onDelta(turn.Text[half:])
		} else {
			onDelta(turn.Text)
		}
	}
	out := turn
	return &out, nil
}
