package chatflow

import "encoding/json"

// EventType tags the incremental events emitted while a turn runs.
type EventType string

const (
	// EventTextDelta carries a fragment of assistant text as it streams in.
	EventTextDelta EventType = "text-delta"

	// EventToolCall announces a tool invocation requested by the model.
	EventToolCall EventType = "tool-call"

	// EventToolResult carries a tool's result, attributed by call id.
	EventToolResult EventType = "tool-result"

	// EventDone terminates the stream. Truncated is set when the step
	// bound was reached before the model produced a final answer.
	EventDone EventType = "done"

	// EventError reports a turn-level failure.
	EventError EventType = "error"
)

// Event is one incremental chunk of a chat turn, shaped for direct
// serialization onto the wire.
type Event struct {
	Type      EventType       `json:"type"`
	Text      string          `json:"text,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	CallID    string          `json:"callId,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Truncated bool            `json:"truncated,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Emitter receives events as the turn progresses. A nil Emitter is valid.
type Emitter func(Event)

func (e Emitter) emit(ev Event) {
	if e != nil {
		e(ev)
	}
}
