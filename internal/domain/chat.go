package domain

import (
	"context"
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartType discriminates the kinds of content a chat message can carry.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
)

// MessagePart is one typed segment of a chat message. Text parts use Text;
// tool-call parts use Tool/CallID/Args; tool-result parts use
// Tool/CallID/Result. Results are attributed back to their call by CallID.
type MessagePart struct {
	Type   PartType        `json:"type"`
	Text   string          `json:"text,omitempty"`
	Tool   string          `json:"tool,omitempty"`
	CallID string          `json:"callId,omitempty"`
	Args   json.RawMessage `json:"args,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// ChatMessage is one entry in a thread's ordered history.
type ChatMessage struct {
	Role  Role          `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// Text returns the concatenated text parts of the message.
func (m ChatMessage) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// NewTextMessage builds a single-text-part message.
func NewTextMessage(role Role, text string) ChatMessage {
	return ChatMessage{
		Role:  role,
		Parts: []MessagePart{{Type: PartText, Text: text}},
	}
}

// ChatThread is the persisted conversation for one chat session. The thread
// content is replaced wholesale on every persisted write; the last writer
// wins at thread granularity.
type ChatThread struct {
	ID        ThreadID      `json:"id"`
	Title     string        `json:"title"`
	Thread    []ChatMessage `json:"thread"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ThreadPatch is a partial thread update: nil fields keep their prior value.
type ThreadPatch struct {
	Title  *string
	Thread *[]ChatMessage
}

// ThreadStore defines chat thread persistence. List returns threads ordered
// by creation time descending.
type ThreadStore interface {
	CreateThread(ctx context.Context, thread *ChatThread) error
	UpdateThread(ctx context.Context, id ThreadID, patch ThreadPatch) (*ChatThread, error)
	DeleteThread(ctx context.Context, id ThreadID) error
	GetThread(ctx context.Context, id ThreadID) (*ChatThread, error)
	ListThreads(ctx context.Context) ([]*ChatThread, error)
}
