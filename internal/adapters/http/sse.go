package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/app/chatflow"
)

// sseWriter converts orchestrator events into a text/event-stream response.
// Every event is one `data:` line holding the event's JSON encoding; the
// stream always ends with a terminal done or error event.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) WriteEvent(ev chatflow.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flusher.Flush()
}

func (s *sseWriter) WriteDone(truncated bool) {
	s.WriteEvent(chatflow.Event{Type: chatflow.EventDone, Truncated: truncated})
}

func (s *sseWriter) WriteError(err error) {
	s.WriteEvent(chatflow.Event{Type: chatflow.EventError, Error: err.Error()})
}
