package events

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types emitted during an audit.
const (
	TypeAuditStart    = "audit-start"
	TypeFileSkipped   = "file-skipped"
	TypeAuditFinished = "audit-finished"
	TypeReport        = "report"
)

// Event is a single NDJSON record describing audit progress.
type Event struct {
	Type      string                 `json:"type"`
	RunID     string                 `json:"runId,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Emitter writes NDJSON events to an io.Writer safely across goroutines.
// Every event written by one Emitter carries the same run ID.
type Emitter struct {
	writer io.Writer
	runID  string
	mu     sync.Mutex
}

// NewEmitter returns an emitter tagged with a fresh run ID.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{writer: w, runID: uuid.NewString()}
}

// Discard returns an emitter that drops every event.
func Discard() *Emitter {
	return NewEmitter(io.Discard)
}

// RunID returns the identifier stamped on this emitter's events.
func (e *Emitter) RunID() string {
	return e.runID
}

// Emit serializes the event to JSON and appends a newline.
func (e *Emitter) Emit(evt Event) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if evt.RunID == "" {
		evt.RunID = e.runID
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.writer.Write(append(payload, '\n')); err != nil {
		return err
	}

	return nil
}
