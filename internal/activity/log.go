package activity

import (
	"sync"
	"time"
)

type EventType string

const (
	EventModelLoaded       EventType = "model_loaded"
	EventSchemaLoaded      EventType = "schema_loaded"
	EventPredictFailed     EventType = "predict_failed"
	EventDimensionMismatch EventType = "dimension_mismatch"
	EventKeyMinted         EventType = "key_minted"
	EventKeyRevoked        EventType = "key_revoked"
)

// Event is one operational occurrence worth surfacing to an operator.
type Event struct {
	At        time.Time `json:"at"`
	Type      EventType `json:"type"`
	Model     string    `json:"model,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// Log is a fixed-size ring buffer of recent events. Safe for concurrent use.
type Log struct {
	mu   sync.RWMutex
	buf  []Event
	next int
	full bool
}

func New(size int) *Log {
	if size <= 0 {
		size = 200
	}
	return &Log{
		buf: make([]Event, size),
	}
}

func (l *Log) Add(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf[l.next] = e
	l.next++
	if l.next >= len(l.buf) {
		l.next = 0
		l.full = true
	}
}

// List returns the buffered events, newest first.
func (l *Log) List() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.full && l.next == 0 {
		return nil
	}

	var out []Event
	if l.full {
		out = make([]Event, 0, len(l.buf))
		out = append(out, l.buf[l.next:]...)
		out = append(out, l.buf[:l.next]...)
	} else {
		out = append([]Event(nil), l.buf[:l.next]...)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
