package ledger

import (
	"simpleSwap/internal/model"
)

// EventLog buffers emitted events. Emission is journaled so a reverted
// operation leaves no events behind.
type EventLog struct {
	journal *Journal
	events  []model.TypedEvent
}

// NewEventLog returns an event log bound to journal.
func NewEventLog(journal *Journal) *EventLog {
	return &EventLog{journal: journal}
}

// Emit appends an event and assigns its log index.
func (l *EventLog) Emit(ev model.TypedEvent) {
	if l == nil {
		return
	}
	ev.LogIndex = uint64(len(l.events))
	l.events = append(l.events, ev)
	n := len(l.events) - 1
	l.journal.Append(func() {
		l.events = l.events[:n]
	})
}

// Pending returns the buffered events without clearing them.
func (l *EventLog) Pending() []model.TypedEvent {
	if l == nil {
		return nil
	}
	out := make([]model.TypedEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Drain returns the buffered events and clears the buffer. It must only be
// called once the journal has been committed.
func (l *EventLog) Drain() []model.TypedEvent {
	if l == nil {
		return nil
	}
	out := l.events
	l.events = nil
	return out
}
