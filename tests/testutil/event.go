// Package testutil provides common test utilities for the LeadScout backend.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/leadscout/backend/internal/domain/shared"
)

// RecordingHandler is an event handler that remembers everything it was
// given. Safe for concurrent use, so it can sit behind the async event
// bus in tests.
type RecordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewRecordingHandler subscribes to the given event types, or to
// everything when none are named.
func NewRecordingHandler(eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{eventTypes: eventTypes}
}

// EventTypes lists the subscribed event types.
func (h *RecordingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event and returns the configured error, if any.
func (h *RecordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled snapshots the recorded events.
func (h *RecordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// HandledCount reports how many events Handle has seen.
func (h *RecordingHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError makes subsequent Handle calls fail with err.
func (h *RecordingHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Reset clears the recorded events and the configured error.
func (h *RecordingHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = nil
	h.err = nil
}

// StubEvent is a minimal DomainEvent for exercising bus plumbing.
type StubEvent struct {
	shared.BaseDomainEvent
	Data string
}

func buildStubEvent(eventID uuid.UUID, eventType string, userID uuid.UUID) *StubEvent {
	return &StubEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:          eventID,
			Type:        eventType,
			UserIDValue: userID,
			Timestamp:   time.Now(),
			AggID:       uuid.New(),
			AggType:     "TestAggregate",
		},
		Data: "fixture-payload",
	}
}

// NewStubEvent builds a StubEvent with a fresh random ID.
func NewStubEvent(eventType string, userID uuid.UUID) *StubEvent {
	return buildStubEvent(uuid.New(), eventType, userID)
}

// NewStubEventWithID creates a test event with a specific event ID, for
// exercising dedup paths that key on the ID.
func NewStubEventWithID(eventID uuid.UUID, eventType string, userID uuid.UUID) *StubEvent {
	return buildStubEvent(eventID, eventType, userID)
}

// WaitForCondition polls until the condition holds or the timeout elapses.
// Reports whether the condition was met.
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()
	return pollUntil(condition, timeout, interval)
}

// WaitForEventCount polls until the handler has seen at least count
// events or the timeout elapses.
func WaitForEventCount(t *testing.T, handler *RecordingHandler, count int, timeout time.Duration) bool {
	t.Helper()
	return pollUntil(func() bool {
		return handler.HandledCount() >= count
	}, timeout, 10*time.Millisecond)
}
