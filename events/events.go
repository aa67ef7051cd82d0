package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRunCalculated     EventType = "run_calculated"
	EventTypeRunFailed         EventType = "run_failed"
	EventTypeRunLocked         EventType = "run_locked"
	EventTypeRunRolledBack     EventType = "run_rolled_back"
	EventTypeStatementPayable  EventType = "statement_payable"
	EventTypeStatementDisputed EventType = "statement_disputed"
	EventTypeStatementResolved EventType = "statement_resolved"
	EventTypeStatementPaid     EventType = "statement_paid"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RunCalculatedEvent fires after a run's statements are committed
type RunCalculatedEvent struct {
	RunID               int64
	TotalRevenueCents   int64
	TotalRoyaltiesCents int64
	StatementCount      int
}

func (e RunCalculatedEvent) Type() EventType {
	return EventTypeRunCalculated
}

// RunFailedEvent fires when a calculation aborts
type RunFailedEvent struct {
	RunID  int64
	Reason string
}

func (e RunFailedEvent) Type() EventType {
	return EventTypeRunFailed
}

// RunLockedEvent fires when a run is locked for payout
type RunLockedEvent struct {
	RunID      int64
	ReviewedBy string
}

func (e RunLockedEvent) Type() EventType {
	return EventTypeRunLocked
}

// RunRolledBackEvent fires after a run's output is archived and deleted
type RunRolledBackEvent struct {
	RunID     int64
	ArchiveID uuid.UUID
	Forced    bool
}

func (e RunRolledBackEvent) Type() EventType {
	return EventTypeRunRolledBack
}

// StatementPayableEvent fires for each statement that cleared the payout
// threshold during calculation
type StatementPayableEvent struct {
	StatementID     int64
	CreatorID       uuid.UUID
	NetPayableCents int64
}

func (e StatementPayableEvent) Type() EventType {
	return EventTypeStatementPayable
}

// StatementDisputedEvent fires when a creator disputes a statement
type StatementDisputedEvent struct {
	StatementID int64
	CreatorID   uuid.UUID
	Reason      string
}

func (e StatementDisputedEvent) Type() EventType {
	return EventTypeStatementDisputed
}

// StatementResolvedEvent fires when an admin resolves a dispute
type StatementResolvedEvent struct {
	StatementID     int64
	CreatorID       uuid.UUID
	AdjustmentCents int64
}

func (e StatementResolvedEvent) Type() EventType {
	return EventTypeStatementResolved
}

// StatementPaidEvent fires when a statement is marked paid
type StatementPaidEvent struct {
	StatementID      int64
	CreatorID        uuid.UUID
	PaymentReference uuid.UUID
}

func (e StatementPaidEvent) Type() EventType {
	return EventTypeStatementPaid
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously; a panicking or failing handler never affects the caller,
// so downstream sinks (notifications) cannot abort a calculation.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional wrapper over the given bus
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit; uses a
// background context since the transaction context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops all pending events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
