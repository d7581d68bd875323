package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated   EventType = "user_created"
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeMarketCreated EventType = "market_created"
	EventTypeStakePlaced   EventType = "stake_placed"
	EventTypeMarketSettled EventType = "market_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a user row created lazily on first reference
type UserCreatedEvent struct {
	UserID          string
	StartingBalance int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BalanceChangeEvent represents a committed balance change
type BalanceChangeEvent struct {
	UserID     string
	OldBalance int64
	NewBalance int64
	Reason     string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// MarketCreatedEvent represents a newly opened market
type MarketCreatedEvent struct {
	MarketID  int64
	CreatorID string
	Question  string
}

func (e MarketCreatedEvent) Type() EventType {
	return EventTypeMarketCreated
}

// StakePlacedEvent represents a stake accepted into an open market
type StakePlacedEvent struct {
	MarketID int64
	UserID   string
	Option   string
	Amount   int64
}

func (e StakePlacedEvent) Type() EventType {
	return EventTypeStakePlaced
}

// MarketSettledEvent represents a market resolution or void
type MarketSettledEvent struct {
	MarketID int64
	Voided   bool
	Outcome  string
	TotalPot int64
}

func (e MarketSettledEvent) Type() EventType {
	return EventTypeMarketSettled
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

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Handlers run asynchronously so a slow subscriber never blocks the caller
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus stashes events published during a unit of work and
// forwards them to the real bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	if len(b.pending) == 0 {
		return
	}

	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to event bus")

	// Events outlive the transaction, so emit with a background context
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
