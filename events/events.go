package events

import (
	"context"
	"sync"
	"time"

	"revreport/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the pipeline
type EventType string

const (
	EventTypeLeadsFetched     EventType = "leads_fetched"
	EventTypeReportGenerated  EventType = "report_generated"
	EventTypeReportDelivered  EventType = "report_delivered"
	EventTypeDeliveryFailed   EventType = "delivery_failed"
	EventTypeCRMRequestFailed EventType = "crm_request_failed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// LeadsFetchedEvent is emitted after the CRM fetch completes
type LeadsFetchedEvent struct {
	WindowStart time.Time
	WindowEnd   time.Time
	LeadCount   int
}

func (e LeadsFetchedEvent) Type() EventType {
	return EventTypeLeadsFetched
}

// ReportGeneratedEvent is emitted once the revenue report has been built
type ReportGeneratedEvent struct {
	Report *models.RevenueReport
}

func (e ReportGeneratedEvent) Type() EventType {
	return EventTypeReportGenerated
}

// ReportDeliveredEvent is emitted per channel after its delivery pass
type ReportDeliveredEvent struct {
	Channel string
	Stats   models.DeliveryStats
}

func (e ReportDeliveredEvent) Type() EventType {
	return EventTypeReportDelivered
}

// DeliveryFailedEvent is emitted per recipient that could not be reached
type DeliveryFailedEvent struct {
	Channel   string
	Recipient string
	Err       error
}

func (e DeliveryFailedEvent) Type() EventType {
	return EventTypeDeliveryFailed
}

// CRMRequestFailedEvent is emitted for each failed CRM request attempt
type CRMRequestFailedEvent struct {
	Endpoint   string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e CRMRequestFailedEvent) Type() EventType {
	return EventTypeCRMRequestFailed
}

// Handler is a function that processes an event
type Handler func(ctx context.Context, event Event)

// Publisher is the emit-only view of the bus
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// Bus decouples the report pipeline from its metric and log sinks
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
// synchronously so a one-shot run has recorded everything before it exits.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for _, handler := range handlers {
		handler(ctx, event)
	}
}
