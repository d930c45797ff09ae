package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"invoice-desk/internal/models"
	"invoice-desk/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing desk events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishInvoiceSubmitted publishes InvoiceSubmitted event
func (ep *EventPublisher) PublishInvoiceSubmitted(ctx context.Context, event *models.InvoiceSubmittedEvent) error {
	key := fmt.Sprintf("invoice-%d", event.InvoiceID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishInvoiceFailed publishes InvoiceFailed event, keyed by session
func (ep *EventPublisher) PublishInvoiceFailed(ctx context.Context, event *models.InvoiceFailedEvent) error {
	key := fmt.Sprintf("session-%s", event.SessionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishInvoiceStatusChanged publishes InvoiceStatusChanged event
func (ep *EventPublisher) PublishInvoiceStatusChanged(ctx context.Context, event *models.InvoiceStatusChangedEvent) error {
	key := fmt.Sprintf("invoice-%d", event.InvoiceID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onInvoiceSubmitted     func(context.Context, *models.InvoiceSubmittedEvent) error
	onInvoiceStatusChanged func(context.Context, *models.InvoiceStatusChangedEvent) error
	logger                 *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnInvoiceSubmitted registers a handler for InvoiceSubmitted events
func (eh *EventHandler) OnInvoiceSubmitted(handler func(context.Context, *models.InvoiceSubmittedEvent) error) {
	eh.onInvoiceSubmitted = handler
}

// OnInvoiceStatusChanged registers a handler for InvoiceStatusChanged events
func (eh *EventHandler) OnInvoiceStatusChanged(handler func(context.Context, *models.InvoiceStatusChangedEvent) error) {
	eh.onInvoiceStatusChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeInvoiceSubmitted:
		if eh.onInvoiceSubmitted != nil {
			var event models.InvoiceSubmittedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal InvoiceSubmitted event: %w", err)
			}
			return eh.onInvoiceSubmitted(ctx, &event)
		}

	case models.EventTypeInvoiceStatusChanged:
		if eh.onInvoiceStatusChanged != nil {
			var event models.InvoiceStatusChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal InvoiceStatusChanged event: %w", err)
			}
			return eh.onInvoiceStatusChanged(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
