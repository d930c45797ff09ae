package worker

import (
	"context"
	"time"

	"invoice-desk/internal/broker"
	"invoice-desk/internal/models"
	"invoice-desk/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Tally is where submitted invoice totals are counted per day
type Tally interface {
	AddToTally(ctx context.Context, day time.Time, eventID string, total decimal.Decimal) (bool, error)
}

// TallyWorker keeps the running daily tally from desk events
type TallyWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	tally        Tally
	location     *time.Location
	logger       *zap.Logger
}

// NewTallyWorker creates a new tally worker. Days are cut in loc.
func NewTallyWorker(consumer *broker.Consumer, tally Tally, loc *time.Location) *TallyWorker {
	if loc == nil {
		loc = time.Local
	}

	w := &TallyWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		tally:        tally,
		location:     loc,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnInvoiceSubmitted(w.HandleInvoiceSubmitted)
	w.eventHandler.OnInvoiceStatusChanged(w.HandleInvoiceStatusChanged)
	return w
}

// HandleInvoiceSubmitted adds the invoice total to its day
func (w *TallyWorker) HandleInvoiceSubmitted(ctx context.Context, event *models.InvoiceSubmittedEvent) error {
	day := event.Timestamp.In(w.location)

	added, err := w.tally.AddToTally(ctx, day, event.EventID, event.Total)
	if err != nil {
		return err
	}
	if !added {
		w.logger.Info("Event already counted", zap.String("event_id", event.EventID))
		return nil
	}

	w.logger.Debug("Tally updated",
		zap.Int64("invoice_id", event.InvoiceID),
		zap.String("day", day.Format("2006-01-02")),
		zap.String("total", event.Total.String()))
	return nil
}

// HandleInvoiceStatusChanged only logs; the tally counts invoices as issued
func (w *TallyWorker) HandleInvoiceStatusChanged(ctx context.Context, event *models.InvoiceStatusChangedEvent) error {
	w.logger.Info("Invoice status changed",
		zap.Int64("invoice_id", event.InvoiceID),
		zap.String("status", string(event.Status)))
	return nil
}

// Start starts the worker
func (w *TallyWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting tally worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *TallyWorker) Stop() error {
	w.logger.Info("Stopping tally worker")
	return w.consumer.Close()
}
