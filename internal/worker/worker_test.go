package worker

import (
	"context"
	"testing"
	"time"

	"invoice-desk/internal/models"
	"invoice-desk/internal/redisclient"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWorker(t *testing.T) (*TallyWorker, *redisclient.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	client := redisclient.NewFromRedis(rdb)
	return NewTallyWorker(nil, client, time.UTC), client
}

func TestHandleInvoiceSubmitted_CountsOnce(t *testing.T) {
	w, client := setupWorker(t)
	ctx := context.Background()
	ts := time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)

	event := &models.InvoiceSubmittedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-1", EventType: models.EventTypeInvoiceSubmitted, Timestamp: ts},
		InvoiceID: 31,
		Total:     decimal.RequireFromString("206"),
	}

	require.NoError(t, w.HandleInvoiceSubmitted(ctx, event))
	require.NoError(t, w.HandleInvoiceSubmitted(ctx, event))

	count, total, err := client.GetTally(ctx, ts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "206.00", total.StringFixed(2))
}

func TestHandleMessage_FromKafkaPayload(t *testing.T) {
	w, client := setupWorker(t)
	ctx := context.Background()

	payload := []byte(`{"event_id":"evt-9","event_type":"INVOICE_SUBMITTED","timestamp":"2026-10-16T09:00:00Z","invoice_id":4,"total":"99.95"}`)
	require.NoError(t, w.eventHandler.HandleMessage(ctx, kafka.Message{Value: payload}))

	count, total, err := client.GetTally(ctx, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "99.95", total.StringFixed(2))
}
