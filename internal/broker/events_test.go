package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"webhook-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestPublisher(w *fakeWriter) *EventPublisher {
	return NewEventPublisher(&Producer{writer: w, logger: zap.NewNop()})
}

func TestPublishOrderPaid(t *testing.T) {
	w := &fakeWriter{}
	ep := newTestPublisher(w)

	err := ep.PublishOrderPaid(context.Background(), &models.OrderPaidEvent{
		BaseEvent:       models.BaseEvent{EventID: "n-1", EventType: models.EventTypeOrderPaid},
		OrderID:         42,
		CustomerID:      7,
		Amount:          models.MustParseMoney("100.50"),
		ProviderEventID: "evt-1",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-42", string(w.msgs[0].Key))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, models.EventTypeOrderPaid, body["event_type"])
	assert.Equal(t, "100.50", body["amount"])
	assert.Equal(t, "evt-1", body["provider_event_id"])
}

func TestPublishDisputeOpened_KeyUsesProviderReference(t *testing.T) {
	w := &fakeWriter{}
	ep := newTestPublisher(w)

	err := ep.PublishDisputeOpened(context.Background(), &models.DisputeOpenedEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeDisputeOpened},
		OrderID:   "ORD-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-ORD-9", string(w.msgs[0].Key))
}

func TestPublishEvent_WriteError(t *testing.T) {
	ep := newTestPublisher(&fakeWriter{err: errors.New("broker down")})

	err := ep.PublishOrderRefunded(context.Background(), &models.OrderRefundedEvent{OrderID: 1})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewProducer_FlushesPromptly(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "payment-notifications")
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.Equal(t, "payment-notifications", w.Topic)
}
