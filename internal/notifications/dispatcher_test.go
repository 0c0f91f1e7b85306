package notifications

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sokohub/sokohub-backend/internal/orders"
	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/mailer"
	"github.com/sokohub/sokohub-backend/pkg/outbox"
	"github.com/sokohub/sokohub-backend/pkg/sms"
)

type stubSource struct {
	pending []models.OutboxEvent
	sent    []uuid.UUID
	failed  []uuid.UUID
}

func (s *stubSource) FetchPending(limit int) ([]models.OutboxEvent, error) {
	if limit < len(s.pending) {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *stubSource) MarkSent(id uuid.UUID) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *stubSource) MarkFailed(id uuid.UUID, cause error, maxAttempts int) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubMailer struct {
	messages []mailer.Message
	err      error
}

func (s *stubMailer) Send(ctx context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

type stubSMS struct {
	messages []sms.Message
}

func (s *stubSMS) Send(ctx context.Context, msg sms.Message) error {
	s.messages = append(s.messages, msg)
	return nil
}

func newTestDispatcher(t *testing.T, source *stubSource, mail *stubMailer, smsSender sms.Sender) *Dispatcher {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard})
	cfg := config.OutboxConfig{BatchSize: 50, PollIntervalMS: 500, MaxAttempts: 3}
	d, err := NewDispatcher(source, mail, smsSender, cfg, nil, logg)
	require.NoError(t, err)
	return d
}

func outboxEvent(t *testing.T, eventType enums.OutboxEventType, data any) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    raw,
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
	}
}

func TestProcessBatchDeliversEmailAndSMS(t *testing.T) {
	event := outboxEvent(t, enums.EventOrderCreated, orders.CreatedEvent{
		OrderID:     uuid.New(),
		OrderNumber: 1042,
		TotalPrice:  decimal.RequireFromString("42.00"),
		Email:       "jane@example.com",
		Phone:       "+254700000001",
	})
	source := &stubSource{pending: []models.OutboxEvent{event}}
	mail := &stubMailer{}
	text := &stubSMS{}
	d := newTestDispatcher(t, source, mail, text)

	sent, err := d.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	require.Len(t, mail.messages, 1)
	require.Equal(t, "jane@example.com", mail.messages[0].To)
	require.Equal(t, "Order #1042 received", mail.messages[0].Subject)
	require.Contains(t, mail.messages[0].Plain, "42.00")

	require.Len(t, text.messages, 1)
	require.Equal(t, "+254700000001", text.messages[0].To)
	require.Contains(t, text.messages[0].Body, "Order #1042")

	require.Equal(t, []uuid.UUID{event.ID}, source.sent)
	require.Empty(t, source.failed)
}

func TestProcessBatchPaidEventIsEmailOnly(t *testing.T) {
	event := outboxEvent(t, enums.EventOrderPaid, orders.PaidEvent{
		OrderNumber: 1042,
		TotalPrice:  decimal.RequireFromString("42.00"),
		Email:       "jane@example.com",
	})
	source := &stubSource{pending: []models.OutboxEvent{event}}
	mail := &stubMailer{}
	text := &stubSMS{}
	d := newTestDispatcher(t, source, mail, text)

	_, err := d.ProcessBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, mail.messages, 1)
	require.Equal(t, "Payment received for order #1042", mail.messages[0].Subject)
	require.Empty(t, text.messages)
}

func TestProcessBatchMarksFailures(t *testing.T) {
	event := outboxEvent(t, enums.EventOrderStatusChanged, orders.StatusChangedEvent{
		OrderNumber: 1042,
		To:          enums.OrderStatusShipped,
		Email:       "jane@example.com",
	})
	source := &stubSource{pending: []models.OutboxEvent{event}}
	mail := &stubMailer{err: pkgerrors.New(pkgerrors.CodeDependency, "mail provider rejected request")}
	d := newTestDispatcher(t, source, mail, nil)

	sent, err := d.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, sent)
	require.Equal(t, []uuid.UUID{event.ID}, source.failed)
	require.Empty(t, source.sent)
}

func TestProcessBatchParksUnknownEventType(t *testing.T) {
	event := outboxEvent(t, enums.OutboxEventType("order.archived"), map[string]any{})
	source := &stubSource{pending: []models.OutboxEvent{event}}
	d := newTestDispatcher(t, source, &stubMailer{}, nil)

	sent, err := d.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, sent)
	require.Equal(t, []uuid.UUID{event.ID}, source.failed)
}

func TestRenderCancellation(t *testing.T) {
	data, err := json.Marshal(orders.StatusChangedEvent{
		OrderNumber: 77,
		From:        enums.OrderStatusConfirmed,
		To:          enums.OrderStatusCancelled,
		Email:       "jane@example.com",
		Phone:       "+254700000001",
	})
	require.NoError(t, err)

	msg, err := render(enums.EventOrderCancelled, outbox.PayloadEnvelope{Data: data})
	require.NoError(t, err)
	require.Equal(t, "Order #77 cancelled", msg.subject)
	require.Contains(t, msg.plain, "returned to stock")
	require.Equal(t, "Order #77 cancelled.", msg.sms)
}
