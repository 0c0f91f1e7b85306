package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/mailer"
	"github.com/sokohub/sokohub-backend/pkg/metrics"
	"github.com/sokohub/sokohub-backend/pkg/outbox"
	"github.com/sokohub/sokohub-backend/pkg/sms"
)

type eventSource interface {
	FetchPending(limit int) ([]models.OutboxEvent, error)
	MarkSent(id uuid.UUID) error
	MarkFailed(id uuid.UUID, cause error, maxAttempts int) error
}

// Dispatcher drains the outbox and delivers customer notifications over
// email and SMS.
type Dispatcher struct {
	source  eventSource
	mail    mailer.Sender
	sms     sms.Sender
	cfg     config.OutboxConfig
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewDispatcher builds a dispatcher. The SMS sender is optional; orders
// without a phone number only get email anyway.
func NewDispatcher(source eventSource, mail mailer.Sender, smsSender sms.Sender, cfg config.OutboxConfig, m *metrics.OrderMetrics, logg *logger.Logger) (*Dispatcher, error) {
	if source == nil {
		return nil, fmt.Errorf("event source required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{
		source:  source,
		mail:    mail,
		sms:     smsSender,
		cfg:     cfg,
		metrics: m,
		logg:    logg,
	}, nil
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval())
	defer ticker.Stop()

	d.logg.Info(ctx, "notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logg.Info(ctx, "notification dispatcher stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.ProcessBatch(ctx); err != nil {
				d.logg.Error(ctx, "notification batch failed", err)
			}
		}
	}
}

// ProcessBatch delivers one batch of pending events and reports how many
// were sent.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	events, err := d.source.FetchPending(d.cfg.BatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch pending events")
	}

	sent := 0
	for _, event := range events {
		if err := d.dispatch(ctx, event); err != nil {
			d.logg.Error(ctx, fmt.Sprintf("failed to deliver %s event", event.EventType), err)
			if markErr := d.source.MarkFailed(event.ID, err, d.cfg.MaxAttempts); markErr != nil {
				d.logg.Error(ctx, "failed to record delivery failure", markErr)
			}
			continue
		}
		if err := d.source.MarkSent(event.ID); err != nil {
			d.logg.Error(ctx, "failed to mark event sent", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, event models.OutboxEvent) error {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding event payload")
	}

	msg, err := render(event.EventType, envelope)
	if err != nil {
		return err
	}

	var failures error
	if msg.email != "" {
		err := d.mail.Send(ctx, mailer.Message{
			To:      msg.email,
			Subject: msg.subject,
			Plain:   msg.plain,
			HTML:    msg.html,
		})
		if err != nil {
			failures = multierr.Append(failures, err)
			d.metrics.IncNotification("email", "error")
		} else {
			d.metrics.IncNotification("email", "sent")
		}
	}
	if d.sms != nil && msg.phone != "" && msg.sms != "" {
		err := d.sms.Send(ctx, sms.Message{To: msg.phone, Body: msg.sms})
		if err != nil {
			failures = multierr.Append(failures, err)
			d.metrics.IncNotification("sms", "error")
		} else {
			d.metrics.IncNotification("sms", "sent")
		}
	}
	return failures
}
