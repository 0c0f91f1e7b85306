package webhooks

import (
	"context"
	"fmt"

	"github.com/sokohub/sokohub-backend/internal/orders"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/metrics"
	"github.com/sokohub/sokohub-backend/pkg/pesapal"
)

type statusLookup interface {
	GetTransactionStatus(ctx context.Context, orderTrackingID string) (*pesapal.TransactionStatus, error)
}

type paymentApplier interface {
	ApplyPaymentUpdate(ctx context.Context, input orders.PaymentUpdateInput) (*orders.PaymentUpdateResult, error)
}

// IPNInput is the notification Pesapal delivers to the callback endpoint.
// The payload carries no payment outcome; the authoritative status is always
// fetched back from the gateway.
type IPNInput struct {
	OrderTrackingID   string `json:"OrderTrackingId"`
	MerchantReference string `json:"OrderMerchantReference"`
	NotificationType  string `json:"OrderNotificationType"`
}

// Outcomes reported for one IPN delivery.
const (
	OutcomeApplied   = "applied"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
)

// Result summarizes how one IPN delivery was handled.
type Result struct {
	Outcome         string              `json:"outcome"`
	OrderTrackingID string              `json:"order_tracking_id"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status,omitempty"`
	Order           *models.Order       `json:"-"`
}

// Service processes payment gateway callbacks.
type Service interface {
	HandleIPN(ctx context.Context, input IPNInput) (*Result, error)
}

type service struct {
	gateway statusLookup
	orders  paymentApplier
	guard   *Guard
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewService builds a webhook service with the required dependencies.
func NewService(gateway statusLookup, applier paymentApplier, guard *Guard, m *metrics.OrderMetrics, logg *logger.Logger) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if applier == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{gateway: gateway, orders: applier, guard: guard, metrics: m, logg: logg}, nil
}

func (s *service) HandleIPN(ctx context.Context, input IPNInput) (*Result, error) {
	if input.OrderTrackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "OrderTrackingId is required")
	}
	if input.MerchantReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "OrderMerchantReference is required")
	}
	if input.NotificationType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "OrderNotificationType is required")
	}
	ctx = s.logg.WithTrackingID(ctx, input.OrderTrackingID)

	acquired, err := s.guard.Acquire(ctx, input.OrderTrackingID)
	if err != nil {
		// Redis being down must not drop payment confirmations; the
		// database CAS still dedupes.
		s.logg.Error(ctx, "idempotency guard unavailable", err)
	} else if !acquired {
		s.metrics.IncWebhookEvent(OutcomeDuplicate)
		s.logg.Info(ctx, "duplicate payment notification suppressed")
		return &Result{Outcome: OutcomeDuplicate, OrderTrackingID: input.OrderTrackingID}, nil
	}

	status, err := s.gateway.GetTransactionStatus(ctx, input.OrderTrackingID)
	if err != nil {
		s.release(ctx, input.OrderTrackingID)
		s.metrics.IncWebhookEvent("gateway_error")
		return nil, err
	}
	normalized := status.NormalizedStatus()

	update, err := s.orders.ApplyPaymentUpdate(ctx, orders.PaymentUpdateInput{
		TrackingID:       input.OrderTrackingID,
		Status:           normalized,
		ConfirmationCode: status.ConfirmationCode,
		Amount:           status.Amount,
	})
	if err != nil {
		s.release(ctx, input.OrderTrackingID)
		s.metrics.IncWebhookEvent("error")
		return nil, err
	}

	outcome := OutcomeIgnored
	if update.Applied {
		outcome = OutcomeApplied
	}
	// Non-final statuses release the claim so the gateway's next delivery
	// for this payment gets processed.
	if normalized != enums.PaymentStatusCompleted && normalized != enums.PaymentStatusFailed {
		s.release(ctx, input.OrderTrackingID)
	}

	s.metrics.IncWebhookEvent(outcome)
	s.logg.Info(ctx, fmt.Sprintf("payment notification %s", outcome))
	return &Result{
		Outcome:         outcome,
		OrderTrackingID: input.OrderTrackingID,
		PaymentStatus:   normalized,
		Order:           update.Order,
	}, nil
}

func (s *service) release(ctx context.Context, trackingID string) {
	if err := s.guard.Release(ctx, trackingID); err != nil {
		s.logg.Error(ctx, "failed to release idempotency claim", err)
	}
}
