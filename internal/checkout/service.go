package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/sokohub/sokohub-backend/internal/orders"
	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/pesapal"
)

type gateway interface {
	SubmitOrder(ctx context.Context, params pesapal.SubmitOrderParams) (*pesapal.OrderSubmission, error)
}

// Session is the result of starting a hosted checkout: the placed order plus
// the gateway redirect the customer completes payment on.
type Session struct {
	Order       *models.Order `json:"order"`
	TrackingID  string        `json:"tracking_id"`
	RedirectURL string        `json:"redirect_url"`
}

// Service places an order and opens a payment session for it.
type Service interface {
	Start(ctx context.Context, input orders.CreateInput) (*Session, error)
}

type service struct {
	orders  orders.Service
	gateway gateway
	cfg     config.PesapalConfig
	logg    *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(ordersSvc orders.Service, gw gateway, cfg config.PesapalConfig, logg *logger.Logger) (Service, error) {
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if cfg.CallbackURL == "" {
		return nil, fmt.Errorf("pesapal callback url required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{orders: ordersSvc, gateway: gw, cfg: cfg, logg: logg}, nil
}

// Start places the order first so stock is reserved, then submits it to the
// gateway. A gateway failure cancels the fresh order, which releases the
// reserved stock again.
func (s *service) Start(ctx context.Context, input orders.CreateInput) (*Session, error) {
	order, err := s.orders.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	submission, err := s.gateway.SubmitOrder(ctx, s.submitParams(order))
	if err != nil {
		s.rollback(ctx, order)
		return nil, err
	}

	if err := s.orders.AttachTracking(ctx, order.ID, submission.OrderTrackingID); err != nil {
		s.rollback(ctx, order)
		return nil, err
	}
	trackingID := submission.OrderTrackingID
	order.TrackingID = &trackingID

	ctx = s.logg.WithTrackingID(ctx, trackingID)
	s.logg.Info(ctx, "checkout session created")

	return &Session{
		Order:       order,
		TrackingID:  trackingID,
		RedirectURL: submission.RedirectURL,
	}, nil
}

func (s *service) submitParams(order *models.Order) pesapal.SubmitOrderParams {
	first, last := splitName(order.ShippingAddress.Name)
	// Notification ids are only attached in the live environment; sandbox
	// submissions run without one.
	notificationID := ""
	if s.cfg.IsLive() {
		notificationID = s.cfg.IPNID
	}
	return pesapal.SubmitOrderParams{
		MerchantReference: order.ID.String(),
		Currency:          s.cfg.Currency,
		Amount:            order.TotalPrice,
		Description:       fmt.Sprintf("Order #%d", order.OrderNumber),
		CallbackURL:       s.cfg.CallbackURL,
		NotificationID:    notificationID,
		BillingAddress: pesapal.BillingAddress{
			EmailAddress: order.ShippingAddress.Email,
			PhoneNumber:  order.ShippingAddress.Phone,
			FirstName:    first,
			LastName:     last,
			Line1:        order.ShippingAddress.Address,
			City:         order.ShippingAddress.City,
		},
	}
}

// rollback cancels an order whose payment session never opened. The order is
// seconds old and still pending, so a cancellation failure here means
// something is badly wrong with the database; it is logged and swallowed so
// the gateway error reaches the caller.
func (s *service) rollback(ctx context.Context, order *models.Order) {
	_, err := s.orders.UpdateStatus(ctx, orders.UpdateStatusInput{
		OrderID:     order.ID,
		Target:      enums.OrderStatusCancelled,
		ActorUserID: order.UserID,
		ActorRole:   enums.UserRoleCustomer,
		Note:        "payment session could not be created",
	})
	if err != nil {
		s.logg.Error(ctx, "failed to cancel order after checkout failure",
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order"))
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
