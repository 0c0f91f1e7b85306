package notifications

import (
	"encoding/json"
	"fmt"

	"github.com/sokohub/sokohub-backend/internal/orders"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/outbox"
)

// message is a fully rendered notification for one recipient.
type message struct {
	email   string
	phone   string
	subject string
	plain   string
	html    string
	sms     string
}

// render turns an outbox payload into customer-facing copy. Unknown event
// types are an error so the dispatcher parks them instead of retrying
// forever.
func render(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (*message, error) {
	switch eventType {
	case enums.EventOrderCreated:
		var event orders.CreatedEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding order created payload")
		}
		return &message{
			email:   event.Email,
			phone:   event.Phone,
			subject: fmt.Sprintf("Order #%d received", event.OrderNumber),
			plain: fmt.Sprintf("Thank you for your order #%d. Total: %s. We will confirm it shortly.",
				event.OrderNumber, event.TotalPrice.StringFixed(2)),
			html: fmt.Sprintf("<p>Thank you for your order <strong>#%d</strong>.</p><p>Total: %s</p><p>We will confirm it shortly.</p>",
				event.OrderNumber, event.TotalPrice.StringFixed(2)),
			sms: fmt.Sprintf("Order #%d received. Total %s.", event.OrderNumber, event.TotalPrice.StringFixed(2)),
		}, nil

	case enums.EventOrderPaid:
		var event orders.PaidEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding order paid payload")
		}
		return &message{
			email:   event.Email,
			subject: fmt.Sprintf("Payment received for order #%d", event.OrderNumber),
			plain: fmt.Sprintf("We received your payment of %s for order #%d. Your order is confirmed.",
				event.TotalPrice.StringFixed(2), event.OrderNumber),
			html: fmt.Sprintf("<p>We received your payment of %s for order <strong>#%d</strong>.</p><p>Your order is confirmed.</p>",
				event.TotalPrice.StringFixed(2), event.OrderNumber),
		}, nil

	case enums.EventOrderStatusChanged:
		var event orders.StatusChangedEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding status changed payload")
		}
		return &message{
			email:   event.Email,
			phone:   event.Phone,
			subject: fmt.Sprintf("Order #%d update: %s", event.OrderNumber, event.To),
			plain: fmt.Sprintf("Your order #%d is now %s.",
				event.OrderNumber, event.To),
			html: fmt.Sprintf("<p>Your order <strong>#%d</strong> is now %s.</p>",
				event.OrderNumber, event.To),
			sms: fmt.Sprintf("Order #%d is now %s.", event.OrderNumber, event.To),
		}, nil

	case enums.EventOrderCancelled:
		var event orders.StatusChangedEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding cancellation payload")
		}
		return &message{
			email:   event.Email,
			phone:   event.Phone,
			subject: fmt.Sprintf("Order #%d cancelled", event.OrderNumber),
			plain: fmt.Sprintf("Your order #%d has been cancelled. Any reserved items were returned to stock.",
				event.OrderNumber),
			html: fmt.Sprintf("<p>Your order <strong>#%d</strong> has been cancelled.</p>",
				event.OrderNumber),
			sms: fmt.Sprintf("Order #%d cancelled.", event.OrderNumber),
		}, nil

	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("no notification template for event type %q", eventType))
	}
}
