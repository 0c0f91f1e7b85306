package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	"github.com/sokohub/sokohub-backend/pkg/types"
)

// CreateItemInput is one requested order line. Prices are never taken from
// the client; they are resolved from the catalog at creation time.
type CreateItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateInput captures everything needed to place an order.
type CreateInput struct {
	UserID          uuid.UUID             `json:"-"`
	Items           []CreateItemInput     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method" validate:"required"`
	ShippingPrice   decimal.Decimal       `json:"shipping_price"`
	// TotalAmount is the total the client displayed at checkout. When set,
	// it must match the server-computed total or the order is rejected.
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// UpdateStatusInput captures a single status transition request.
type UpdateStatusInput struct {
	OrderID     uuid.UUID
	Target      enums.OrderStatus
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
	Note        string
}

// BulkUpdateInput applies one target status across many orders.
type BulkUpdateInput struct {
	OrderIDs    []uuid.UUID
	Target      enums.OrderStatus
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// BulkFailure describes one order that could not be updated.
type BulkFailure struct {
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// BulkUpdateResult summarizes a bulk status update. ModifiedCount excludes
// orders already in the target status.
type BulkUpdateResult struct {
	MatchedCount  int           `json:"matched_count"`
	ModifiedCount int           `json:"modified_count"`
	Failures      []BulkFailure `json:"failures,omitempty"`
}

// AddNoteInput appends a free-form note to an order.
type AddNoteInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	Content     string
}

// PaymentUpdateInput is the normalized result of a gateway status lookup.
type PaymentUpdateInput struct {
	TrackingID       string
	Status           enums.PaymentStatus
	ConfirmationCode string
	Amount           decimal.Decimal
}

// PaymentUpdateResult reports whether the callback changed order state.
type PaymentUpdateResult struct {
	Order   *models.Order
	Applied bool
}

// ListFilters describe the inputs supported by the user orders list.
type ListFilters struct {
	Status *enums.OrderStatus
	IsPaid *bool
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// History is the full audit view of one order.
type History struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber int64             `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	Timeline    types.Timeline    `json:"timeline"`
	ActivityLog types.ActivityLog `json:"activity_log"`
	Notes       types.OrderNotes  `json:"notes"`
}

// StatusChangedEvent is emitted when an order moves between statuses.
type StatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber int64             `json:"order_number"`
	UserID      uuid.UUID         `json:"user_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
}

// CreatedEvent is emitted when an order is placed.
type CreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber int64           `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
}

// PaidEvent is emitted when a payment is confirmed.
type PaidEvent struct {
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      int64           `json:"order_number"`
	UserID           uuid.UUID       `json:"user_id"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	ConfirmationCode string          `json:"confirmation_code,omitempty"`
	Email            string          `json:"email"`
}
