package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sokohub/sokohub-backend/pkg/enums"
	"github.com/sokohub/sokohub-backend/pkg/types"
)

// Order is the buyer-facing order record carrying payment and fulfillment state.
//
// Version is bumped on every status write; writers compare-and-swap on it so
// concurrent transitions resolve to exactly one winner. OrderNumber is
// assigned by the database sequence; the default tag keeps gorm from writing
// an explicit zero over it.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber     int64                 `gorm:"column:order_number;not null;uniqueIndex;default:nextval('order_number_seq')" json:"order_number"`
	TrackingCode    string                `gorm:"column:tracking_code;not null" json:"tracking_code"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null;default:'pesapal'" json:"payment_method"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address"`
	ItemsPrice      decimal.Decimal       `gorm:"column:items_price;type:numeric(12,2);not null" json:"items_price"`
	ShippingPrice   decimal.Decimal       `gorm:"column:shipping_price;type:numeric(12,2);not null;default:0" json:"shipping_price"`
	TotalPrice      decimal.Decimal       `gorm:"column:total_price;type:numeric(12,2);not null" json:"total_price"`
	IsPaid          bool                  `gorm:"column:is_paid;not null;default:false" json:"is_paid"`
	PaidAt          *time.Time            `gorm:"column:paid_at" json:"paid_at,omitempty"`
	TrackingID      *string               `gorm:"column:tracking_id;index" json:"tracking_id,omitempty"`
	Timeline        types.Timeline        `gorm:"column:timeline;type:jsonb;serializer:json" json:"timeline"`
	ActivityLog     types.ActivityLog     `gorm:"column:activity_log;type:jsonb;serializer:json" json:"activity_log"`
	Notes           types.OrderNotes      `gorm:"column:notes;type:jsonb;serializer:json" json:"notes"`
	Version         int                   `gorm:"column:version;not null;default:0" json:"-"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	DeliveredAt     *time.Time            `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CancelledAt     *time.Time            `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
