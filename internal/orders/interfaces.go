package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByTrackingID(ctx context.Context, trackingID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	// ApplyVersioned performs a compare-and-swap write against the order's
	// version column; it reports false when the expected version no longer
	// matches. Every write touching timeline, activity_log or notes goes
	// through it so concurrent writers cannot clobber each other's entries.
	ApplyVersioned(ctx context.Context, orderID uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	// MarkPaid flips is_paid exactly once; it reports false when the order
	// was already paid.
	MarkPaid(ctx context.Context, orderID uuid.UUID, updates map[string]any) (bool, error)
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
