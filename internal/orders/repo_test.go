package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	"github.com/sokohub/sokohub-backend/pkg/types"
)

// sqlite has no sequences, so order_number carries a constant default here.
// The assertions below still exercise the same contract as Postgres: the
// INSERT must omit order_number so the database default fires.
func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL DEFAULT 7001,
  tracking_code TEXT NOT NULL,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL DEFAULT 'pesapal',
  shipping_address TEXT,
  items_price NUMERIC NOT NULL,
  shipping_price NUMERIC NOT NULL DEFAULT 0,
  total_price NUMERIC NOT NULL,
  is_paid INTEGER NOT NULL DEFAULT 0,
  paid_at DATETIME,
  tracking_id TEXT,
  timeline TEXT,
  activity_log TEXT,
  notes TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  image_url TEXT
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func newPersistedOrder(t *testing.T, repo Repository) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		TrackingCode:  "SH-" + uuid.NewString()[:10],
		UserID:        uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodPesapal,
		ShippingAddress: types.ShippingAddress{
			Name:    "Jane Wanjiku",
			Address: "12 Moi Avenue",
			City:    "Nairobi",
			Phone:   "+254700000001",
			Email:   "jane@example.com",
		},
		ItemsPrice:    decimal.RequireFromString("31.00"),
		ShippingPrice: decimal.RequireFromString("3.00"),
		TotalPrice:    decimal.RequireFromString("34.00"),
		Timeline:      types.Timeline{{Status: enums.OrderStatusPending}},
		Items: []models.OrderItem{
			{
				ID:        uuid.New(),
				ProductID: uuid.New(),
				Name:      "Ceramic Mug",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("15.50"),
			},
		},
	}
	_, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return order
}

func TestRepositoryCreateAssignsOrderNumberFromDefault(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := newPersistedOrder(t, repo)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7001), reloaded.OrderNumber)
	assert.Equal(t, order.TrackingCode, reloaded.TrackingCode)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "Ceramic Mug", reloaded.Items[0].Name)
}

func TestRepositoryApplyVersionedRejectsStaleVersion(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := newPersistedOrder(t, repo)

	ok, err := repo.ApplyVersioned(context.Background(), order.ID, 0, map[string]any{
		"status": enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	// A writer still holding version 0 lost the race and must not win.
	ok, err = repo.ApplyVersioned(context.Background(), order.ID, 0, map[string]any{
		"status": enums.OrderStatusCancelled,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, reloaded.Status)
	assert.Equal(t, 1, reloaded.Version)
}
