package inventory

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db/models"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("SOKOHUB_DB_DSN")
	if dsn == "" {
		t.Skip("SOKOHUB_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:        "SKU-" + uuid.NewString(),
		Name:       "Test Product",
		Price:      decimal.NewFromInt(100),
		StockCount: stock,
		IsActive:   true,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestDecrementAndRestore(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	product := mustCreateTestProduct(t, tx, 10)

	adjuster, err := NewAdjuster(tx)
	if err != nil {
		t.Fatalf("new adjuster: %v", err)
	}

	ctx := context.Background()
	if err := adjuster.Decrement(ctx, []Adjustment{{ProductID: product.ID, Quantity: 4}}); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	var got models.Product
	if err := tx.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if got.StockCount != 6 {
		t.Fatalf("expected stock 6, got %d", got.StockCount)
	}

	if err := adjuster.Restore(ctx, []Adjustment{{ProductID: product.ID, Quantity: 4}}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := tx.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if got.StockCount != 10 {
		t.Fatalf("expected stock 10, got %d", got.StockCount)
	}
}

func TestDecrementInsufficientStock(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	product := mustCreateTestProduct(t, tx, 2)

	adjuster, err := NewAdjuster(tx)
	if err != nil {
		t.Fatalf("new adjuster: %v", err)
	}

	err = adjuster.Decrement(context.Background(), []Adjustment{{ProductID: product.ID, Quantity: 3}})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	var got models.Product
	if err := tx.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if got.StockCount != 2 {
		t.Fatalf("stock must be untouched on failure, got %d", got.StockCount)
	}
}

func TestDecrementUnknownProduct(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	adjuster, err := NewAdjuster(tx)
	if err != nil {
		t.Fatalf("new adjuster: %v", err)
	}

	err = adjuster.Decrement(context.Background(), []Adjustment{{ProductID: uuid.New(), Quantity: 1}})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestValidateAdjustments(t *testing.T) {
	adjuster := &gormAdjuster{conn: &gorm.DB{}}

	cases := []struct {
		name        string
		adjustments []Adjustment
	}{
		{name: "empty", adjustments: nil},
		{name: "nil product", adjustments: []Adjustment{{Quantity: 1}}},
		{name: "zero quantity", adjustments: []Adjustment{{ProductID: uuid.New(), Quantity: 0}}},
		{name: "negative quantity", adjustments: []Adjustment{{ProductID: uuid.New(), Quantity: -2}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := adjuster.Decrement(context.Background(), tc.adjustments)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
