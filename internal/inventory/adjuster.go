package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db/models"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
)

// Adjustment is one product quantity delta.
type Adjustment struct {
	ProductID uuid.UUID
	Quantity  int
}

// Adjuster applies stock deltas atomically per product row.
type Adjuster interface {
	// Decrement reserves stock for each adjustment, failing the whole batch
	// when any product lacks sufficient stock.
	Decrement(ctx context.Context, adjustments []Adjustment) error
	// Restore returns previously reserved stock to each product.
	Restore(ctx context.Context, adjustments []Adjustment) error
	// WithTx rebinds the adjuster onto an open transaction.
	WithTx(tx *gorm.DB) Adjuster
}

type gormAdjuster struct {
	conn *gorm.DB
}

// NewAdjuster wires an Adjuster over the given connection.
func NewAdjuster(conn *gorm.DB) (Adjuster, error) {
	if conn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory db connection required")
	}
	return &gormAdjuster{conn: conn}, nil
}

func (a *gormAdjuster) WithTx(tx *gorm.DB) Adjuster {
	if tx == nil {
		return a
	}
	return &gormAdjuster{conn: tx}
}

func (a *gormAdjuster) Decrement(ctx context.Context, adjustments []Adjustment) error {
	if err := validateAdjustments(adjustments); err != nil {
		return err
	}

	for _, adj := range adjustments {
		// Single conditional UPDATE; the WHERE guard makes oversell impossible
		// even under concurrent checkouts.
		result := a.conn.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock_count >= ?", adj.ProductID, adj.Quantity).
			UpdateColumn("stock_count", gorm.Expr("stock_count - ?", adj.Quantity))
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "decrementing stock")
		}
		if result.RowsAffected == 0 {
			return a.classifyMiss(ctx, adj)
		}
	}
	return nil
}

func (a *gormAdjuster) Restore(ctx context.Context, adjustments []Adjustment) error {
	if err := validateAdjustments(adjustments); err != nil {
		return err
	}

	for _, adj := range adjustments {
		result := a.conn.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", adj.ProductID).
			UpdateColumn("stock_count", gorm.Expr("stock_count + ?", adj.Quantity))
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "restoring stock")
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s not found", adj.ProductID))
		}
	}
	return nil
}

// classifyMiss distinguishes a missing product from insufficient stock.
func (a *gormAdjuster) classifyMiss(ctx context.Context, adj Adjustment) error {
	var product models.Product
	err := a.conn.WithContext(ctx).
		Select("id", "name", "stock_count").
		First(&product, "id = ?", adj.ProductID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("product %s not found", adj.ProductID))
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("insufficient stock for product %q", product.Name)).
		WithDetails(map[string]any{
			"product_id": adj.ProductID,
			"requested":  adj.Quantity,
			"available":  product.StockCount,
		})
}

func validateAdjustments(adjustments []Adjustment) error {
	if len(adjustments) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one adjustment is required")
	}
	for _, adj := range adjustments {
		if adj.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if adj.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}
	return nil
}
