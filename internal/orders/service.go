package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/internal/inventory"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/metrics"
	"github.com/sokohub/sokohub-backend/pkg/outbox"
	"github.com/sokohub/sokohub-backend/pkg/pagination"
	"github.com/sokohub/sokohub-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	BulkUpdateStatus(ctx context.Context, input BulkUpdateInput) (*BulkUpdateResult, error)
	ApplyPaymentUpdate(ctx context.Context, input PaymentUpdateInput) (*PaymentUpdateResult, error)
	AddNote(ctx context.Context, input AddNoteInput) error
	History(ctx context.Context, orderID uuid.UUID) (*History, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	AttachTracking(ctx context.Context, orderID uuid.UUID, trackingID string) error
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory inventory.Adjuster
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, adjuster inventory.Adjuster, m *metrics.OrderMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if adjuster == nil {
		return nil, fmt.Errorf("inventory adjuster required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    publisher,
		inventory: adjuster,
		metrics:   m,
		logg:      logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if field := input.ShippingAddress.Validate(); field != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("shipping address %s is required", field))
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.ShippingPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping price cannot be negative")
	}

	quantities := make(map[uuid.UUID]int, len(input.Items))
	adjustments := make([]inventory.Adjustment, 0, len(input.Items))
	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if _, dup := quantities[item.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order")
		}
		quantities[item.ProductID] = item.Quantity
		adjustments = append(adjustments, inventory.Adjustment{ProductID: item.ProductID, Quantity: item.Quantity})
		ids = append(ids, item.ProductID)
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		products, err := repo.FindProducts(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		byID := make(map[uuid.UUID]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		itemsPrice := decimal.Zero
		for id, qty := range quantities {
			product, ok := byID[id]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id))
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("product %q is not available", product.Name))
			}
			itemsPrice = itemsPrice.Add(product.Price.Mul(decimal.NewFromInt(int64(qty))))
		}
		totalPrice := itemsPrice.Add(input.ShippingPrice)

		// Prices come from the catalog; the client's total is only a
		// cross-check against stale carts and tampering.
		if !input.TotalAmount.IsZero() && !input.TotalAmount.Equal(totalPrice) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("order total mismatch: expected %s, got %s", totalPrice, input.TotalAmount)).
				WithDetails(map[string]any{"expected": totalPrice, "submitted": input.TotalAmount})
		}

		// Stock is reserved at creation; the conditional UPDATE inside
		// Decrement rejects the whole order on any shortfall.
		if err := s.inventory.WithTx(tx).Decrement(ctx, adjustments); err != nil {
			return err
		}

		now := time.Now().UTC()
		order := &models.Order{
			ID:              uuid.New(),
			TrackingCode:    newTrackingCode(),
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			PaymentMethod:   input.PaymentMethod,
			ShippingAddress: input.ShippingAddress,
			ItemsPrice:      itemsPrice,
			ShippingPrice:   input.ShippingPrice,
			TotalPrice:      totalPrice,
			Timeline: types.Timeline{{
				Status:    enums.OrderStatusPending,
				ChangedAt: now,
			}},
			ActivityLog: types.ActivityLog{{
				Action:    "order.created",
				Actor:     input.UserID,
				Message:   "order placed",
				CreatedAt: now,
			}},
		}
		for _, item := range input.Items {
			product := byID[item.ProductID]
			order.Items = append(order.Items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
				ImageURL:  product.ImageURL,
			})
		}

		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		created = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:   enums.EventOrderCreated,
			AggregateID: order.ID,
			Version:     1,
			Actor:       &outbox.ActorRef{UserID: input.UserID, Role: enums.UserRoleCustomer.String()},
			Data: CreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				TotalPrice:  order.TotalPrice,
				Email:       order.ShippingAddress.Email,
				Phone:       order.ShippingAddress.Phone,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, created.ID.String())
	s.logg.Info(ctx, "order created")
	return created, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	order, _, err := s.updateStatus(ctx, input)
	return order, err
}

// updateStatus reports changed=false when the order was already in the
// target status.
func (s *service) updateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, bool, error) {
	if input.OrderID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid order status %q", input.Target))
	}

	var updated *models.Order
	var from enums.OrderStatus
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		from = order.Status

		if order.Status == input.Target {
			updated = order
			return nil
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order is %s and accepts no further transitions", order.Status)).
				WithDetails(map[string]any{"current": order.Status, "requested": input.Target})
		}
		if !CanTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, input.Target)).
				WithDetails(map[string]any{"current": order.Status, "requested": input.Target})
		}

		now := time.Now().UTC()
		timeline := order.Timeline.Append(types.TimelineEntry{
			Status:    input.Target,
			ChangedAt: now,
			Note:      input.Note,
		})
		activity := order.ActivityLog.Append(types.ActivityEntry{
			Action:    "order.status_changed",
			Actor:     input.ActorUserID,
			Message:   fmt.Sprintf("status changed from %s to %s", order.Status, input.Target),
			CreatedAt: now,
		})

		updates, err := transitionUpdates(input.Target, timeline, activity, now)
		if err != nil {
			return err
		}

		if input.Target == enums.OrderStatusCancelled {
			adjustments := make([]inventory.Adjustment, 0, len(order.Items))
			for _, item := range order.Items {
				adjustments = append(adjustments, inventory.Adjustment{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
				})
			}
			if len(adjustments) > 0 {
				if err := s.inventory.WithTx(tx).Restore(ctx, adjustments); err != nil {
					return err
				}
			}
		}

		ok, err := repo.ApplyVersioned(ctx, order.ID, order.Version, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply transition")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}

		order.Status = input.Target
		order.Timeline = timeline
		order.ActivityLog = activity
		order.Version++
		switch input.Target {
		case enums.OrderStatusDelivered:
			order.DeliveredAt = &now
		case enums.OrderStatusCancelled:
			order.CancelledAt = &now
		}
		updated = order

		eventType := enums.EventOrderStatusChanged
		if input.Target == enums.OrderStatusCancelled {
			eventType = enums.EventOrderCancelled
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:   eventType,
			AggregateID: order.ID,
			Version:     1,
			Actor:       &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()},
			Data: StatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				From:        from,
				To:          input.Target,
				Email:       order.ShippingAddress.Email,
				Phone:       order.ShippingAddress.Phone,
			},
		})
	})
	if txErr != nil {
		return nil, false, txErr
	}

	changed := from != input.Target
	if changed {
		s.metrics.IncTransition(from.String(), input.Target.String())
	}
	return updated, changed, nil
}

func (s *service) BulkUpdateStatus(ctx context.Context, input BulkUpdateInput) (*BulkUpdateResult, error) {
	if len(input.OrderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order id is required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid order status %q", input.Target))
	}

	result := &BulkUpdateResult{}
	var failures error
	for _, orderID := range input.OrderIDs {
		_, changed, err := s.updateStatus(ctx, UpdateStatusInput{
			OrderID:     orderID,
			Target:      input.Target,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
		})
		if err != nil {
			result.Failures = append(result.Failures, BulkFailure{OrderID: orderID, Reason: err.Error()})
			failures = multierr.Append(failures, err)
			continue
		}
		result.MatchedCount++
		// An order already in the target status matches but is not modified.
		if changed {
			result.ModifiedCount++
		}
	}

	if failures != nil {
		s.logg.Error(ctx, "bulk status update completed with failures", failures)
	}
	return result, nil
}

func (s *service) ApplyPaymentUpdate(ctx context.Context, input PaymentUpdateInput) (*PaymentUpdateResult, error) {
	if input.TrackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id required")
	}

	result := &PaymentUpdateResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByTrackingID(ctx, input.TrackingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no order for tracking id")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		result.Order = order

		switch input.Status {
		case enums.PaymentStatusCompleted:
			return s.confirmPayment(ctx, tx, repo, order, input, result)
		case enums.PaymentStatusFailed:
			return s.recordPaymentFailure(ctx, tx, repo, order, result)
		default:
			// Pending and invalid callbacks change nothing.
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) confirmPayment(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, input PaymentUpdateInput, result *PaymentUpdateResult) error {
	now := time.Now().UTC()

	// The is_paid guard makes duplicate callbacks no-ops.
	paid, err := repo.MarkPaid(ctx, order.ID, map[string]any{"paid_at": now})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if !paid {
		return nil
	}
	order.IsPaid = true
	order.PaidAt = &now
	result.Applied = true

	if order.Status == enums.OrderStatusPending {
		timeline := order.Timeline.Append(types.TimelineEntry{
			Status:    enums.OrderStatusConfirmed,
			ChangedAt: now,
			Note:      "payment confirmed",
		})
		activity := order.ActivityLog.Append(types.ActivityEntry{
			Action:    "payment.confirmed",
			Actor:     order.UserID,
			Message:   fmt.Sprintf("payment confirmed (%s)", input.ConfirmationCode),
			CreatedAt: now,
		})
		updates, err := transitionUpdates(enums.OrderStatusConfirmed, timeline, activity, now)
		if err != nil {
			return err
		}
		ok, err := repo.ApplyVersioned(ctx, order.ID, order.Version, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if ok {
			order.Status = enums.OrderStatusConfirmed
			order.Timeline = timeline
			order.ActivityLog = activity
			order.Version++
			s.metrics.IncTransition(enums.OrderStatusPending.String(), enums.OrderStatusConfirmed.String())
		} else {
			// Payment stands even when a concurrent transition won the race.
			s.logg.Warn(ctx, "order transitioned concurrently during payment confirmation")
		}
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:   enums.EventOrderPaid,
		AggregateID: order.ID,
		Version:     1,
		Data: PaidEvent{
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			UserID:           order.UserID,
			TotalPrice:       order.TotalPrice,
			ConfirmationCode: input.ConfirmationCode,
			Email:            order.ShippingAddress.Email,
		},
	})
}

// recordPaymentFailure cancels the order and returns its items to stock. A
// failed callback for an order that already settled, or that has reached a
// terminal status, only records the attempt.
func (s *service) recordPaymentFailure(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, result *PaymentUpdateResult) error {
	now := time.Now().UTC()

	if order.IsPaid || order.Status.IsTerminal() {
		activity := order.ActivityLog.Append(types.ActivityEntry{
			Action:    "payment.failed",
			Actor:     order.UserID,
			Message:   "payment attempt failed",
			CreatedAt: now,
		})
		activityJSON, err := json.Marshal(activity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding activity log")
		}
		ok, err := repo.ApplyVersioned(ctx, order.ID, order.Version, map[string]any{
			"activity_log": string(activityJSON),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment failure")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}
		return nil
	}

	from := order.Status
	timeline := order.Timeline.Append(types.TimelineEntry{
		Status:    enums.OrderStatusCancelled,
		ChangedAt: now,
		Note:      "payment failed",
	})
	activity := order.ActivityLog.Append(types.ActivityEntry{
		Action:    "payment.failed",
		Actor:     order.UserID,
		Message:   "payment failed, order cancelled",
		CreatedAt: now,
	})
	updates, err := transitionUpdates(enums.OrderStatusCancelled, timeline, activity, now)
	if err != nil {
		return err
	}

	adjustments := make([]inventory.Adjustment, 0, len(order.Items))
	for _, item := range order.Items {
		adjustments = append(adjustments, inventory.Adjustment{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	if len(adjustments) > 0 {
		if err := s.inventory.WithTx(tx).Restore(ctx, adjustments); err != nil {
			return err
		}
	}

	ok, err := repo.ApplyVersioned(ctx, order.ID, order.Version, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}

	order.Status = enums.OrderStatusCancelled
	order.Timeline = timeline
	order.ActivityLog = activity
	order.Version++
	order.CancelledAt = &now
	result.Applied = true
	s.metrics.IncTransition(from.String(), enums.OrderStatusCancelled.String())

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:   enums.EventOrderCancelled,
		AggregateID: order.ID,
		Version:     1,
		Data: StatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			From:        from,
			To:          enums.OrderStatusCancelled,
			Email:       order.ShippingAddress.Email,
			Phone:       order.ShippingAddress.Phone,
		},
	})
}

func (s *service) AddNote(ctx context.Context, input AddNoteInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Content == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "note content required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		now := time.Now().UTC()
		notes := append(order.Notes, types.OrderNote{
			Author:    input.ActorUserID,
			Content:   input.Content,
			CreatedAt: now,
		})
		activity := order.ActivityLog.Append(types.ActivityEntry{
			Action:    "order.note_added",
			Actor:     input.ActorUserID,
			Message:   "note added",
			CreatedAt: now,
		})

		notesJSON, err := json.Marshal(notes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding notes")
		}
		activityJSON, err := json.Marshal(activity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding activity log")
		}
		ok, err := repo.ApplyVersioned(ctx, order.ID, order.Version, map[string]any{
			"notes":        string(notesJSON),
			"activity_log": string(activityJSON),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append note")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}
		return nil
	})
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) (*History, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &History{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Timeline:    order.Timeline,
		ActivityLog: order.ActivityLog,
		Notes:       order.Notes,
	}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByUser(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) AttachTracking(ctx context.Context, orderID uuid.UUID, trackingID string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if trackingID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tracking id required")
	}
	if err := s.repo.Update(ctx, orderID, map[string]any{"tracking_id": trackingID}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach tracking id")
	}
	return nil
}

// newTrackingCode mints the customer-facing code returned at checkout.
func newTrackingCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "SH-" + raw[:10]
}

// transitionUpdates builds the column map for one status write. Timeline and
// activity are marshaled here because CAS updates go through a column map,
// not the model serializer.
func transitionUpdates(target enums.OrderStatus, timeline types.Timeline, activity types.ActivityLog, now time.Time) (map[string]any, error) {
	timelineJSON, err := json.Marshal(timeline)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding timeline")
	}
	activityJSON, err := json.Marshal(activity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding activity log")
	}
	updates := map[string]any{
		"status":       target,
		"timeline":     string(timelineJSON),
		"activity_log": string(activityJSON),
	}
	switch target {
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}
	return updates, nil
}
