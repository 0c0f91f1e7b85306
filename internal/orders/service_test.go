package orders

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/internal/inventory"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/outbox"
	"github.com/sokohub/sokohub-backend/pkg/pagination"
	"github.com/sokohub/sokohub-backend/pkg/types"
)

type stubRepo struct {
	orders     map[uuid.UUID]*models.Order
	byTracking map[string]*models.Order
	products   map[uuid.UUID]models.Product

	created      []*models.Order
	transitions  []map[string]any
	updates      []map[string]any
	transitionAt []int

	failTransition bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		orders:     map[uuid.UUID]*models.Order{},
		byTracking: map[string]*models.Order{},
		products:   map[uuid.UUID]models.Product{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.OrderNumber = int64(1000 + len(s.created))
	s.created = append(s.created, order)
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubRepo) FindByTrackingID(ctx context.Context, trackingID string) (*models.Order, error) {
	order, ok := s.byTracking[trackingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	panic("not implemented")
}

func (s *stubRepo) FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var found []models.Product
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			found = append(found, product)
		}
	}
	return found, nil
}

func (s *stubRepo) ApplyVersioned(ctx context.Context, orderID uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	s.transitions = append(s.transitions, updates)
	s.transitionAt = append(s.transitionAt, expectedVersion)
	if s.failTransition {
		return false, nil
	}
	order, ok := s.orders[orderID]
	if !ok || order.Version != expectedVersion {
		return false, nil
	}
	return true, nil
}

func (s *stubRepo) MarkPaid(ctx context.Context, orderID uuid.UUID, updates map[string]any) (bool, error) {
	order, ok := s.orders[orderID]
	if !ok || order.IsPaid {
		return false, nil
	}
	return true, nil
}

func (s *stubRepo) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.updates = append(s.updates, updates)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubAdjuster struct {
	decremented  [][]inventory.Adjustment
	restored     [][]inventory.Adjustment
	decrementErr error
}

func (s *stubAdjuster) WithTx(tx *gorm.DB) inventory.Adjuster { return s }

func (s *stubAdjuster) Decrement(ctx context.Context, adjustments []inventory.Adjustment) error {
	if s.decrementErr != nil {
		return s.decrementErr
	}
	s.decremented = append(s.decremented, adjustments)
	return nil
}

func (s *stubAdjuster) Restore(ctx context.Context, adjustments []inventory.Adjustment) error {
	s.restored = append(s.restored, adjustments)
	return nil
}

func newTestService(t *testing.T, repo *stubRepo) (Service, *stubOutbox, *stubAdjuster) {
	t.Helper()
	publisher := &stubOutbox{}
	adjuster := &stubAdjuster{}
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(repo, stubTx{}, publisher, adjuster, nil, logg)
	require.NoError(t, err)
	return svc, publisher, adjuster
}

func testAddress() types.ShippingAddress {
	return types.ShippingAddress{
		Name:    "Jane Wanjiku",
		Address: "12 Moi Avenue",
		City:    "Nairobi",
		Phone:   "+254700000001",
		Email:   "jane@example.com",
	}
}

func seedProduct(repo *stubRepo, price string, stock int) models.Product {
	product := models.Product{
		ID:         uuid.New(),
		SKU:        "SKU-" + uuid.NewString()[:8],
		Name:       "Ceramic Mug",
		Price:      decimal.RequireFromString(price),
		StockCount: stock,
		IsActive:   true,
	}
	repo.products[product.ID] = product
	return product
}

func seedOrder(repo *stubRepo, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     2000,
		UserID:          uuid.New(),
		Status:          status,
		PaymentMethod:   enums.PaymentMethodPesapal,
		ShippingAddress: testAddress(),
		TotalPrice:      decimal.RequireFromString("45.00"),
		Timeline:        types.Timeline{{Status: enums.OrderStatusPending}},
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Name: "Ceramic Mug", Quantity: 3},
		},
	}
	repo.orders[order.ID] = order
	return order
}

func requireErrorCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	require.Equal(t, code, appErr.Code())
}

func TestCreateOrder(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, adjuster := newTestService(t, repo)
	mug := seedProduct(repo, "15.50", 10)
	bowl := seedProduct(repo, "8.00", 5)

	order, err := svc.Create(context.Background(), CreateInput{
		UserID: uuid.New(),
		Items: []CreateItemInput{
			{ProductID: mug.ID, Quantity: 2},
			{ProductID: bowl.ID, Quantity: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodPesapal,
		ShippingPrice:   decimal.RequireFromString("3.00"),
		TotalAmount:     decimal.RequireFromString("42.00"),
	})
	require.NoError(t, err)

	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.True(t, strings.HasPrefix(order.TrackingCode, "SH-"), "tracking code %q", order.TrackingCode)
	require.True(t, order.ItemsPrice.Equal(decimal.RequireFromString("39.00")))
	require.True(t, order.TotalPrice.Equal(decimal.RequireFromString("42.00")))
	require.Len(t, order.Items, 2)
	require.True(t, order.Items[0].UnitPrice.Equal(mug.Price))
	require.Len(t, order.Timeline, 1)
	require.Equal(t, enums.OrderStatusPending, order.Timeline[0].Status)

	require.Len(t, adjuster.decremented, 1)
	require.Len(t, adjuster.decremented[0], 2)
	require.Len(t, repo.created, 1)

	require.Len(t, publisher.events, 1)
	require.Equal(t, enums.EventOrderCreated, publisher.events[0].EventType)
	require.Equal(t, order.ID, publisher.events[0].AggregateID)
}

func TestCreateOrderValidation(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	product := seedProduct(repo, "10.00", 10)
	userID := uuid.New()

	base := func() CreateInput {
		return CreateInput{
			UserID:          userID,
			Items:           []CreateItemInput{{ProductID: product.ID, Quantity: 1}},
			ShippingAddress: testAddress(),
			PaymentMethod:   enums.PaymentMethodPesapal,
		}
	}

	cases := []struct {
		name   string
		mutate func(*CreateInput)
		code   pkgerrors.Code
	}{
		{"missing user", func(in *CreateInput) { in.UserID = uuid.Nil }, pkgerrors.CodeUnauthorized},
		{"no items", func(in *CreateInput) { in.Items = nil }, pkgerrors.CodeValidation},
		{"missing email", func(in *CreateInput) { in.ShippingAddress.Email = "" }, pkgerrors.CodeValidation},
		{"bad payment method", func(in *CreateInput) { in.PaymentMethod = "cheque" }, pkgerrors.CodeValidation},
		{"negative shipping", func(in *CreateInput) {
			in.ShippingPrice = decimal.RequireFromString("-1")
		}, pkgerrors.CodeValidation},
		{"zero quantity", func(in *CreateInput) { in.Items[0].Quantity = 0 }, pkgerrors.CodeValidation},
		{"duplicate product", func(in *CreateInput) {
			in.Items = append(in.Items, CreateItemInput{ProductID: product.ID, Quantity: 2})
		}, pkgerrors.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			requireErrorCode(t, err, tc.code)
		})
	}
}

func TestCreateOrderTotalMismatch(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, adjuster := newTestService(t, repo)
	product := seedProduct(repo, "15.50", 10)

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:          uuid.New(),
		Items:           []CreateItemInput{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodPesapal,
		ShippingPrice:   decimal.RequireFromString("3.00"),
		TotalAmount:     decimal.RequireFromString("20.00"),
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
	require.Empty(t, repo.created)
	require.Empty(t, adjuster.decremented)
	require.Empty(t, publisher.events)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:          uuid.New(),
		Items:           []CreateItemInput{{ProductID: uuid.New(), Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodPesapal,
	})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
	require.Empty(t, publisher.events)
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	product := seedProduct(repo, "10.00", 10)
	product.IsActive = false
	repo.products[product.ID] = product

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:          uuid.New(),
		Items:           []CreateItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodPesapal,
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, adjuster := newTestService(t, repo)
	product := seedProduct(repo, "10.00", 1)
	adjuster.decrementErr = pkgerrors.New(pkgerrors.CodeValidation, `insufficient stock for product "Ceramic Mug"`)

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:          uuid.New(),
		Items:           []CreateItemInput{{ProductID: product.ID, Quantity: 5}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodPesapal,
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
	require.Empty(t, repo.created)
	require.Empty(t, publisher.events)
}

func TestUpdateStatusTransition(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)
	actor := uuid.New()

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:     order.ID,
		Target:      enums.OrderStatusConfirmed,
		ActorUserID: actor,
		ActorRole:   enums.UserRoleAdmin,
		Note:        "payment received by phone",
	})
	require.NoError(t, err)

	require.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	require.Equal(t, 1, updated.Version)
	require.Len(t, updated.Timeline, 2)
	require.Equal(t, "payment received by phone", updated.Timeline[1].Note)

	require.Len(t, repo.transitions, 1)
	require.Equal(t, 0, repo.transitionAt[0])
	require.Equal(t, enums.OrderStatusConfirmed, repo.transitions[0]["status"])

	require.Len(t, publisher.events, 1)
	require.Equal(t, enums.EventOrderStatusChanged, publisher.events[0].EventType)
}

func TestUpdateStatusNoOp(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusConfirmed)

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Target:  enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	require.Empty(t, repo.transitions)
	require.Empty(t, publisher.events)
}

func TestUpdateStatusTerminalOrder(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusDelivered)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Target:  enums.OrderStatusShipped,
	})
	requireErrorCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateStatusIllegalTransition(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Target:  enums.OrderStatusShipped,
	})
	requireErrorCode(t, err, pkgerrors.CodeStateConflict)
	require.Empty(t, repo.transitions)
}

func TestUpdateStatusConcurrentConflict(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)
	repo.failTransition = true

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Target:  enums.OrderStatusConfirmed,
	})
	requireErrorCode(t, err, pkgerrors.CodeConflict)
	require.Empty(t, publisher.events)
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: uuid.New(),
		Target:  enums.OrderStatusConfirmed,
	})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, adjuster := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusConfirmed)

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:     order.ID,
		Target:      enums.OrderStatusCancelled,
		ActorUserID: order.UserID,
		ActorRole:   enums.UserRoleCustomer,
	})
	require.NoError(t, err)

	require.Equal(t, enums.OrderStatusCancelled, updated.Status)
	require.NotNil(t, updated.CancelledAt)

	require.Len(t, adjuster.restored, 1)
	require.Equal(t, order.Items[0].ProductID, adjuster.restored[0][0].ProductID)
	require.Equal(t, order.Items[0].Quantity, adjuster.restored[0][0].Quantity)

	require.Len(t, publisher.events, 1)
	require.Equal(t, enums.EventOrderCancelled, publisher.events[0].EventType)
}

func TestBulkUpdateStatus(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	pending := seedOrder(repo, enums.OrderStatusPending)
	confirmed := seedOrder(repo, enums.OrderStatusConfirmed)
	missing := uuid.New()

	result, err := svc.BulkUpdateStatus(context.Background(), BulkUpdateInput{
		OrderIDs:    []uuid.UUID{pending.ID, confirmed.ID, missing},
		Target:      enums.OrderStatusConfirmed,
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleAdmin,
	})
	require.NoError(t, err)

	require.Equal(t, 2, result.MatchedCount)
	require.Equal(t, 1, result.ModifiedCount)
	require.Len(t, result.Failures, 1)
	require.Equal(t, missing, result.Failures[0].OrderID)
}

func TestBulkUpdateStatusValidation(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.BulkUpdateStatus(context.Background(), BulkUpdateInput{Target: enums.OrderStatusConfirmed})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.BulkUpdateStatus(context.Background(), BulkUpdateInput{
		OrderIDs: []uuid.UUID{uuid.New()},
		Target:   "misplaced",
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestApplyPaymentUpdateCompleted(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)
	repo.byTracking["track-1"] = order

	result, err := svc.ApplyPaymentUpdate(context.Background(), PaymentUpdateInput{
		TrackingID:       "track-1",
		Status:           enums.PaymentStatusCompleted,
		ConfirmationCode: "CONF123",
		Amount:           order.TotalPrice,
	})
	require.NoError(t, err)

	require.True(t, result.Applied)
	require.True(t, result.Order.IsPaid)
	require.NotNil(t, result.Order.PaidAt)
	require.Equal(t, enums.OrderStatusConfirmed, result.Order.Status)
	require.Equal(t, "payment confirmed", result.Order.Timeline[len(result.Order.Timeline)-1].Note)

	require.Len(t, publisher.events, 1)
	require.Equal(t, enums.EventOrderPaid, publisher.events[0].EventType)
}

func TestApplyPaymentUpdateDuplicateCallback(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusConfirmed)
	order.IsPaid = true
	repo.byTracking["track-1"] = order

	result, err := svc.ApplyPaymentUpdate(context.Background(), PaymentUpdateInput{
		TrackingID: "track-1",
		Status:     enums.PaymentStatusCompleted,
	})
	require.NoError(t, err)
	require.False(t, result.Applied)
	require.Empty(t, publisher.events)
}

func TestApplyPaymentUpdateFailedCancelsOrder(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, adjuster := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)
	repo.byTracking["track-1"] = order

	result, err := svc.ApplyPaymentUpdate(context.Background(), PaymentUpdateInput{
		TrackingID: "track-1",
		Status:     enums.PaymentStatusFailed,
	})
	require.NoError(t, err)

	require.True(t, result.Applied)
	require.Equal(t, enums.OrderStatusCancelled, result.Order.Status)
	require.False(t, result.Order.IsPaid)
	require.NotNil(t, result.Order.CancelledAt)

	require.Len(t, adjuster.restored, 1)
	require.Equal(t, order.Items[0].ProductID, adjuster.restored[0][0].ProductID)
	require.Equal(t, 3, adjuster.restored[0][0].Quantity)

	require.Len(t, publisher.events, 1)
	require.Equal(t, enums.EventOrderCancelled, publisher.events[0].EventType)
}

func TestApplyPaymentUpdateFailedAfterSettlement(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, adjuster := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusConfirmed)
	order.IsPaid = true
	repo.byTracking["track-1"] = order

	result, err := svc.ApplyPaymentUpdate(context.Background(), PaymentUpdateInput{
		TrackingID: "track-1",
		Status:     enums.PaymentStatusFailed,
	})
	require.NoError(t, err)

	require.False(t, result.Applied)
	require.Equal(t, enums.OrderStatusConfirmed, result.Order.Status)
	require.True(t, result.Order.IsPaid)
	require.Len(t, repo.transitions, 1)
	require.Contains(t, repo.transitions[0], "activity_log")
	require.NotContains(t, repo.transitions[0], "status")
	require.Equal(t, 0, repo.transitionAt[0])
	require.Empty(t, adjuster.restored)
	require.Empty(t, publisher.events)
}

func TestApplyPaymentUpdatePendingIsNoOp(t *testing.T) {
	repo := newStubRepo()
	svc, publisher, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)
	repo.byTracking["track-1"] = order

	result, err := svc.ApplyPaymentUpdate(context.Background(), PaymentUpdateInput{
		TrackingID: "track-1",
		Status:     enums.PaymentStatusPending,
	})
	require.NoError(t, err)
	require.False(t, result.Applied)
	require.Empty(t, repo.updates)
	require.Empty(t, publisher.events)
}

func TestApplyPaymentUpdateUnknownTracking(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.ApplyPaymentUpdate(context.Background(), PaymentUpdateInput{
		TrackingID: "nope",
		Status:     enums.PaymentStatusCompleted,
	})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestAddNote(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)

	err := svc.AddNote(context.Background(), AddNoteInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
		Content:     "customer asked for gift wrapping",
	})
	require.NoError(t, err)

	require.Len(t, repo.transitions, 1)
	require.Contains(t, repo.transitions[0], "notes")
	require.Contains(t, repo.transitions[0], "activity_log")
	require.Contains(t, repo.transitions[0]["notes"], "gift wrapping")
	require.Equal(t, 0, repo.transitionAt[0])
}

func TestAddNoteConcurrentConflict(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)
	repo.failTransition = true

	err := svc.AddNote(context.Background(), AddNoteInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
		Content:     "customer asked for gift wrapping",
	})
	requireErrorCode(t, err, pkgerrors.CodeConflict)
}

func TestAddNoteValidation(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)

	err := svc.AddNote(context.Background(), AddNoteInput{OrderID: order.ID})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	err = svc.AddNote(context.Background(), AddNoteInput{Content: "orphan note"})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestHistory(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)

	history, err := svc.History(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, history.OrderID)
	require.Equal(t, order.OrderNumber, history.OrderNumber)
	require.Len(t, history.Timeline, 1)

	_, err = svc.History(context.Background(), uuid.New())
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestAttachTracking(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)
	order := seedOrder(repo, enums.OrderStatusPending)

	require.NoError(t, svc.AttachTracking(context.Background(), order.ID, "track-9"))
	require.Len(t, repo.updates, 1)
	require.Equal(t, "track-9", repo.updates[0]["tracking_id"])

	err := svc.AttachTracking(context.Background(), order.ID, "")
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}
