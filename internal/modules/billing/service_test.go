package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gamecafe/internal/domain"
	"gamecafe/internal/pkg/pricing"
)

// Mock repositories
type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) Create(ctx context.Context, b *domain.Bill) error {
	args := m.Called(ctx, b)
	if b != nil {
		b.ID = 77 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockBillRepository) GetByID(ctx context.Context, id int64) (*domain.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *MockBillRepository) Save(ctx context.Context, b *domain.Bill) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	if o != nil {
		o.ID = 501
	}
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByBill(ctx context.Context, billID int64) ([]domain.Order, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) NextNumber(ctx context.Context, billID int64) (int64, error) {
	args := m.Called(ctx, billID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) AttachToBill(ctx context.Context, id, billID, number int64) error {
	args := m.Called(ctx, id, billID, number)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateItems(ctx context.Context, id int64, items []domain.OrderItem) error {
	args := m.Called(ctx, id, items)
	return args.Error(0)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionStore) ListByBill(ctx context.Context, billID int64) ([]domain.Session, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionStore) Save(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

type MockPaymentReader struct {
	mock.Mock
}

func (m *MockPaymentReader) ListPayments(ctx context.Context, billID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentReader) ListPartialPayments(ctx context.Context, billID int64) ([]domain.PartialPayment, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PartialPayment), args.Error(1)
}

type testMocks struct {
	bills    *MockBillRepository
	orders   *MockOrderRepository
	sessions *MockSessionStore
	payments *MockPaymentReader
}

func newTestService() (*Service, *testMocks) {
	m := &testMocks{
		bills:    new(MockBillRepository),
		orders:   new(MockOrderRepository),
		sessions: new(MockSessionStore),
		payments: new(MockPaymentReader),
	}
	svc := NewService(m.bills, m.orders, m.sessions, m.payments, pricing.DefaultConfig(), 0, nil, nil)
	return svc, m
}

func teaOrder(billID int64) domain.Order {
	return domain.Order{
		ID:     501,
		BillID: billID,
		Number: 1,
		Status: domain.OrderPending,
		Items: []domain.OrderItem{
			{Name: "Tea", Price: 10, Quantity: 5},
		},
	}
}

func TestService_RecomputeTotals_ExcludesActiveSession(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillDraft}
	started := time.Now().UTC().Add(-time.Hour)

	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.bills.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Order{teaOrder(77)}, nil)
	m.sessions.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Session{
		{ID: 1, BillID: 77, DeviceType: domain.DevicePlaystation, Status: domain.SessionActive,
			StartTime: started,
			Segments:  []domain.ControllerSegment{{ControllerCount: 1, From: started}}},
	}, nil)
	m.payments.On("ListPayments", mock.Anything, int64(77)).Return([]domain.Payment{}, nil)
	m.payments.On("ListPartialPayments", mock.Anything, int64(77)).Return([]domain.PartialPayment{}, nil)

	got, err := svc.RecomputeTotals(context.Background(), 77)

	assert.NoError(t, err)
	assert.Equal(t, 50.0, got.Total, "a running session must not land in the total")
	assert.Equal(t, 50.0, got.Remaining)
	assert.Equal(t, domain.BillDraft, got.Status)
}

func TestService_RecomputeTotals_FoldsFinalCost(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillDraft}
	cost := 22.0
	ended := time.Now().UTC()

	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.bills.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Order{teaOrder(77)}, nil)
	m.sessions.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Session{
		{ID: 1, BillID: 77, DeviceType: domain.DevicePlaystation, Status: domain.SessionCompleted,
			EndTime: &ended, FinalCost: &cost},
	}, nil)
	m.payments.On("ListPayments", mock.Anything, int64(77)).Return([]domain.Payment{
		{ID: 1, BillID: 77, Amount: 30},
	}, nil)
	m.payments.On("ListPartialPayments", mock.Anything, int64(77)).Return([]domain.PartialPayment{
		{ID: 1, BillID: 77, OrderNumber: 1, Items: []domain.PartialPaymentItem{
			{ItemName: "Tea", Quantity: 2, Price: 10},
		}},
	}, nil)

	got, err := svc.RecomputeTotals(context.Background(), 77)

	assert.NoError(t, err)
	assert.Equal(t, 72.0, got.Subtotal)
	assert.Equal(t, 72.0, got.Total)
	assert.Equal(t, 50.0, got.Paid)
	assert.Equal(t, 22.0, got.Remaining)
	// invariant: remaining == total - paid after every recompute
	assert.Equal(t, got.Total-got.Paid, got.Remaining)
	assert.Equal(t, domain.BillPartial, got.Status)
}

func TestService_RecomputeTotals_PaidWhenSettled(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillPartial}
	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.bills.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Order{teaOrder(77)}, nil)
	m.sessions.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Session{}, nil)
	m.payments.On("ListPayments", mock.Anything, int64(77)).Return([]domain.Payment{
		{ID: 1, BillID: 77, Amount: 50},
	}, nil)
	m.payments.On("ListPartialPayments", mock.Anything, int64(77)).Return([]domain.PartialPayment{}, nil)

	got, err := svc.RecomputeTotals(context.Background(), 77)

	assert.NoError(t, err)
	assert.Equal(t, 0.0, got.Remaining)
	assert.Equal(t, domain.BillPaid, got.Status)
}

func TestService_RecomputeTotals_CancelledStaysCancelled(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillCancelled}
	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.bills.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Order{teaOrder(77)}, nil)
	m.sessions.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Session{}, nil)
	m.payments.On("ListPayments", mock.Anything, int64(77)).Return([]domain.Payment{
		{ID: 1, BillID: 77, Amount: 50},
	}, nil)
	m.payments.On("ListPartialPayments", mock.Anything, int64(77)).Return([]domain.PartialPayment{}, nil)

	got, err := svc.RecomputeTotals(context.Background(), 77)

	assert.NoError(t, err)
	assert.Equal(t, domain.BillCancelled, got.Status)
}

func TestService_AttachSession_Idempotent(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillDraft}
	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.bills.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.sessions.On("GetByID", mock.Anything, int64(999)).Return(&domain.Session{
		ID: 999, BillID: 77, Status: domain.SessionActive, DeviceType: domain.DeviceComputer,
	}, nil)
	m.orders.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Order{}, nil)
	m.sessions.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Session{}, nil)
	m.payments.On("ListPayments", mock.Anything, int64(77)).Return([]domain.Payment{}, nil)
	m.payments.On("ListPartialPayments", mock.Anything, int64(77)).Return([]domain.PartialPayment{}, nil)

	_, err := svc.AttachSession(context.Background(), 77, 999)

	assert.NoError(t, err)
	// already attached: the session row is not rewritten
	m.sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_AttachSession_OtherBillConflict(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillDraft}
	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.sessions.On("GetByID", mock.Anything, int64(999)).Return(&domain.Session{
		ID: 999, BillID: 42, Status: domain.SessionActive, DeviceType: domain.DeviceComputer,
	}, nil)

	_, err := svc.AttachSession(context.Background(), 77, 999)

	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(999), conflict.ID)
}

func TestService_AttachOrder_Idempotent(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillDraft}
	attached := teaOrder(77)
	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.bills.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("GetByID", mock.Anything, int64(501)).Return(&attached, nil)
	m.orders.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Order{attached}, nil)
	m.sessions.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Session{}, nil)
	m.payments.On("ListPayments", mock.Anything, int64(77)).Return([]domain.Payment{}, nil)
	m.payments.On("ListPartialPayments", mock.Anything, int64(77)).Return([]domain.PartialPayment{}, nil)

	got, err := svc.AttachOrder(context.Background(), 77, 501)

	assert.NoError(t, err)
	// the retry changes nothing: no rewrite, no second order, same subtotal
	m.orders.AssertNotCalled(t, "AttachToBill", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 50.0, got.Subtotal)
}

func TestService_AttachOrder_AdoptsDetachedOrder(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillDraft}
	detached := teaOrder(0)
	detached.Number = 0
	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.bills.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("GetByID", mock.Anything, int64(501)).Return(&detached, nil)
	m.orders.On("NextNumber", mock.Anything, int64(77)).Return(int64(2), nil)
	m.orders.On("AttachToBill", mock.Anything, int64(501), int64(77), int64(2)).Return(nil)
	m.orders.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Order{teaOrder(77)}, nil)
	m.sessions.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Session{}, nil)
	m.payments.On("ListPayments", mock.Anything, int64(77)).Return([]domain.Payment{}, nil)
	m.payments.On("ListPartialPayments", mock.Anything, int64(77)).Return([]domain.PartialPayment{}, nil)

	got, err := svc.AttachOrder(context.Background(), 77, 501)

	assert.NoError(t, err)
	m.orders.AssertCalled(t, "AttachToBill", mock.Anything, int64(501), int64(77), int64(2))
	assert.Equal(t, 50.0, got.Subtotal)
}

func TestService_AttachOrder_OtherBillConflict(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillDraft}
	foreign := teaOrder(42)
	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.orders.On("GetByID", mock.Anything, int64(501)).Return(&foreign, nil)

	_, err := svc.AttachOrder(context.Background(), 77, 501)

	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(501), conflict.ID)
	m.orders.AssertNotCalled(t, "AttachToBill", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_AttachOrder_ClosedBillRejected(t *testing.T) {
	svc, m := newTestService()

	m.bills.On("GetByID", mock.Anything, int64(77)).Return(&domain.Bill{ID: 77, Status: domain.BillPaid, Total: 50, Paid: 50}, nil)

	_, err := svc.AttachOrder(context.Background(), 77, 501)

	var invalid *domain.InvalidStateError
	assert.ErrorAs(t, err, &invalid)
	m.orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestService_CreateOrder_Success(t *testing.T) {
	svc, m := newTestService()

	bill := &domain.Bill{ID: 77, Status: domain.BillDraft}
	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.bills.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("NextNumber", mock.Anything, int64(77)).Return(int64(3), nil)
	m.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Order{teaOrder(77)}, nil)
	m.sessions.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Session{}, nil)
	m.payments.On("ListPayments", mock.Anything, int64(77)).Return([]domain.Payment{}, nil)
	m.payments.On("ListPartialPayments", mock.Anything, int64(77)).Return([]domain.PartialPayment{}, nil)

	order, err := svc.CreateOrder(context.Background(), 77, CreateOrderRequest{
		Items: []CreateOrderItem{{Name: "Tea", Price: 10, Quantity: 3}},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(3), order.Number)
	assert.Equal(t, domain.OrderPending, order.Status)
}

func TestService_CreateOrder_OnClosedBill(t *testing.T) {
	svc, m := newTestService()

	m.bills.On("GetByID", mock.Anything, int64(77)).Return(&domain.Bill{ID: 77, Status: domain.BillPaid, Total: 10, Paid: 10}, nil)

	_, err := svc.CreateOrder(context.Background(), 77, CreateOrderRequest{
		Items: []CreateOrderItem{{Name: "Tea", Price: 10, Quantity: 1}},
	})

	var invalid *domain.InvalidStateError
	assert.ErrorAs(t, err, &invalid)
	m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_UpdateOrderStatus_InvalidTransition(t *testing.T) {
	svc, m := newTestService()

	order := teaOrder(77)
	order.Status = domain.OrderDelivered
	m.orders.On("GetByID", mock.Anything, int64(501)).Return(&order, nil)

	_, err := svc.UpdateOrderStatus(context.Background(), 501, domain.OrderPreparing)

	assert.ErrorIs(t, err, ErrStatusTransition)
	m.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_CancelBill_OnlyOpenBills(t *testing.T) {
	svc, m := newTestService()

	m.bills.On("GetByID", mock.Anything, int64(77)).Return(&domain.Bill{ID: 77, Status: domain.BillPaid, Total: 10, Paid: 10}, nil)

	_, err := svc.CancelBill(context.Background(), 77)

	var invalid *domain.InvalidStateError
	assert.ErrorAs(t, err, &invalid)
	m.bills.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_CancelBill_Partial(t *testing.T) {
	svc, m := newTestService()

	m.bills.On("GetByID", mock.Anything, int64(77)).Return(&domain.Bill{ID: 77, Status: domain.BillPartial, Total: 50, Paid: 20, Remaining: 30}, nil)
	m.bills.On("Save", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.CancelBill(context.Background(), 77)

	assert.NoError(t, err)
	assert.Equal(t, domain.BillCancelled, got.Status)
	// payments are not reversed by cancellation
	assert.Equal(t, 20.0, got.Paid)
}

func TestService_GetBillView_OverdueOverlay(t *testing.T) {
	svc, m := newTestService()

	due := time.Now().UTC().Add(-time.Hour)
	bill := &domain.Bill{ID: 77, Status: domain.BillDraft, DueDate: &due}
	m.bills.On("GetByID", mock.Anything, int64(77)).Return(bill, nil)
	m.orders.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Order{teaOrder(77)}, nil)
	m.sessions.On("ListByBill", mock.Anything, int64(77)).Return([]domain.Session{}, nil)
	m.payments.On("ListPayments", mock.Anything, int64(77)).Return([]domain.Payment{}, nil)
	m.payments.On("ListPartialPayments", mock.Anything, int64(77)).Return([]domain.PartialPayment{}, nil)

	view, err := svc.GetBillView(context.Background(), 77)

	assert.NoError(t, err)
	assert.Equal(t, domain.BillOverdue, view.EffectiveStatus)
	// overlay only: the stored status survives the read
	assert.Equal(t, domain.BillDraft, view.Bill.Status)
	// a read never persists
	m.bills.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_CreateBill(t *testing.T) {
	svc, m := newTestService()

	m.bills.On("Create", mock.Anything, mock.Anything).Return(nil)

	bill, err := svc.CreateBill(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(77), bill.ID)
	assert.Equal(t, domain.BillDraft, bill.Status)
}
