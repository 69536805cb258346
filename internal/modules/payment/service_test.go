package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wellness/internal/database/dbtest"
	"wellness/internal/domain"
	"wellness/internal/notification"
	"wellness/internal/pkg/gateway"
	"wellness/internal/repository"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) KeyID() string    { return "rzp_test_key" }
func (m *MockGateway) Currency() string { return "INR" }

func (m *MockGateway) CreateOrder(ctx context.Context, amountMinor int64, notes map[string]string) (*gateway.Order, error) {
	args := m.Called(ctx, amountMinor, notes)
	if o := args.Get(0); o != nil {
		return o.(*gateway.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

type recordingNotifier struct {
	events []notification.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev notification.Event) {
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) types() []string {
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

var (
	customer  = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
	stranger  = domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}
	owner     = domain.Actor{ID: "owner-1", Role: domain.RoleBusiness}
	therapist = domain.Actor{ID: "ther-1", Role: domain.RoleTherapist}
	admin     = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

type fixture struct {
	store    *repository.Store
	svc      *Service
	gw       *MockGateway
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewStore(dbtest.New(t))

	require.NoError(t, store.Catalog.CreateBusiness(ctx, &domain.Business{ID: "biz-1", OwnerID: owner.ID, Name: "Calm Spa", OpenTime: "09:00", CloseTime: "21:00"}))
	require.NoError(t, store.Catalog.CreateService(ctx, &domain.Service{ID: "svc-1", BusinessID: "biz-1", Name: "Deep tissue", DurationMinutes: 60, Price: 1000}))

	gw := &MockGateway{}
	n := &recordingNotifier{}
	svc := NewService(store, gw, n, nil, 50)
	svc.now = func() time.Time { return time.Date(2030, 1, 10, 8, 0, 0, 0, time.UTC) }
	return &fixture{store: store, svc: svc, gw: gw, notifier: n}
}

func (f *fixture) booking(t *testing.T, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	b := domain.NewBooking(domain.NewBookingParams{
		CustomerID:      customer.ID,
		TherapistID:     domain.StringPtr(therapist.ID),
		ServiceID:       "svc-1",
		BusinessID:      "biz-1",
		Date:            "2030-01-12",
		Time:            "10:00",
		DurationMinutes: 60,
		ServicePrice:    1000,
		StartsAt:        time.Date(2030, 1, 12, 10, 0, 0, 0, time.UTC),
	}, time.Date(2030, 1, 10, 7, 0, 0, 0, time.UTC))
	b.Status = status
	require.NoError(t, f.store.Bookings.Create(context.Background(), b))
	return b
}

func (f *fixture) reload(t *testing.T, id string) *domain.Booking {
	t.Helper()
	b, err := f.store.Bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) expectOrder(id string, minor int64) {
	f.gw.On("CreateOrder", mock.Anything, minor, mock.Anything).
		Return(&gateway.Order{ID: id, Amount: minor, Currency: "INR", Receipt: "rcpt_" + id}, nil).Once()
}

func TestSplitAdvance(t *testing.T) {
	cases := []struct {
		total, advance, remaining int64
	}{
		{1000, 500, 500},
		{999, 500, 499},
		{1, 1, 0},
		{0, 0, 0},
	}
	for _, tc := range cases {
		advance, remaining := SplitAdvance(tc.total, 50)
		assert.Equal(t, tc.advance, advance, "total %d", tc.total)
		assert.Equal(t, tc.remaining, remaining, "total %d", tc.total)
		assert.Equal(t, tc.total, advance+remaining)
	}
}

func TestGatewayAdvanceFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingPending)
	f.expectOrder("order_1", 50000)

	order, err := f.svc.RecordGatewayOrder(ctx, b.ID, customer, 1000, false)
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.OrderID)
	assert.Equal(t, int64(500), order.AdvanceAmount)
	assert.Equal(t, int64(500), order.RemainingAmount)
	assert.Equal(t, int64(50000), order.GatewayAmount)
	assert.Equal(t, domain.PaymentTypeAdvance, order.PaymentType)
	assert.Equal(t, "rzp_test_key", order.KeyID)

	assert.Equal(t, domain.BookingPending, f.reload(t, b.ID).Status)

	f.gw.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
	p, got, err := f.svc.VerifyGatewayPayment(ctx, customer, VerifyRequest{
		BookingID: b.ID, OrderID: "order_1", PaymentID: "pay_1", Signature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordCompleted, p.Status)
	assert.Equal(t, int64(500), p.AdvancePaid)
	assert.Equal(t, int64(500), p.RemainingAmount)
	assert.NotNil(t, p.PaidAt)
	assert.Equal(t, domain.BookingPaid, got.Status)
	assert.Equal(t, domain.PaymentPartial, got.PaymentStatus)

	stored := f.reload(t, b.ID)
	assert.Equal(t, domain.BookingPaid, stored.Status)
	assert.Equal(t, domain.PaymentPartial, stored.PaymentStatus)
	assert.Equal(t, int64(3), stored.Version, "pending -> confirmed -> paid is two writes")
	require.NoError(t, stored.CheckInvariants())

	assert.Equal(t, []string{notification.TypePaymentCompleted}, f.notifier.types())
	f.gw.AssertExpectations(t)
}

func TestVerifyGatewayPayment_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingConfirmed)
	f.expectOrder("order_1", 50000)
	f.gw.On("VerifySignature", "order_1", "pay_1", "sig").Return(true).Once()

	_, err := f.svc.RecordGatewayOrder(ctx, b.ID, customer, 0, false)
	require.NoError(t, err)

	req := VerifyRequest{BookingID: b.ID, OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}
	_, first, err := f.svc.VerifyGatewayPayment(ctx, customer, req)
	require.NoError(t, err)

	p, second, err := f.svc.VerifyGatewayPayment(ctx, customer, req)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordCompleted, p.Status)
	assert.Equal(t, first.Version, second.Version)

	_, _, err = f.svc.VerifyGatewayPayment(ctx, customer, VerifyRequest{
		BookingID: b.ID, OrderID: "order_1", PaymentID: "pay_other", Signature: "sig",
	})
	assert.ErrorIs(t, err, domain.ErrPaymentVerificationFailed)

	rows, err := f.store.Payments.ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestVerifyGatewayPayment_BadSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingPending)
	f.expectOrder("order_1", 50000)
	f.gw.On("VerifySignature", "order_1", "pay_1", "forged").Return(false)

	_, err := f.svc.RecordGatewayOrder(ctx, b.ID, customer, 1000, false)
	require.NoError(t, err)

	_, _, err = f.svc.VerifyGatewayPayment(ctx, customer, VerifyRequest{
		BookingID: b.ID, OrderID: "order_1", PaymentID: "pay_1", Signature: "forged",
	})
	require.ErrorIs(t, err, domain.ErrPaymentVerificationFailed)

	stored := f.reload(t, b.ID)
	assert.Equal(t, domain.BookingPending, stored.Status)
	assert.Equal(t, domain.PaymentPending, stored.PaymentStatus)
	assert.Equal(t, int64(1), stored.Version)

	rows, err := f.store.Payments.ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.PaymentRecordFailed, rows[0].Status)
	assert.Equal(t, "signature mismatch", rows[0].FailureReason)

	_, _, err = f.svc.VerifyGatewayPayment(ctx, customer, VerifyRequest{
		BookingID: b.ID, OrderID: "order_1", PaymentID: "pay_1", Signature: "forged",
	})
	assert.ErrorIs(t, err, domain.ErrPaymentVerificationFailed)
	assert.Equal(t, []string{notification.TypePaymentFailed}, f.notifier.types())
}

func TestRecordGatewayOrder_Full(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingConfirmed)
	f.expectOrder("order_full", 100000)
	f.gw.On("VerifySignature", "order_full", "pay_1", "sig").Return(true)

	order, err := f.svc.RecordGatewayOrder(ctx, b.ID, customer, 1000, true)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentTypeFull, order.PaymentType)
	assert.Equal(t, int64(1000), order.Amount)
	assert.Zero(t, order.RemainingAmount)

	_, got, err := f.svc.VerifyGatewayPayment(ctx, customer, VerifyRequest{
		BookingID: b.ID, OrderID: "order_full", PaymentID: "pay_1", Signature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPaid, got.Status)
	assert.Equal(t, domain.PaymentCompleted, got.PaymentStatus)

	_, err = f.svc.RecordGatewayOrder(ctx, b.ID, customer, 1000, false)
	assert.ErrorIs(t, err, domain.ErrAlreadyCompleted)
}

// Once an advance is verified, any further order is for the balance only.
func TestRecordGatewayOrder_BalanceAfterAdvance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingPending)

	f.expectOrder("order_adv", 50000)
	_, err := f.svc.RecordGatewayOrder(ctx, b.ID, customer, 1000, false)
	require.NoError(t, err)
	f.gw.On("VerifySignature", "order_adv", "pay_adv", "sig").Return(true)
	_, _, err = f.svc.VerifyGatewayPayment(ctx, customer, VerifyRequest{BookingID: b.ID, OrderID: "order_adv", PaymentID: "pay_adv", Signature: "sig"})
	require.NoError(t, err)

	f.expectOrder("order_bal", 50000)
	order, err := f.svc.RecordGatewayOrder(ctx, b.ID, customer, 1000, true)
	require.NoError(t, err)
	assert.Equal(t, int64(500), order.Amount)
	assert.Equal(t, int64(50000), order.GatewayAmount)
	assert.Zero(t, order.RemainingAmount)
	assert.Equal(t, domain.PaymentTypeFull, order.PaymentType)

	f.gw.On("VerifySignature", "order_bal", "pay_bal", "sig").Return(true)
	p, got, err := f.svc.VerifyGatewayPayment(ctx, customer, VerifyRequest{BookingID: b.ID, OrderID: "order_bal", PaymentID: "pay_bal", Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, int64(500), p.AdvancePaid)
	assert.Zero(t, p.RemainingAmount)
	assert.Equal(t, domain.BookingPaid, got.Status)
	assert.Equal(t, domain.PaymentCompleted, got.PaymentStatus)

	payments, err := f.svc.ListForBooking(ctx, b.ID, customer)
	require.NoError(t, err)
	var collected int64
	for _, pay := range payments {
		if pay.Status == domain.PaymentRecordCompleted {
			collected += pay.AdvancePaid
		}
	}
	assert.Equal(t, int64(1000), collected, "customer pays the price once")

	_, err = f.svc.RecordGatewayOrder(ctx, b.ID, customer, 1000, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyCompleted)
	f.gw.AssertExpectations(t)
}

func TestRecordGatewayOrder_AdvanceOrderAfterAdvanceIsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingPending)

	f.expectOrder("order_adv", 50000)
	_, err := f.svc.RecordGatewayOrder(ctx, b.ID, customer, 0, false)
	require.NoError(t, err)
	f.gw.On("VerifySignature", "order_adv", "pay_adv", "sig").Return(true)
	_, _, err = f.svc.VerifyGatewayPayment(ctx, customer, VerifyRequest{BookingID: b.ID, OrderID: "order_adv", PaymentID: "pay_adv", Signature: "sig"})
	require.NoError(t, err)

	_, err = f.svc.RecordGatewayOrder(ctx, b.ID, customer, 400, true)
	assert.ErrorIs(t, err, domain.ErrValidation, "total below what is already paid")

	f.expectOrder("order_bal", 50000)
	order, err := f.svc.RecordGatewayOrder(ctx, b.ID, customer, 0, false)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentTypeFull, order.PaymentType)
	assert.Equal(t, int64(500), order.Amount)
	f.gw.AssertExpectations(t)
}

func TestRecordGatewayOrder_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.booking(t, domain.BookingPending)
	cancelled := f.booking(t, domain.BookingCancelled)

	_, err := f.svc.RecordGatewayOrder(ctx, open.ID, stranger, 1000, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.RecordGatewayOrder(ctx, cancelled.ID, customer, 1000, false)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.svc.RecordGatewayOrder(ctx, "missing", customer, 1000, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	noKeys := NewService(f.store, gateway.NewRazorpay(gateway.Config{}), nil, nil, 50)
	_, err = noKeys.RecordGatewayOrder(ctx, open.ID, customer, 1000, false)
	assert.ErrorIs(t, err, domain.ErrConfig)

	f.gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCashPaymentFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingPending)

	p, got, err := f.svc.RecordCashPayment(ctx, b.ID, customer, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodCash, p.Method)
	assert.Equal(t, domain.PaymentRecordPending, p.Status)
	assert.Equal(t, int64(1000), p.Amount)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
	require.NotNil(t, got.ConfirmedBy)
	assert.Equal(t, customer.ID, *got.ConfirmedBy)
	assert.NotNil(t, got.ConfirmedAt)
	assert.Equal(t, domain.PaymentPending, got.PaymentStatus)

	_, _, err = f.svc.ConfirmCashPayment(ctx, p.ID, therapist)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	confirmed, settled, err := f.svc.ConfirmCashPayment(ctx, p.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordCompleted, confirmed.Status)
	assert.Zero(t, confirmed.RemainingAmount)
	assert.Equal(t, domain.BookingPaid, settled.Status)
	assert.Equal(t, domain.PaymentCompleted, settled.PaymentStatus)

	_, _, err = f.svc.ConfirmCashPayment(ctx, p.ID, owner)
	assert.ErrorIs(t, err, domain.ErrAlreadyCompleted)

	assert.Equal(t, []string{notification.TypePaymentRecorded, notification.TypePaymentCompleted}, f.notifier.types())
}

func TestRecordCashPayment_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingPending)
	done := f.booking(t, domain.BookingCancelled)

	_, _, err := f.svc.RecordCashPayment(ctx, "missing", customer, 100)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = f.svc.RecordCashPayment(ctx, b.ID, stranger, 100)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = f.svc.RecordCashPayment(ctx, b.ID, owner, 100)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = f.svc.RecordCashPayment(ctx, done.ID, customer, 100)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, _, err = f.svc.RecordCashPayment(ctx, b.ID, customer, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, domain.BookingPending, f.reload(t, b.ID).Status)
}

func TestRefundPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingPending)

	p, _, err := f.svc.RecordCashPayment(ctx, b.ID, customer, 0)
	require.NoError(t, err)

	_, err = f.svc.RefundPayment(ctx, p.ID, admin, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "booking still open")

	require.NoError(t, f.store.DB().Model(&domain.Booking{}).Where("id = ?", b.ID).
		Update("status", domain.BookingCancelled).Error)

	_, err = f.svc.RefundPayment(ctx, p.ID, admin, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "pending payments cannot be refunded")

	require.NoError(t, f.store.DB().Model(&domain.Payment{}).Where("id = ?", p.ID).
		Update("status", domain.PaymentRecordCompleted).Error)

	_, err = f.svc.RefundPayment(ctx, p.ID, owner, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	refunded, err := f.svc.RefundPayment(ctx, p.ID, admin, "customer cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordRefunded, refunded.Status)
	assert.Equal(t, "customer cancelled", refunded.RefundReason)
	assert.NotNil(t, refunded.RefundedAt)

	_, err = f.svc.RefundPayment(ctx, p.ID, admin, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestListForBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, domain.BookingPending)
	_, _, err := f.svc.RecordCashPayment(ctx, b.ID, customer, 0)
	require.NoError(t, err)

	rows, err := f.svc.ListForBooking(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = f.svc.ListForBooking(ctx, b.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
