package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wellness/internal/database/dbtest"
	"wellness/internal/domain"
	"wellness/internal/notification"
	"wellness/internal/repository"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, ev notification.Event) {
	m.Called(ctx, ev)
}

var (
	customer      = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
	otherCustomer = domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}
	owner         = domain.Actor{ID: "owner-1", Role: domain.RoleBusiness}
	otherOwner    = domain.Actor{ID: "owner-2", Role: domain.RoleBusiness}
	therapist     = domain.Actor{ID: "ther-1", Role: domain.RoleTherapist}
	therapist2    = domain.Actor{ID: "ther-2", Role: domain.RoleTherapist}
	admin         = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

// 2030-01-10 08:00 UTC; bookings below default to two days later.
var baseNow = time.Date(2030, 1, 10, 8, 0, 0, 0, time.UTC)

const (
	bookingDate = "2030-01-12"
	bookingTime = "10:00"
)

type fixture struct {
	store    *repository.Store
	svc      *Service
	notifier *MockNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewStore(dbtest.New(t))

	require.NoError(t, store.Catalog.CreateBusiness(ctx, &domain.Business{ID: "biz-1", OwnerID: owner.ID, Name: "Calm Spa", OpenTime: "09:00", CloseTime: "21:00", BreakMinutes: 15}))
	require.NoError(t, store.Catalog.CreateBusiness(ctx, &domain.Business{ID: "biz-2", OwnerID: otherOwner.ID, Name: "Other Spa", OpenTime: "09:00", CloseTime: "21:00"}))
	require.NoError(t, store.Catalog.CreateService(ctx, &domain.Service{ID: "svc-1", BusinessID: "biz-1", Name: "Deep tissue", DurationMinutes: 60, Price: 1000}))
	require.NoError(t, store.Catalog.CreateService(ctx, &domain.Service{ID: "svc-2", BusinessID: "biz-2", Name: "Reflexology", DurationMinutes: 30, Price: 500}))
	require.NoError(t, store.Catalog.CreateTherapist(ctx, &domain.Therapist{ID: therapist.ID, BusinessID: "biz-1", Name: "Asha"}))
	require.NoError(t, store.Catalog.CreateTherapist(ctx, &domain.Therapist{ID: therapist2.ID, BusinessID: "biz-1", Name: "Ravi"}))
	require.NoError(t, store.Catalog.CreateTherapist(ctx, &domain.Therapist{ID: "ther-x", BusinessID: "biz-2", Name: "Elsewhere"}))

	n := &MockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything).Return()

	f := &fixture{store: store, notifier: n, now: baseNow}
	f.svc = NewService(store, n, nil, DefaultConfig())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) create(t *testing.T, actor domain.Actor, req CreateBookingRequest) *domain.Booking {
	t.Helper()
	if req.ServiceID == "" {
		req.ServiceID = "svc-1"
	}
	if req.Date == "" {
		req.Date = bookingDate
	}
	if req.Time == "" {
		req.Time = bookingTime
	}
	b, err := f.svc.CreateBooking(context.Background(), actor, req)
	require.NoError(t, err)
	return b
}

func (f *fixture) reload(t *testing.T, id string) *domain.Booking {
	t.Helper()
	b, err := f.store.Bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) assigned(t *testing.T) *domain.Booking {
	return f.create(t, owner, CreateBookingRequest{CustomerID: customer.ID, TherapistID: therapist.ID})
}

func TestCreateBooking_CustomerBooksForThemselves(t *testing.T) {
	f := newFixture(t)

	b := f.create(t, customer, CreateBookingRequest{CustomerID: "someone-else"})

	assert.Equal(t, customer.ID, b.CustomerID)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, domain.PaymentPending, b.PaymentStatus)
	assert.Equal(t, "biz-1", b.BusinessID)
	assert.Equal(t, int64(1000), b.ServicePrice)
	assert.Equal(t, 60, b.DurationMinutes)
	assert.False(t, b.AssignedByAdmin)
	assert.False(t, b.ResponseVisibleToBusinessOnly)
	assert.Equal(t, time.Date(2030, 1, 12, 10, 0, 0, 0, time.UTC), b.StartsAt)

	stored := f.reload(t, b.ID)
	assert.Equal(t, int64(1), stored.Version)
}

func TestCreateBooking_AssignedByAdminOnlyForBusinessOrAdmin(t *testing.T) {
	f := newFixture(t)

	byCustomer := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID})
	assert.False(t, byCustomer.AssignedByAdmin)

	byOwner := f.create(t, owner, CreateBookingRequest{CustomerID: customer.ID, TherapistID: therapist2.ID})
	assert.True(t, byOwner.AssignedByAdmin)

	byAdminNoTherapist := f.create(t, admin, CreateBookingRequest{CustomerID: customer.ID, Time: "12:00"})
	assert.False(t, byAdminNoTherapist.AssignedByAdmin)
}

func TestCreateBooking_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		actor domain.Actor
		req   CreateBookingRequest
		want  error
	}{
		{"past start", customer, CreateBookingRequest{ServiceID: "svc-1", Date: "2030-01-09", Time: "10:00"}, domain.ErrValidation},
		{"bad date", customer, CreateBookingRequest{ServiceID: "svc-1", Date: "12/01/2030", Time: "10:00"}, domain.ErrValidation},
		{"outside hours", customer, CreateBookingRequest{ServiceID: "svc-1", Date: bookingDate, Time: "20:30"}, domain.ErrValidation},
		{"unknown service", customer, CreateBookingRequest{ServiceID: "nope", Date: bookingDate, Time: "10:00"}, domain.ErrNotFound},
		{"unknown therapist", customer, CreateBookingRequest{ServiceID: "svc-1", TherapistID: "nobody", Date: bookingDate, Time: "10:00"}, domain.ErrNotFound},
		{"foreign therapist", customer, CreateBookingRequest{ServiceID: "svc-1", TherapistID: "ther-x", Date: bookingDate, Time: "10:00"}, domain.ErrForbidden},
		{"other owner's service", otherOwner, CreateBookingRequest{CustomerID: customer.ID, ServiceID: "svc-1", Date: bookingDate, Time: "10:00"}, domain.ErrForbidden},
		{"therapist role", therapist, CreateBookingRequest{CustomerID: customer.ID, ServiceID: "svc-1", Date: bookingDate, Time: "10:00"}, domain.ErrForbidden},
		{"business without customer", owner, CreateBookingRequest{ServiceID: "svc-1", Date: bookingDate, Time: "10:00"}, domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateBooking(ctx, tc.actor, tc.req)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestCreateBooking_SameTherapistSlotIsTakenOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID})

	_, err := f.svc.CreateBooking(ctx, otherCustomer, CreateBookingRequest{ServiceID: "svc-1", TherapistID: therapist.ID, Date: bookingDate, Time: bookingTime})
	assert.True(t, errors.Is(err, domain.ErrSlotUnavailable))

	_, err = f.svc.CreateBooking(ctx, otherCustomer, CreateBookingRequest{ServiceID: "svc-1", TherapistID: therapist.ID, Date: bookingDate, Time: "10:30"})
	assert.True(t, errors.Is(err, domain.ErrSlotUnavailable), "overlapping start must also be rejected")

	// a different therapist is free at the same time
	f.create(t, otherCustomer, CreateBookingRequest{TherapistID: therapist2.ID})

	_, err = f.svc.Cancel(ctx, first.ID, customer, "")
	require.NoError(t, err)
	f.create(t, otherCustomer, CreateBookingRequest{TherapistID: therapist.ID})
}

// Scenario A
func TestCreateBooking_UnpaddedClockCannotDodgeOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	early, err := f.svc.CreateBooking(ctx, owner, CreateBookingRequest{CustomerID: customer.ID, ServiceID: "svc-1", TherapistID: therapist.ID, Date: bookingDate, Time: "9:00"})
	require.NoError(t, err)
	assert.Equal(t, "09:00", early.Time)
	assert.Equal(t, "09:00", f.reload(t, early.ID).Time)

	_, err = f.svc.CreateBooking(ctx, owner, CreateBookingRequest{CustomerID: otherCustomer.ID, ServiceID: "svc-1", TherapistID: therapist.ID, Date: bookingDate, Time: "09:30"})
	assert.True(t, errors.Is(err, domain.ErrSlotUnavailable))

	later := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID, Time: "10:30"})
	_, err = f.svc.Reschedule(ctx, later.ID, therapist, bookingDate, "9:30")
	assert.True(t, errors.Is(err, domain.ErrSlotUnavailable))

	moved, err := f.svc.Reschedule(ctx, later.ID, therapist, "2030-01-13", "9:15")
	require.NoError(t, err)
	assert.Equal(t, "09:15", moved.Time)

	slots, err := f.svc.AvailableSlots(ctx, "svc-1", therapist.ID, "2030-01-13")
	require.NoError(t, err)
	for _, sl := range slots {
		assert.False(t, overlaps(sl.Start, sl.End, "09:15", "10:15"), "slot %s-%s overlaps the moved booking", sl.Start, sl.End)
	}
}

func TestApprove_NonAssignedBookingStaysVisible(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, customer, CreateBookingRequest{})

	got, err := f.svc.Approve(context.Background(), b.ID, owner)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, got.Status)
	assert.False(t, got.ResponseVisibleToBusinessOnly)
	require.NotNil(t, got.ConfirmedBy)
	assert.Equal(t, owner.ID, *got.ConfirmedBy)
	assert.Equal(t, baseNow, *got.ConfirmedAt)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, domain.BookingConfirmed, got.StatusForCustomer())
}

func TestApprove_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, customer, CreateBookingRequest{})

	_, err := f.svc.Approve(ctx, b.ID, otherOwner)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.Approve(ctx, b.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.Approve(ctx, "missing", admin)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.svc.Approve(ctx, b.ID, admin)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, b.ID, owner)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
}

// Scenario B
func TestTherapistRespond_HiddenUntilRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.assigned(t)
	require.True(t, b.AssignedByAdmin)

	got, err := f.svc.TherapistRespond(ctx, b.ID, therapist, true)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
	assert.True(t, got.ResponseVisibleToBusinessOnly)
	assert.True(t, got.TherapistResponded)

	seen, err := f.svc.Get(ctx, b.ID, customer)
	require.NoError(t, err)
	view, ok := Present(customer, seen).(domain.CustomerView)
	require.True(t, ok)
	assert.Equal(t, domain.BookingPending, view.Status)

	f.notifier.AssertCalled(t, "Notify", mock.Anything, mock.MatchedBy(func(ev notification.Event) bool {
		return ev.Type == notification.TypeTherapistResponded && ev.BusinessOnly &&
			ev.CustomerStatus == domain.BookingPending && ev.BusinessOwnerID == owner.ID
	}))

	released, err := f.svc.BusinessRelease(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, released.Status)
	assert.False(t, released.ResponseVisibleToBusinessOnly)
	assert.NotNil(t, released.ReleasedAt)
	assert.Equal(t, domain.BookingConfirmed, released.ForCustomer().Status)
	assert.NoError(t, released.CheckInvariants())

	_, err = f.svc.BusinessRelease(ctx, b.ID, owner)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
}

func TestTherapistRespond_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	selfBooked := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID})
	_, err := f.svc.TherapistRespond(ctx, selfBooked.ID, therapist, true)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "not assigned by admin")

	b := f.create(t, owner, CreateBookingRequest{CustomerID: customer.ID, TherapistID: therapist2.ID})
	_, err = f.svc.TherapistRespond(ctx, b.ID, therapist, true)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.TherapistRespond(ctx, b.ID, owner, true)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.svc.TherapistRespond(ctx, b.ID, therapist2, true)
	require.NoError(t, err)
	_, err = f.svc.TherapistRespond(ctx, b.ID, therapist2, false)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
}

func TestTherapistDecline_ThenReassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.assigned(t)

	declined, err := f.svc.Reject(ctx, b.ID, therapist, "unwell")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingTherapistRejected, declined.Status)
	assert.True(t, declined.ResponseVisibleToBusinessOnly)
	assert.Equal(t, domain.BookingPending, declined.StatusForCustomer())

	booked, err := f.store.Slots.ListBooked(ctx, therapist.ID, bookingDate)
	require.NoError(t, err)
	assert.Empty(t, booked, "declining frees the therapist's slot")

	_, err = f.svc.AssignTherapist(ctx, b.ID, otherOwner, therapist2.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.AssignTherapist(ctx, b.ID, owner, "ther-x")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	reassigned, err := f.svc.AssignTherapist(ctx, b.ID, owner, therapist2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, reassigned.Status)
	assert.True(t, reassigned.HasTherapist(therapist2.ID))
	assert.True(t, reassigned.AssignedByAdmin)
	assert.False(t, reassigned.TherapistResponded)
	assert.False(t, reassigned.ResponseVisibleToBusinessOnly)

	booked, err = f.store.Slots.ListBooked(ctx, therapist2.ID, bookingDate)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, "11:00", booked[0].EndTime)
}

func TestReject_ByBusiness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID})

	_, err := f.svc.Reject(ctx, b.ID, customer, "")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.svc.Approve(ctx, b.ID, owner)
	require.NoError(t, err)

	got, err := f.svc.Reject(ctx, b.ID, owner, "  double booked  ")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, "double booked", got.CancellationReason)
	assert.Equal(t, owner.ID, *got.CancelledBy)

	_, err = f.svc.Reject(ctx, b.ID, owner, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))

	booked, err := f.store.Slots.ListBooked(ctx, therapist.ID, bookingDate)
	require.NoError(t, err)
	assert.Empty(t, booked)
}

// Scenario E
func TestMarkCompleted_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID})

	_, err := f.svc.MarkCompleted(ctx, b.ID, therapist)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "pending cannot complete")

	_, err = f.svc.Approve(ctx, b.ID, owner)
	require.NoError(t, err)

	_, err = f.svc.MarkCompleted(ctx, b.ID, therapist2)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	f.now = baseNow.Add(52 * time.Hour)
	done, err := f.svc.MarkCompleted(ctx, b.ID, therapist)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, done.Status)
	assert.Equal(t, domain.PaymentCompleted, done.PaymentStatus)
	assert.Equal(t, domain.PayoutPending, done.TherapistPayoutStatus)
	assert.Equal(t, int64(400), done.TherapistPayoutAmount)
	completedAt := *done.CompletedAt

	f.now = baseNow.Add(60 * time.Hour)
	_, err = f.svc.MarkCompleted(ctx, b.ID, therapist)
	assert.True(t, errors.Is(err, domain.ErrAlreadyCompleted))

	stored := f.reload(t, b.ID)
	assert.True(t, completedAt.Equal(*stored.CompletedAt))
	assert.Equal(t, int64(400), stored.TherapistPayoutAmount)
	assert.Equal(t, done.Version, stored.Version)
}

// Scenario D
func TestCancelExpired_CancelsPastBookingsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID})
	confirmed := f.create(t, customer, CreateBookingRequest{Time: "14:00"})
	_, err := f.svc.Approve(ctx, confirmed.ID, owner)
	require.NoError(t, err)
	future := f.create(t, customer, CreateBookingRequest{Date: "2030-01-20"})

	// 30 hours after the 10:00 start
	now := time.Date(2030, 1, 13, 16, 0, 0, 0, time.UTC)
	res, err := f.svc.CancelExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, res.Cancelled, 2)
	assert.Empty(t, res.Failures)

	got := f.reload(t, stale.ID)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, domain.CancellationReasonExpired, got.CancellationReason)
	assert.Nil(t, got.CancelledBy)
	assert.Equal(t, domain.BookingCancelled, f.reload(t, confirmed.ID).Status)
	assert.Equal(t, domain.BookingPending, f.reload(t, future.ID).Status)

	booked, err := f.store.Slots.ListBooked(ctx, therapist.ID, bookingDate)
	require.NoError(t, err)
	assert.Empty(t, booked)

	again, err := f.svc.CancelExpired(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, again.Cancelled)
	assert.Empty(t, again.Failures)
	assert.Equal(t, got.Version, f.reload(t, stale.ID).Version)
}

func TestCancelExpired_HonoursGrace(t *testing.T) {
	f := newFixture(t)
	f.svc.cfg.ExpiryGrace = 2 * time.Hour
	b := f.create(t, customer, CreateBookingRequest{})

	res, err := f.svc.CancelExpired(context.Background(), time.Date(2030, 1, 12, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, res.Cancelled)

	res, err = f.svc.CancelExpired(context.Background(), time.Date(2030, 1, 12, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, res.Cancelled, 1)
	assert.Equal(t, b.ID, res.Cancelled[0].ID)
}

func TestCancelExpired_SkipsNonExpirableStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.assigned(t)
	_, err := f.svc.TherapistRespond(ctx, b.ID, therapist, false)
	require.NoError(t, err)

	res, err := f.svc.CancelExpired(ctx, baseNow.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, res.Cancelled)
	assert.Equal(t, domain.BookingTherapistRejected, f.reload(t, b.ID).Status)
}

// Scenario F
func TestReschedule_WindowAppliesToCustomersOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID})

	// two hours before the start
	f.now = time.Date(2030, 1, 12, 8, 0, 0, 0, time.UTC)

	_, err := f.svc.Reschedule(ctx, b.ID, customer, "2030-01-15", "11:00")
	assert.True(t, errors.Is(err, domain.ErrRescheduleRestricted))
	_, err = f.svc.Reschedule(ctx, b.ID, owner, "2030-01-15", "11:00")
	assert.True(t, errors.Is(err, domain.ErrRescheduleRestricted))

	got, err := f.svc.Reschedule(ctx, b.ID, therapist, "2030-01-15", "11:00")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, got.Status)
	assert.Equal(t, "2030-01-15", got.Date)
	assert.Equal(t, "11:00", got.Time)
	assert.Equal(t, bookingDate, got.OriginalDate)
	assert.Equal(t, bookingTime, got.OriginalTime)
	assert.Equal(t, therapist.ID, *got.RescheduledBy)
	assert.Equal(t, time.Date(2030, 1, 15, 11, 0, 0, 0, time.UTC), got.StartsAt)

	old, err := f.store.Slots.ListBooked(ctx, therapist.ID, bookingDate)
	require.NoError(t, err)
	assert.Empty(t, old)
	moved, err := f.store.Slots.ListBooked(ctx, therapist.ID, "2030-01-15")
	require.NoError(t, err)
	assert.Len(t, moved, 1)
}

func TestReschedule_ConfirmedReturnsToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, customer, CreateBookingRequest{})
	approved, err := f.svc.Approve(ctx, b.ID, owner)
	require.NoError(t, err)

	got, err := f.svc.Reschedule(ctx, b.ID, customer, "2030-01-14", "15:00")
	require.NoError(t, err)

	assert.Equal(t, domain.BookingPending, got.Status)
	assert.Nil(t, got.ConfirmedBy)
	assert.Nil(t, got.ConfirmedAt)
	assert.False(t, got.ResponseVisibleToBusinessOnly)
	assert.Equal(t, approved.Version+2, got.Version, "rescheduled and pending are two writes")

	f.notifier.AssertCalled(t, "Notify", mock.Anything, mock.MatchedBy(func(ev notification.Event) bool {
		return ev.Type == notification.TypeBookingRescheduled && ev.BookingID == b.ID
	}))

	_, err = f.svc.Approve(ctx, b.ID, owner)
	require.NoError(t, err)
}

func TestReschedule_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, customer, CreateBookingRequest{})

	_, err := f.svc.Reschedule(ctx, b.ID, otherCustomer, "2030-01-14", "15:00")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.Reschedule(ctx, b.ID, customer, "2030-01-14", "23:00")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	taken := f.create(t, otherCustomer, CreateBookingRequest{TherapistID: therapist.ID, Date: "2030-01-14", Time: "15:00"})
	require.NotNil(t, taken)
	mine := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID, Time: "16:00"})
	_, err = f.svc.Reschedule(ctx, mine.ID, customer, "2030-01-14", "15:00")
	assert.True(t, errors.Is(err, domain.ErrSlotUnavailable))
	assert.Equal(t, bookingDate, f.reload(t, mine.ID).Date, "failed reschedule rolls back")

	_, err = f.svc.Cancel(ctx, b.ID, customer, "")
	require.NoError(t, err)
	_, err = f.svc.Reschedule(ctx, b.ID, customer, "2030-01-14", "12:00")
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
}

func TestCancel_OnlyTheCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, customer, CreateBookingRequest{})

	_, err := f.svc.Cancel(ctx, b.ID, otherCustomer, "")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.Cancel(ctx, b.ID, owner, "")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	got, err := f.svc.Cancel(ctx, b.ID, customer, "changed plans")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, customer.ID, *got.CancelledBy)
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID})
	_, err := f.svc.Approve(ctx, b.ID, owner)
	require.NoError(t, err)

	_, err = f.svc.MarkNoShow(ctx, b.ID, therapist)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "before start")

	f.now = time.Date(2030, 1, 12, 10, 30, 0, 0, time.UTC)
	_, err = f.svc.MarkNoShow(ctx, b.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	got, err := f.svc.MarkNoShow(ctx, b.ID, therapist)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingNoShow, got.Status)
	assert.True(t, got.Status.IsTerminal())
}

func TestSave_StaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, customer, CreateBookingRequest{})

	stale := f.reload(t, b.ID)
	_, err := f.svc.Approve(ctx, b.ID, owner)
	require.NoError(t, err)

	require.NoError(t, stale.Transition(domain.BookingCancelled))
	err = f.store.Bookings.Save(ctx, stale)
	assert.True(t, errors.Is(err, domain.ErrConflictingTransition))
	assert.Equal(t, domain.BookingConfirmed, f.reload(t, b.ID).Status)

	ghost := *stale
	ghost.ID = "ghost"
	err = f.store.Bookings.Save(ctx, &ghost)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetAndList_AreRoleScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID})
	f.create(t, otherCustomer, CreateBookingRequest{Time: "12:00"})
	f.create(t, otherCustomer, CreateBookingRequest{ServiceID: "svc-2", Time: "12:00"})

	_, err := f.svc.Get(ctx, mine.ID, otherCustomer)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.Get(ctx, mine.ID, therapist2)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.Get(ctx, mine.ID, otherOwner)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.Get(ctx, mine.ID, therapist)
	assert.NoError(t, err)

	rows, err := f.svc.List(ctx, customer, ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].ID)

	rows, err = f.svc.List(ctx, owner, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = f.svc.List(ctx, therapist, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = f.svc.List(ctx, otherOwner, ListFilter{BusinessID: "biz-1"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	rows, err = f.svc.List(ctx, admin, ListFilter{Statuses: []domain.BookingStatus{domain.BookingPending}})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	all, err := f.svc.AvailableSlots(ctx, "svc-1", "", bookingDate)
	require.NoError(t, err)
	// 09:00..21:00 with 60 min sessions and 15 min breaks
	require.Len(t, all, 9)
	assert.Equal(t, Slot{Start: "09:00", End: "10:00"}, all[0])
	assert.Equal(t, Slot{Start: "19:00", End: "20:00"}, all[8])

	f.create(t, customer, CreateBookingRequest{TherapistID: therapist.ID, Time: "09:00"})

	forTherapist, err := f.svc.AvailableSlots(ctx, "svc-1", therapist.ID, bookingDate)
	require.NoError(t, err)
	assert.NotContains(t, forTherapist, Slot{Start: "09:00", End: "10:00"})
	assert.Len(t, forTherapist, 8)

	anyone, err := f.svc.AvailableSlots(ctx, "svc-1", "", bookingDate)
	require.NoError(t, err)
	assert.Contains(t, anyone, Slot{Start: "09:00", End: "10:00"}, "the other therapist is free")

	f.now = time.Date(2030, 1, 12, 15, 0, 0, 0, time.UTC)
	today, err := f.svc.AvailableSlots(ctx, "svc-1", "", bookingDate)
	require.NoError(t, err)
	for _, s := range today {
		assert.Greater(t, s.Start, "15:00")
	}

	_, err = f.svc.AvailableSlots(ctx, "svc-1", "ther-x", bookingDate)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.AvailableSlots(ctx, "svc-1", "", "tomorrow")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
