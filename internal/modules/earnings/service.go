package earnings

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wellness/internal/domain"
	"wellness/internal/modules/booking"
	"wellness/internal/notification"
	"wellness/internal/pkg/logger"
	"wellness/internal/repository"
)

type Service struct {
	store        *repository.Store
	notifier     notification.Notifier
	log          *zap.Logger
	sharePercent int
	now          func() time.Time
}

func NewService(store *repository.Store, notifier notification.Notifier, log *zap.Logger, sharePercent int) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{
		store:        store,
		notifier:     notifier,
		log:          logger.OrNop(log),
		sharePercent: domain.SharePercent(sharePercent),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// HalfPaymentView lists confirmed bookings with at least an advance paid.
// Verified payments always move a booking on to paid, so through the
// service operations this view stays empty; it only picks up rows written
// in that state by other means (imports, older data). Paid bookings with a
// partial payment appear in neither view until they are completed.
func (s *Service) HalfPaymentView(ctx context.Context, scope Scope) (View, error) {
	rows, err := s.store.Bookings.List(ctx, scope.filter(
		[]domain.BookingStatus{domain.BookingConfirmed},
		[]domain.PaymentStatus{domain.PaymentPartial, domain.PaymentCompleted},
	))
	if err != nil {
		return View{}, err
	}
	v := View{Bookings: rows, Count: len(rows)}
	for _, b := range rows {
		v.Gross += b.ServicePrice
		v.TherapistShare += domain.ComputePayout(b.ServicePrice, s.sharePercent)
	}
	return v, nil
}

// FullPaymentView lists completed, fully paid bookings.
func (s *Service) FullPaymentView(ctx context.Context, scope Scope) (View, error) {
	rows, err := s.store.Bookings.List(ctx, scope.filter(
		[]domain.BookingStatus{domain.BookingCompleted},
		[]domain.PaymentStatus{domain.PaymentCompleted},
	))
	if err != nil {
		return View{}, err
	}
	v := View{Bookings: rows, Count: len(rows)}
	for _, b := range rows {
		v.Gross += b.ServicePrice
		v.TherapistShare += b.TherapistPayoutAmount
	}
	return v, nil
}

func (s *Service) BusinessEarnings(ctx context.Context, actor domain.Actor, businessID string) (*Earnings, error) {
	if err := booking.CanManageBusiness(ctx, s.store.Catalog, actor, businessID); err != nil {
		return nil, err
	}
	return s.both(ctx, Scope{BusinessID: businessID})
}

func (s *Service) TherapistEarnings(ctx context.Context, actor domain.Actor, therapistID string) (*Earnings, error) {
	if err := canSeeTherapist(actor, therapistID); err != nil {
		return nil, err
	}
	return s.both(ctx, Scope{TherapistID: therapistID})
}

func (s *Service) TherapistPayoutSummary(ctx context.Context, actor domain.Actor, therapistID string) (*PayoutSummary, error) {
	if err := canSeeTherapist(actor, therapistID); err != nil {
		return nil, err
	}
	rows, err := s.store.Bookings.List(ctx, repository.BookingFilter{
		TherapistID: therapistID,
		Statuses:    []domain.BookingStatus{domain.BookingCompleted},
	})
	if err != nil {
		return nil, err
	}

	sum := &PayoutSummary{TherapistID: therapistID}
	for _, b := range rows {
		switch b.TherapistPayoutStatus {
		case domain.PayoutPending:
			sum.PendingCount++
			sum.PendingAmount += b.TherapistPayoutAmount
		case domain.PayoutPaid:
			sum.PaidCount++
			sum.PaidAmount += b.TherapistPayoutAmount
		}
	}
	return sum, nil
}

// MarkPayoutPaid records that the therapist's share of a completed booking
// has been disbursed. It can only happen once per booking.
func (s *Service) MarkPayoutPaid(ctx context.Context, bookingID string, actor domain.Actor) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can pay out therapists", domain.ErrForbidden)
	}

	var b *domain.Booking
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		b, err = tx.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingCompleted {
			return fmt.Errorf("%w: payout needs a completed booking, booking is %s", domain.ErrInvalidStateTransition, b.Status)
		}
		switch b.TherapistPayoutStatus {
		case domain.PayoutPending:
		case domain.PayoutPaid:
			return fmt.Errorf("%w: payout for booking %s", domain.ErrAlreadyCompleted, b.ID)
		default:
			return fmt.Errorf("%w: booking %s has no payout", domain.ErrInvalidStateTransition, b.ID)
		}
		b.TherapistPayoutStatus = domain.PayoutPaid
		b.TherapistPaidAt = domain.TimePtr(s.now())
		return tx.Bookings.Save(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("therapist payout paid",
		zap.String("booking_id", b.ID),
		zap.Int64("amount", b.TherapistPayoutAmount),
		zap.String("actor_id", actor.ID))

	var ownerID string
	if biz, err := s.store.Catalog.GetBusiness(ctx, b.BusinessID); err == nil {
		ownerID = biz.OwnerID
	}
	s.notifier.Notify(ctx, notification.BookingEvent(notification.TypePayoutPaid, b, ownerID, actor.ID, s.now()))
	return b, nil
}

func (s *Service) both(ctx context.Context, scope Scope) (*Earnings, error) {
	half, err := s.HalfPaymentView(ctx, scope)
	if err != nil {
		return nil, err
	}
	full, err := s.FullPaymentView(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &Earnings{HalfPayment: half, FullPayment: full}, nil
}

func (sc Scope) filter(statuses []domain.BookingStatus, payments []domain.PaymentStatus) repository.BookingFilter {
	return repository.BookingFilter{
		BusinessID:      sc.BusinessID,
		TherapistID:     sc.TherapistID,
		Statuses:        statuses,
		PaymentStatuses: payments,
	}
}

func canSeeTherapist(actor domain.Actor, therapistID string) error {
	if actor.IsAdmin() || (actor.IsTherapist() && actor.ID == therapistID) {
		return nil
	}
	return fmt.Errorf("%w: earnings of therapist %s", domain.ErrForbidden, therapistID)
}
