package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wellness/internal/domain"
	"wellness/internal/notification"
	"wellness/internal/pkg/logger"
	"wellness/internal/repository"
)

type Config struct {
	// Location interprets booking date/time strings.
	Location              *time.Location
	ExpiryGrace           time.Duration
	RescheduleWindow      time.Duration
	TherapistSharePercent int
	// Now overrides the clock; nil means time.Now in UTC.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Location:              time.UTC,
		RescheduleWindow:      24 * time.Hour,
		TherapistSharePercent: domain.DefaultTherapistSharePercent,
	}
}

type Service struct {
	store    *repository.Store
	notifier notification.Notifier
	log      *zap.Logger
	cfg      Config
	now      func() time.Time
}

func NewService(store *repository.Store, notifier notification.Notifier, log *zap.Logger, cfg Config) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cfg.TherapistSharePercent = domain.SharePercent(cfg.TherapistSharePercent)
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		store:    store,
		notifier: notifier,
		log:      logger.OrNop(log),
		cfg:      cfg,
		now:      now,
	}
}

func (s *Service) CreateBooking(ctx context.Context, actor domain.Actor, req CreateBookingRequest) (*domain.Booking, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	switch actor.Role {
	case domain.RoleCustomer:
		customerID = actor.ID
	case domain.RoleBusiness, domain.RoleAdmin:
		if customerID == "" {
			return nil, fmt.Errorf("%w: customer_id is required", domain.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: role %s cannot create bookings", domain.ErrForbidden, actor.Role)
	}

	svc, err := s.store.Catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	biz, err := s.store.Catalog.GetBusiness(ctx, svc.BusinessID)
	if err != nil {
		return nil, err
	}
	if actor.IsBusiness() && biz.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: service %s belongs to another business", domain.ErrForbidden, svc.ID)
	}

	now := s.now()
	startsAt, startClock, endClock, err := s.schedule(biz, req.Date, req.Time, svc.DurationMinutes, now)
	if err != nil {
		return nil, err
	}

	var therapistID *string
	if id := strings.TrimSpace(req.TherapistID); id != "" {
		th, err := s.store.Catalog.GetTherapist(ctx, id)
		if err != nil {
			return nil, err
		}
		if th.BusinessID != svc.BusinessID {
			return nil, fmt.Errorf("%w: therapist %s does not work for business %s", domain.ErrForbidden, id, svc.BusinessID)
		}
		therapistID = domain.StringPtr(id)
	}

	b := domain.NewBooking(domain.NewBookingParams{
		CustomerID:      customerID,
		TherapistID:     therapistID,
		ServiceID:       svc.ID,
		BusinessID:      svc.BusinessID,
		Date:            req.Date,
		Time:            startClock,
		DurationMinutes: svc.DurationMinutes,
		ServicePrice:    svc.Price,
		StartsAt:        startsAt,
		AssignedByAdmin: therapistID != nil && (actor.IsBusiness() || actor.IsAdmin()),
	}, now)

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Bookings.Create(ctx, b); err != nil {
			return err
		}
		if therapistID != nil {
			return tx.Slots.Reserve(ctx, *therapistID, b.Date, b.Time, endClock, b.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("actor_id", actor.ID),
		zap.Bool("assigned_by_admin", b.AssignedByAdmin))
	s.emit(ctx, notification.TypeBookingCreated, b, actor.ID)
	return b, nil
}

func (s *Service) Approve(ctx context.Context, id string, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.update(ctx, id, func(tx *repository.Store, b *domain.Booking) error {
		if err := CanManageBusiness(ctx, tx.Catalog, actor, b.BusinessID); err != nil {
			return err
		}
		if b.Status != domain.BookingPending {
			return fmt.Errorf("%w: approve requires pending, booking is %s", domain.ErrInvalidStateTransition, b.Status)
		}
		if err := b.Transition(domain.BookingConfirmed); err != nil {
			return err
		}
		now := s.now()
		b.ConfirmedBy = domain.StringPtr(actor.ID)
		b.ConfirmedAt = domain.TimePtr(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition("booking approved", b, actor)
	s.emit(ctx, notification.TypeBookingApproved, b, actor.ID)
	return b, nil
}

// Reject cancels the booking for businesses and admins. For the assigned
// therapist of an admin-assigned pending booking it is a decline.
func (s *Service) Reject(ctx context.Context, id string, actor domain.Actor, reason string) (*domain.Booking, error) {
	switch actor.Role {
	case domain.RoleTherapist:
		return s.TherapistRespond(ctx, id, actor, false)
	case domain.RoleBusiness, domain.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: role %s cannot reject bookings", domain.ErrForbidden, actor.Role)
	}

	b, err := s.update(ctx, id, func(tx *repository.Store, b *domain.Booking) error {
		if err := CanManageBusiness(ctx, tx.Catalog, actor, b.BusinessID); err != nil {
			return err
		}
		return s.cancel(ctx, tx, b, &actor.ID, reason)
	})
	if err != nil {
		return nil, err
	}
	s.logTransition("booking rejected", b, actor)
	s.emit(ctx, notification.TypeBookingCancelled, b, actor.ID)
	return b, nil
}

// TherapistRespond records the assigned therapist's answer. The answer stays
// hidden from the customer until the business releases it.
func (s *Service) TherapistRespond(ctx context.Context, id string, actor domain.Actor, accept bool) (*domain.Booking, error) {
	b, err := s.update(ctx, id, func(tx *repository.Store, b *domain.Booking) error {
		if !actor.IsTherapist() || !b.HasTherapist(actor.ID) {
			return fmt.Errorf("%w: only the assigned therapist can respond to booking %s", domain.ErrForbidden, b.ID)
		}
		if !b.AssignedByAdmin {
			return fmt.Errorf("%w: booking %s was not assigned by the business", domain.ErrInvalidStateTransition, b.ID)
		}
		if b.Status != domain.BookingPending {
			return fmt.Errorf("%w: respond requires pending, booking is %s", domain.ErrInvalidStateTransition, b.Status)
		}

		now := s.now()
		if accept {
			if err := b.Transition(domain.BookingConfirmed); err != nil {
				return err
			}
			b.ConfirmedBy = domain.StringPtr(actor.ID)
			b.ConfirmedAt = domain.TimePtr(now)
		} else {
			if err := b.Transition(domain.BookingTherapistRejected); err != nil {
				return err
			}
			if err := tx.Slots.Release(ctx, b.ID); err != nil {
				return err
			}
		}
		b.TherapistResponded = true
		b.ResponseVisibleToBusinessOnly = true
		b.ReleasedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition("therapist responded", b, actor)
	s.emit(ctx, notification.TypeTherapistResponded, b, actor.ID)
	return b, nil
}

// BusinessRelease shows the customer the therapist's answer. Status is unchanged.
func (s *Service) BusinessRelease(ctx context.Context, id string, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.update(ctx, id, func(tx *repository.Store, b *domain.Booking) error {
		if err := CanManageBusiness(ctx, tx.Catalog, actor, b.BusinessID); err != nil {
			return err
		}
		if !b.ResponseVisibleToBusinessOnly {
			return fmt.Errorf("%w: booking %s has nothing to release", domain.ErrInvalidStateTransition, b.ID)
		}
		b.ResponseVisibleToBusinessOnly = false
		b.ReleasedAt = domain.TimePtr(s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition("booking released", b, actor)
	s.emit(ctx, notification.TypeBookingReleased, b, actor.ID)
	return b, nil
}

// MarkCompleted closes the booking and seeds the therapist payout.
func (s *Service) MarkCompleted(ctx context.Context, id string, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.update(ctx, id, func(tx *repository.Store, b *domain.Booking) error {
		if !actor.IsTherapist() || !b.HasTherapist(actor.ID) {
			return fmt.Errorf("%w: only the assigned therapist can complete booking %s", domain.ErrForbidden, b.ID)
		}
		if b.Status == domain.BookingCompleted {
			return fmt.Errorf("%w: booking %s", domain.ErrAlreadyCompleted, b.ID)
		}
		if b.Status != domain.BookingConfirmed && b.Status != domain.BookingPaid {
			return fmt.Errorf("%w: complete requires confirmed or paid, booking is %s", domain.ErrInvalidStateTransition, b.Status)
		}
		if err := b.Transition(domain.BookingCompleted); err != nil {
			return err
		}
		b.PaymentStatus = domain.PaymentCompleted
		b.CompletedAt = domain.TimePtr(s.now())
		b.TherapistPayoutStatus = domain.PayoutPending
		b.TherapistPayoutAmount = domain.ComputePayout(b.ServicePrice, s.cfg.TherapistSharePercent)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("booking completed",
		zap.String("booking_id", b.ID),
		zap.String("actor_id", actor.ID),
		zap.Int64("payout", b.TherapistPayoutAmount))
	s.emit(ctx, notification.TypeBookingCompleted, b, actor.ID)
	return b, nil
}

// CancelExpired cancels every pending or confirmed booking whose start plus
// grace is at or before now. Items that fail are logged and reported; the
// rest of the batch still runs. Running it twice cancels nothing new.
func (s *Service) CancelExpired(ctx context.Context, now time.Time) (*ExpireResult, error) {
	if now.IsZero() {
		now = s.now()
	}
	candidates, err := s.store.Bookings.ListExpirable(ctx, now.Add(-s.cfg.ExpiryGrace))
	if err != nil {
		return nil, err
	}

	res := &ExpireResult{Cancelled: []domain.Booking{}, Failures: []ExpireFailure{}}
	for _, c := range candidates {
		if !IsExpired(&c, now, s.cfg.ExpiryGrace) {
			continue
		}

		var cancelled *domain.Booking
		err := s.store.InTx(ctx, func(tx *repository.Store) error {
			b, err := tx.Bookings.GetByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if !IsExpired(b, now, s.cfg.ExpiryGrace) {
				return nil
			}
			if err := s.cancelAt(ctx, tx, b, nil, domain.CancellationReasonExpired, now); err != nil {
				return err
			}
			if err := tx.Bookings.Save(ctx, b); err != nil {
				return err
			}
			cancelled = b
			return nil
		})

		switch {
		case err == nil && cancelled != nil:
			res.Cancelled = append(res.Cancelled, *cancelled)
			s.emit(ctx, notification.TypeBookingExpired, cancelled, "")
		case err == nil:
		case errors.Is(err, domain.ErrConflictingTransition), errors.Is(err, domain.ErrNotFound):
			// another writer moved it first
			s.log.Debug("expiry skipped booking", zap.String("booking_id", c.ID), zap.Error(err))
		default:
			s.log.Warn("expiry failed", zap.String("booking_id", c.ID), zap.Error(err))
			res.Failures = append(res.Failures, ExpireFailure{BookingID: c.ID, Error: err.Error()})
		}
	}

	s.log.Info("expiry run finished",
		zap.Time("now", now),
		zap.Int("candidates", len(candidates)),
		zap.Int("cancelled", len(res.Cancelled)),
		zap.Int("failures", len(res.Failures)))
	return res, nil
}

// Reschedule moves a pending or confirmed booking. It passes through
// rescheduled and comes back as pending, so a confirmed booking needs a new
// approval on its new date.
func (s *Service) Reschedule(ctx context.Context, id string, actor domain.Actor, newDate, newTime string) (*domain.Booking, error) {
	b, err := s.update(ctx, id, func(tx *repository.Store, b *domain.Booking) error {
		if err := s.canReschedule(ctx, tx, actor, b); err != nil {
			return err
		}
		if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
			return fmt.Errorf("%w: reschedule requires pending or confirmed, booking is %s", domain.ErrInvalidStateTransition, b.Status)
		}

		now := s.now()
		if ShouldRestrictReschedule(b.StartsAt, now, actor.Role, s.cfg.RescheduleWindow) {
			return fmt.Errorf("%w: booking %s starts within %s", domain.ErrRescheduleRestricted, b.ID, s.cfg.RescheduleWindow)
		}

		biz, err := tx.Catalog.GetBusiness(ctx, b.BusinessID)
		if err != nil {
			return err
		}
		startsAt, startClock, endClock, err := s.schedule(biz, newDate, newTime, b.DurationMinutes, now)
		if err != nil {
			return err
		}

		if err := b.Transition(domain.BookingRescheduled); err != nil {
			return err
		}
		b.OriginalDate = b.Date
		b.OriginalTime = b.Time
		b.RescheduledBy = domain.StringPtr(actor.ID)
		b.RescheduledAt = domain.TimePtr(now)
		if err := tx.Bookings.Save(ctx, b); err != nil {
			return err
		}

		if err := b.Transition(domain.BookingPending); err != nil {
			return err
		}
		b.Date = newDate
		b.Time = startClock
		b.StartsAt = startsAt.UTC()
		b.ConfirmedBy = nil
		b.ConfirmedAt = nil
		b.ResponseVisibleToBusinessOnly = false
		b.TherapistResponded = false
		b.ReleasedAt = nil

		if err := tx.Slots.Release(ctx, b.ID); err != nil {
			return err
		}
		if b.TherapistID != nil {
			return tx.Slots.Reserve(ctx, *b.TherapistID, newDate, startClock, endClock, b.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition("booking rescheduled", b, actor)
	s.emit(ctx, notification.TypeBookingRescheduled, b, actor.ID)
	return b, nil
}

// Cancel is the customer's own cancellation.
func (s *Service) Cancel(ctx context.Context, id string, actor domain.Actor, reason string) (*domain.Booking, error) {
	b, err := s.update(ctx, id, func(tx *repository.Store, b *domain.Booking) error {
		if !actor.IsCustomer() || b.CustomerID != actor.ID {
			return fmt.Errorf("%w: only the booking's customer can cancel it", domain.ErrForbidden)
		}
		return s.cancel(ctx, tx, b, &actor.ID, reason)
	})
	if err != nil {
		return nil, err
	}
	s.logTransition("booking cancelled", b, actor)
	s.emit(ctx, notification.TypeBookingCancelled, b, actor.ID)
	return b, nil
}

func (s *Service) MarkNoShow(ctx context.Context, id string, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.update(ctx, id, func(tx *repository.Store, b *domain.Booking) error {
		if !(actor.IsTherapist() && b.HasTherapist(actor.ID)) {
			if err := CanManageBusiness(ctx, tx.Catalog, actor, b.BusinessID); err != nil {
				return err
			}
		}
		if b.Status != domain.BookingConfirmed {
			return fmt.Errorf("%w: no-show requires confirmed, booking is %s", domain.ErrInvalidStateTransition, b.Status)
		}
		if s.now().Before(b.StartsAt) {
			return fmt.Errorf("%w: booking %s has not started yet", domain.ErrInvalidStateTransition, b.ID)
		}
		return b.Transition(domain.BookingNoShow)
	})
	if err != nil {
		return nil, err
	}
	s.logTransition("booking no-show", b, actor)
	s.emit(ctx, notification.TypeBookingNoShow, b, actor.ID)
	return b, nil
}

// AssignTherapist (re)assigns a therapist on behalf of the business and
// waits for that therapist's answer.
func (s *Service) AssignTherapist(ctx context.Context, id string, actor domain.Actor, therapistID string) (*domain.Booking, error) {
	b, err := s.update(ctx, id, func(tx *repository.Store, b *domain.Booking) error {
		if err := CanManageBusiness(ctx, tx.Catalog, actor, b.BusinessID); err != nil {
			return err
		}
		th, err := tx.Catalog.GetTherapist(ctx, therapistID)
		if err != nil {
			return err
		}
		if th.BusinessID != b.BusinessID {
			return fmt.Errorf("%w: therapist %s does not work for business %s", domain.ErrForbidden, therapistID, b.BusinessID)
		}

		switch b.Status {
		case domain.BookingPending:
		case domain.BookingTherapistRejected:
			if err := b.Transition(domain.BookingPending); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: assign requires pending or therapist_rejected, booking is %s", domain.ErrInvalidStateTransition, b.Status)
		}

		endClock := domain.FormatClock(mustClock(b.Time) + b.DurationMinutes)
		if err := tx.Slots.Release(ctx, b.ID); err != nil {
			return err
		}
		if err := tx.Slots.Reserve(ctx, therapistID, b.Date, b.Time, endClock, b.ID); err != nil {
			return err
		}

		b.TherapistID = domain.StringPtr(therapistID)
		b.AssignedByAdmin = true
		b.TherapistResponded = false
		b.ResponseVisibleToBusinessOnly = false
		b.ReleasedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition("therapist assigned", b, actor)
	s.emit(ctx, notification.TypeTherapistAssigned, b, actor.ID)
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.store.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanView(ctx, s.store.Catalog, actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, actor domain.Actor, f ListFilter) ([]domain.Booking, error) {
	rf := repository.BookingFilter{
		Statuses: f.Statuses,
		DateFrom: f.DateFrom,
		DateTo:   f.DateTo,
		Limit:    f.Limit,
		Offset:   f.Offset,
	}
	if rf.Limit <= 0 || rf.Limit > 200 {
		rf.Limit = 50
	}

	switch actor.Role {
	case domain.RoleCustomer:
		rf.CustomerID = actor.ID
		rf.BusinessID = f.BusinessID
	case domain.RoleTherapist:
		rf.TherapistID = actor.ID
		rf.BusinessID = f.BusinessID
	case domain.RoleBusiness:
		if f.BusinessID != "" {
			if err := CanManageBusiness(ctx, s.store.Catalog, actor, f.BusinessID); err != nil {
				return nil, err
			}
			rf.BusinessID = f.BusinessID
			break
		}
		ids, err := s.store.Catalog.ListBusinessIDsByOwner(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []domain.Booking{}, nil
		}
		rf.BusinessIDs = ids
	case domain.RoleAdmin:
		rf.BusinessID = f.BusinessID
	default:
		return nil, fmt.Errorf("%w: role %s", domain.ErrForbidden, actor.Role)
	}

	return s.store.Bookings.List(ctx, rf)
}

// AvailableSlots returns the slots of date that are still open. With a
// therapist, only that therapist's bookings count; without one a slot is
// open while any of the business's therapists is free.
func (s *Service) AvailableSlots(ctx context.Context, serviceID, therapistID, date string) ([]Slot, error) {
	svc, err := s.store.Catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	biz, err := s.store.Catalog.GetBusiness(ctx, svc.BusinessID)
	if err != nil {
		return nil, err
	}
	if _, err := time.ParseInLocation(domain.DateLayout, date, s.cfg.Location); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", domain.ErrValidation, date)
	}

	grid, err := ComputeSlots(biz.OpenTime, biz.CloseTime, svc.DurationMinutes, biz.BreakMinutes)
	if err != nil {
		return nil, err
	}

	var therapists []string
	if therapistID != "" {
		th, err := s.store.Catalog.GetTherapist(ctx, therapistID)
		if err != nil {
			return nil, err
		}
		if th.BusinessID != svc.BusinessID {
			return nil, fmt.Errorf("%w: therapist %s does not work for business %s", domain.ErrForbidden, therapistID, svc.BusinessID)
		}
		therapists = []string{therapistID}
	} else {
		rows, err := s.store.Catalog.ListTherapists(ctx, svc.BusinessID)
		if err != nil {
			return nil, err
		}
		for _, th := range rows {
			therapists = append(therapists, th.ID)
		}
	}

	booked := make(map[string][]domain.TherapistAvailability, len(therapists))
	for _, id := range therapists {
		rows, err := s.store.Slots.ListBooked(ctx, id, date)
		if err != nil {
			return nil, err
		}
		booked[id] = rows
	}

	now := s.now()
	out := make([]Slot, 0, len(grid))
	for _, slot := range grid {
		startsAt, err := domain.StartsAt(date, slot.Start, s.cfg.Location)
		if err != nil || !startsAt.After(now) {
			continue
		}
		if len(therapists) == 0 || anyFree(slot, therapists, booked) {
			out = append(out, slot)
		}
	}
	return out, nil
}

func anyFree(slot Slot, therapists []string, booked map[string][]domain.TherapistAvailability) bool {
	for _, id := range therapists {
		free := true
		for _, row := range booked[id] {
			if overlaps(slot.Start, slot.End, row.StartTime, row.EndTime) {
				free = false
				break
			}
		}
		if free {
			return true
		}
	}
	return false
}

// update loads the booking inside a transaction, applies fn and writes it
// back with the version check.
func (s *Service) update(ctx context.Context, id string, fn func(tx *repository.Store, b *domain.Booking) error) (*domain.Booking, error) {
	var out *domain.Booking
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, b); err != nil {
			return err
		}
		if err := tx.Bookings.Save(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) cancel(ctx context.Context, tx *repository.Store, b *domain.Booking, by *string, reason string) error {
	return s.cancelAt(ctx, tx, b, by, reason, s.now())
}

// cancelAt moves b to cancelled and frees its slot. A cancelled booking has
// nothing left to hide from the customer.
func (s *Service) cancelAt(ctx context.Context, tx *repository.Store, b *domain.Booking, by *string, reason string, now time.Time) error {
	if err := b.Transition(domain.BookingCancelled); err != nil {
		return err
	}
	b.CancelledBy = by
	b.CancelledAt = domain.TimePtr(now)
	b.CancellationReason = strings.TrimSpace(reason)
	b.ResponseVisibleToBusinessOnly = false
	return tx.Slots.Release(ctx, b.ID)
}

func (s *Service) canReschedule(ctx context.Context, tx *repository.Store, actor domain.Actor, b *domain.Booking) error {
	switch actor.Role {
	case domain.RoleCustomer:
		if b.CustomerID == actor.ID {
			return nil
		}
	case domain.RoleTherapist:
		if b.HasTherapist(actor.ID) {
			return nil
		}
	case domain.RoleBusiness, domain.RoleAdmin:
		return CanManageBusiness(ctx, tx.Catalog, actor, b.BusinessID)
	}
	return fmt.Errorf("%w: cannot reschedule booking %s", domain.ErrForbidden, b.ID)
}

// schedule validates a requested date/time and returns the start instant
// with the canonical start and end clocks. Only the canonical form is stored.
func (s *Service) schedule(biz *domain.Business, date, clock string, durationMin int, now time.Time) (time.Time, string, string, error) {
	clock, err := domain.CanonicalClock(clock)
	if err != nil {
		return time.Time{}, "", "", err
	}
	startsAt, err := domain.StartsAt(date, clock, s.cfg.Location)
	if err != nil {
		return time.Time{}, "", "", err
	}
	if !startsAt.After(now) {
		return time.Time{}, "", "", fmt.Errorf("%w: %s %s is in the past", domain.ErrValidation, date, clock)
	}
	endClock, err := withinHours(biz, clock, durationMin)
	if err != nil {
		return time.Time{}, "", "", err
	}
	return startsAt.UTC(), clock, endClock, nil
}

func (s *Service) logTransition(msg string, b *domain.Booking, actor domain.Actor) {
	s.log.Info(msg,
		zap.String("booking_id", b.ID),
		zap.String("status", string(b.Status)),
		zap.String("actor_id", actor.ID))
}

// emit runs after commit; a failed owner lookup only narrows the audience.
func (s *Service) emit(ctx context.Context, typ string, b *domain.Booking, actorID string) {
	var ownerID string
	if biz, err := s.store.Catalog.GetBusiness(ctx, b.BusinessID); err == nil {
		ownerID = biz.OwnerID
	}
	s.notifier.Notify(ctx, notification.BookingEvent(typ, b, ownerID, actorID, s.now()))
}

func mustClock(clock string) int {
	m, _ := domain.ParseClock(clock)
	return m
}
