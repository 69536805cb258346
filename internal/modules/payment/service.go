package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wellness/internal/domain"
	"wellness/internal/modules/booking"
	"wellness/internal/notification"
	"wellness/internal/pkg/logger"
	"wellness/internal/pkg/gateway"
	"wellness/internal/repository"
)

const DefaultAdvancePercent = 50

type Service struct {
	store          *repository.Store
	gateway        orderGateway
	notifier       notification.Notifier
	log            *zap.Logger
	advancePercent int
	now            func() time.Time
}

func NewService(store *repository.Store, gw orderGateway, notifier notification.Notifier, log *zap.Logger, advancePercent int) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if advancePercent <= 0 || advancePercent > 100 {
		advancePercent = DefaultAdvancePercent
	}
	return &Service{
		store:          store,
		gateway:        gw,
		notifier:       notifier,
		log:            logger.OrNop(log),
		advancePercent: advancePercent,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SplitAdvance returns the advance charged up front and what is left to pay.
func SplitAdvance(total int64, percent int) (advance, remaining int64) {
	advance = domain.PercentOf(total, percent)
	return advance, total - advance
}

// RecordCashPayment registers a cash payment the customer will hand over in
// person. The payment stays pending until the business confirms it; the
// booking itself is confirmed right away.
func (s *Service) RecordCashPayment(ctx context.Context, bookingID string, actor domain.Actor, amount int64) (*domain.Payment, *domain.Booking, error) {
	if amount < 0 {
		return nil, nil, fmt.Errorf("%w: amount must not be negative", domain.ErrValidation)
	}

	var (
		p *domain.Payment
		b *domain.Booking
	)
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		b, err = tx.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !actor.IsCustomer() || b.CustomerID != actor.ID {
			return fmt.Errorf("%w: only the booking's customer can pay for booking %s", domain.ErrForbidden, b.ID)
		}

		now := s.now()
		switch b.Status {
		case domain.BookingPending, domain.BookingTherapistConfirmed:
			if err := b.Transition(domain.BookingConfirmed); err != nil {
				return err
			}
			b.ConfirmedBy = domain.StringPtr(actor.ID)
			b.ConfirmedAt = domain.TimePtr(now)
			if err := tx.Bookings.Save(ctx, b); err != nil {
				return err
			}
		case domain.BookingConfirmed:
		default:
			return fmt.Errorf("%w: cash payment needs an open booking, booking is %s", domain.ErrInvalidStateTransition, b.Status)
		}

		if amount == 0 {
			amount = b.ServicePrice
		}
		p = domain.NewPayment(b.ID, domain.MethodCash, domain.PaymentTypeFull, now)
		p.Amount = amount
		p.TotalAmount = amount
		p.RemainingAmount = amount
		return tx.Payments.Create(ctx, p)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("cash payment recorded",
		zap.String("booking_id", b.ID),
		zap.String("payment_id", p.ID),
		zap.Int64("amount", p.Amount))
	s.emit(ctx, notification.TypePaymentRecorded, b, actor.ID)
	return p, b, nil
}

// RecordGatewayOrder opens a gateway order for the advance (or the whole
// total when full is set). The booking is not touched until verification.
func (s *Service) RecordGatewayOrder(ctx context.Context, bookingID string, actor domain.Actor, totalAmount int64, full bool) (*GatewayOrderResponse, error) {
	if totalAmount < 0 {
		return nil, fmt.Errorf("%w: total amount must not be negative", domain.ErrValidation)
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: payment gateway is not configured", domain.ErrConfig)
	}

	b, err := s.store.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (!actor.IsCustomer() || b.CustomerID != actor.ID) {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrForbidden, b.ID)
	}
	if !payable(b.Status) {
		return nil, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidStateTransition, b.ID, b.Status)
	}
	if b.PaymentStatus == domain.PaymentCompleted {
		return nil, fmt.Errorf("%w: booking %s is fully paid", domain.ErrAlreadyCompleted, b.ID)
	}

	paid, paidTotal, err := s.paidSoFar(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if totalAmount == 0 {
		totalAmount = b.ServicePrice
		if paidTotal > 0 {
			totalAmount = paidTotal
		}
	}
	paymentType := domain.PaymentTypeAdvance
	advance, remaining := SplitAdvance(totalAmount, s.advancePercent)
	charge := advance
	switch {
	case paid > 0:
		// an advance is already in; only the balance can be ordered and it settles the booking
		if paid >= totalAmount {
			return nil, fmt.Errorf("%w: booking %s has %d paid of %d", domain.ErrValidation, b.ID, paid, totalAmount)
		}
		full = true
		paymentType = domain.PaymentTypeFull
		charge, remaining = totalAmount-paid, 0
	case full:
		paymentType = domain.PaymentTypeFull
		charge, remaining = totalAmount, 0
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.MinorUnits(charge), map[string]string{
		"booking_id":   b.ID,
		"payment_type": string(paymentType),
	})
	if err != nil {
		s.log.Error("gateway order failed", zap.String("booking_id", b.ID), zap.Error(err))
		return nil, err
	}

	p := domain.NewPayment(b.ID, domain.MethodRazorpay, paymentType, s.now())
	p.Amount = charge
	p.TotalAmount = totalAmount
	p.RemainingAmount = remaining
	p.Currency = order.Currency
	p.Receipt = order.Receipt
	p.GatewayOrderID = order.ID
	if err := s.store.Payments.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("gateway order created",
		zap.String("booking_id", b.ID),
		zap.String("order_id", order.ID),
		zap.Int64("amount", charge),
		zap.String("payment_type", string(paymentType)))

	resp := &GatewayOrderResponse{
		PaymentID:       p.ID,
		OrderID:         order.ID,
		KeyID:           s.gateway.KeyID(),
		Currency:        order.Currency,
		Amount:          charge,
		GatewayAmount:   order.Amount,
		AdvanceAmount:   advance,
		RemainingAmount: remaining,
		PaymentType:     paymentType,
		Receipt:         order.Receipt,
	}
	if full {
		resp.AdvanceAmount = charge
	}
	return resp, nil
}

// VerifyGatewayPayment checks the checkout callback. A valid signature
// completes the payment and moves the booking to paid; an invalid one marks
// the payment failed and leaves the booking alone. Replaying a callback that
// already succeeded returns the stored result.
func (s *Service) VerifyGatewayPayment(ctx context.Context, actor domain.Actor, req VerifyRequest) (*domain.Payment, *domain.Booking, error) {
	if s.gateway == nil {
		return nil, nil, fmt.Errorf("%w: payment gateway is not configured", domain.ErrConfig)
	}

	p, err := s.store.Payments.GetByOrderID(ctx, req.BookingID, req.OrderID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.store.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsAdmin() && (!actor.IsCustomer() || b.CustomerID != actor.ID) {
		return nil, nil, fmt.Errorf("%w: booking %s", domain.ErrForbidden, b.ID)
	}

	switch p.Status {
	case domain.PaymentRecordCompleted:
		if p.GatewayPaymentID == req.PaymentID {
			return p, b, nil
		}
		return nil, nil, fmt.Errorf("%w: order %s was already paid", domain.ErrPaymentVerificationFailed, p.GatewayOrderID)
	case domain.PaymentRecordPending:
	default:
		return nil, nil, fmt.Errorf("%w: order %s is %s", domain.ErrPaymentVerificationFailed, p.GatewayOrderID, p.Status)
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		if ferr := s.failPayment(ctx, p, req.PaymentID, "signature mismatch"); ferr != nil {
			s.log.Error("could not record failed payment", zap.String("payment_id", p.ID), zap.Error(ferr))
		}
		s.emit(ctx, notification.TypePaymentFailed, b, actor.ID)
		return nil, nil, fmt.Errorf("%w: invalid signature for order %s", domain.ErrPaymentVerificationFailed, req.OrderID)
	}

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		b, err = tx.Bookings.GetByID(ctx, req.BookingID)
		if err != nil {
			return err
		}
		now := s.now()

		if err := p.Transition(domain.PaymentRecordCompleted); err != nil {
			return err
		}
		p.GatewayPaymentID = req.PaymentID
		p.AdvancePaid = p.Amount
		p.PaidAt = domain.TimePtr(now)
		if err := tx.Payments.SaveFrom(ctx, p, domain.PaymentRecordPending); err != nil {
			return err
		}

		return s.settle(ctx, tx, b, p.PaymentType, now)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("gateway payment verified",
		zap.String("booking_id", b.ID),
		zap.String("payment_id", p.ID),
		zap.String("payment_status", string(b.PaymentStatus)))
	s.emit(ctx, notification.TypePaymentCompleted, b, actor.ID)
	return p, b, nil
}

// ConfirmCashPayment is the business acknowledging the cash was received.
func (s *Service) ConfirmCashPayment(ctx context.Context, paymentID string, actor domain.Actor) (*domain.Payment, *domain.Booking, error) {
	var (
		p *domain.Payment
		b *domain.Booking
	)
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		p, err = tx.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		b, err = tx.Bookings.GetByID(ctx, p.BookingID)
		if err != nil {
			return err
		}
		if err := booking.CanManageBusiness(ctx, tx.Catalog, actor, b.BusinessID); err != nil {
			return err
		}
		if p.Method != domain.MethodCash {
			return fmt.Errorf("%w: payment %s is not a cash payment", domain.ErrValidation, p.ID)
		}
		if p.Status == domain.PaymentRecordCompleted {
			return fmt.Errorf("%w: payment %s", domain.ErrAlreadyCompleted, p.ID)
		}

		now := s.now()
		if err := p.Transition(domain.PaymentRecordCompleted); err != nil {
			return err
		}
		p.RemainingAmount = 0
		p.PaidAt = domain.TimePtr(now)
		if err := tx.Payments.SaveFrom(ctx, p, domain.PaymentRecordPending); err != nil {
			return err
		}

		if b.Status == domain.BookingCompleted {
			return nil
		}
		return s.settle(ctx, tx, b, domain.PaymentTypeFull, now)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("cash payment confirmed", zap.String("booking_id", b.ID), zap.String("payment_id", p.ID))
	s.emit(ctx, notification.TypePaymentCompleted, b, actor.ID)
	return p, b, nil
}

// RefundPayment refunds a completed payment of a cancelled booking.
func (s *Service) RefundPayment(ctx context.Context, paymentID string, actor domain.Actor, reason string) (*domain.Payment, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can refund payments", domain.ErrForbidden)
	}

	var (
		p *domain.Payment
		b *domain.Booking
	)
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		p, err = tx.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		b, err = tx.Bookings.GetByID(ctx, p.BookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingCancelled {
			return fmt.Errorf("%w: refunds need a cancelled booking, booking is %s", domain.ErrInvalidStateTransition, b.Status)
		}
		if err := p.Transition(domain.PaymentRecordRefunded); err != nil {
			return err
		}
		p.RefundedAt = domain.TimePtr(s.now())
		p.RefundReason = reason
		return tx.Payments.SaveFrom(ctx, p, domain.PaymentRecordCompleted)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment refunded", zap.String("booking_id", b.ID), zap.String("payment_id", p.ID))
	s.emit(ctx, notification.TypePaymentRefunded, b, actor.ID)
	return p, nil
}

// ListForBooking returns the payments of a booking the actor may see.
func (s *Service) ListForBooking(ctx context.Context, bookingID string, actor domain.Actor) ([]domain.Payment, error) {
	b, err := s.store.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.CanView(ctx, s.store.Catalog, actor, b); err != nil {
		return nil, err
	}
	return s.store.Payments.ListByBooking(ctx, b.ID)
}

// settle moves an open booking to paid, one edge per write, and raises its
// payment status. Payment status never goes down.
func (s *Service) settle(ctx context.Context, tx *repository.Store, b *domain.Booking, paymentType domain.PaymentType, now time.Time) error {
	switch b.Status {
	case domain.BookingPending, domain.BookingTherapistConfirmed:
		if err := b.Transition(domain.BookingConfirmed); err != nil {
			return err
		}
		if b.ConfirmedAt == nil {
			b.ConfirmedAt = domain.TimePtr(now)
		}
		if err := tx.Bookings.Save(ctx, b); err != nil {
			return err
		}
		fallthrough
	case domain.BookingConfirmed:
		if err := b.Transition(domain.BookingPaid); err != nil {
			return err
		}
	case domain.BookingPaid:
	default:
		return fmt.Errorf("%w: cannot take payment on a %s booking", domain.ErrInvalidStateTransition, b.Status)
	}

	if paymentType == domain.PaymentTypeFull {
		b.PaymentStatus = domain.PaymentCompleted
	} else if b.PaymentStatus == domain.PaymentPending {
		b.PaymentStatus = domain.PaymentPartial
	}
	return tx.Bookings.Save(ctx, b)
}

// paidSoFar sums what completed gateway payments already collected for the
// booking, together with the total those orders were priced against.
func (s *Service) paidSoFar(ctx context.Context, bookingID string) (int64, int64, error) {
	payments, err := s.store.Payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return 0, 0, err
	}
	var paid, total int64
	for _, p := range payments {
		if p.Status != domain.PaymentRecordCompleted || p.Method != domain.MethodRazorpay {
			continue
		}
		paid += p.AdvancePaid
		total = p.TotalAmount
	}
	return paid, total, nil
}

func (s *Service) failPayment(ctx context.Context, p *domain.Payment, gatewayPaymentID, reason string) error {
	if err := p.Transition(domain.PaymentRecordFailed); err != nil {
		return err
	}
	p.GatewayPaymentID = gatewayPaymentID
	p.FailureReason = reason
	err := s.store.Payments.SaveFrom(ctx, p, domain.PaymentRecordPending)
	if errors.Is(err, domain.ErrConflictingTransition) {
		return nil
	}
	return err
}

func (s *Service) emit(ctx context.Context, typ string, b *domain.Booking, actorID string) {
	var ownerID string
	if biz, err := s.store.Catalog.GetBusiness(ctx, b.BusinessID); err == nil {
		ownerID = biz.OwnerID
	}
	s.notifier.Notify(ctx, notification.BookingEvent(typ, b, ownerID, actorID, s.now()))
}

func payable(status domain.BookingStatus) bool {
	switch status {
	case domain.BookingPending, domain.BookingTherapistConfirmed, domain.BookingConfirmed, domain.BookingPaid:
		return true
	}
	return false
}
