package domain

import "fmt"

// bookingTransitions lists every edge a booking status may take. Terminal
// statuses have no outgoing edges.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending: {
		BookingConfirmed,
		BookingTherapistConfirmed,
		BookingTherapistRejected,
		BookingCancelled,
		BookingRescheduled,
	},
	BookingTherapistConfirmed: {BookingConfirmed, BookingCancelled},
	BookingTherapistRejected:  {BookingPending, BookingCancelled},
	BookingConfirmed: {
		BookingPaid,
		BookingCompleted,
		BookingCancelled,
		BookingNoShow,
		BookingRescheduled,
	},
	BookingPaid:        {BookingCompleted, BookingCancelled},
	BookingRescheduled: {BookingPending, BookingCancelled},
	BookingCompleted:   nil,
	BookingCancelled:   nil,
	BookingNoShow:      nil,
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled || s == BookingNoShow
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves b to the target status or reports why it cannot.
func (b *Booking) Transition(to BookingStatus) error {
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, b.Status, to)
	}
	b.Status = to
	return nil
}

// CheckInvariants reports booking states that no sequence of operations
// should be able to produce.
func (b *Booking) CheckInvariants() error {
	if !b.Status.Valid() {
		return fmt.Errorf("unknown status %q", b.Status)
	}
	switch b.PaymentStatus {
	case PaymentPending, PaymentPartial, PaymentCompleted:
	default:
		return fmt.Errorf("unknown payment status %q", b.PaymentStatus)
	}
	if (b.Status == BookingPaid || b.Status == BookingCompleted) && b.PaymentStatus == PaymentPending {
		return fmt.Errorf("status %s with payment status %s", b.Status, b.PaymentStatus)
	}
	if b.AssignedByAdmin && b.Status == BookingConfirmed && !b.ResponseVisibleToBusinessOnly &&
		b.TherapistResponded && b.ReleasedAt == nil {
		return fmt.Errorf("therapist response exposed without business release")
	}
	return nil
}
