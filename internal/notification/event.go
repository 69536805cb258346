package notification

import (
	"context"
	"time"

	"wellness/internal/domain"
)

// Event types pushed to connected clients.
const (
	TypeBookingCreated     = "booking.created"
	TypeBookingApproved    = "booking.approved"
	TypeBookingCancelled   = "booking.cancelled"
	TypeBookingExpired     = "booking.expired"
	TypeTherapistResponded = "booking.therapist_responded"
	TypeBookingReleased    = "booking.released"
	TypeBookingCompleted   = "booking.completed"
	TypeBookingRescheduled = "booking.rescheduled"
	TypeBookingNoShow      = "booking.no_show"
	TypeTherapistAssigned  = "booking.therapist_assigned"
	TypePaymentRecorded    = "payment.recorded"
	TypePaymentCompleted   = "payment.completed"
	TypePaymentFailed      = "payment.failed"
	TypePaymentRefunded    = "payment.refunded"
	TypePayoutPaid         = "payout.paid"
)

// Event describes a booking change after it has been committed.
type Event struct {
	Type            string               `json:"type"`
	BookingID       string               `json:"booking_id"`
	CustomerID      string               `json:"customer_id"`
	TherapistID     string               `json:"therapist_id,omitempty"`
	BusinessID      string               `json:"business_id"`
	BusinessOwnerID string               `json:"business_owner_id,omitempty"`
	Status          domain.BookingStatus `json:"status"`
	CustomerStatus  domain.BookingStatus `json:"customer_status"`
	PaymentStatus   domain.PaymentStatus `json:"payment_status"`
	BusinessOnly    bool                 `json:"business_only"`
	ActorID         string               `json:"actor_id,omitempty"`
	At              time.Time            `json:"at"`
}

// BookingEvent snapshots b for delivery.
func BookingEvent(typ string, b *domain.Booking, ownerID, actorID string, at time.Time) Event {
	ev := Event{
		Type:            typ,
		BookingID:       b.ID,
		CustomerID:      b.CustomerID,
		BusinessID:      b.BusinessID,
		BusinessOwnerID: ownerID,
		Status:          b.Status,
		CustomerStatus:  b.StatusForCustomer(),
		PaymentStatus:   b.PaymentStatus,
		BusinessOnly:    b.ResponseVisibleToBusinessOnly,
		ActorID:         actorID,
		At:              at.UTC(),
	}
	if b.TherapistID != nil {
		ev.TherapistID = *b.TherapistID
	}
	return ev
}

// Notifier is fire-and-forget: delivery problems never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
