package booking

import (
	"time"

	"wellness/internal/domain"
)

type CreateBookingRequest struct {
	CustomerID  string `json:"customer_id"`
	ServiceID   string `json:"service_id" binding:"required"`
	TherapistID string `json:"therapist_id"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type RespondRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type RescheduleRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type AssignRequest struct {
	TherapistID string `json:"therapist_id" binding:"required"`
}

type ExpireRequest struct {
	Now *time.Time `json:"now"`
}

// ListFilter narrows List; role scoping is applied on top of it.
type ListFilter struct {
	BusinessID string                 `form:"business_id"`
	Statuses   []domain.BookingStatus `form:"status"`
	DateFrom   string                 `form:"date_from"`
	DateTo     string                 `form:"date_to"`
	Limit      int                    `form:"limit"`
	Offset     int                    `form:"offset"`
}

// ExpireFailure is a booking CancelExpired could not cancel.
type ExpireFailure struct {
	BookingID string `json:"booking_id"`
	Error     string `json:"error"`
}

type ExpireResult struct {
	Cancelled []domain.Booking `json:"cancelled"`
	Failures  []ExpireFailure  `json:"failures"`
}

// Present renders b for actor. Customers only ever see the gated view.
func Present(actor domain.Actor, b *domain.Booking) any {
	if actor.IsCustomer() {
		return b.ForCustomer()
	}
	return b
}

func PresentAll(actor domain.Actor, rows []domain.Booking) []any {
	out := make([]any, 0, len(rows))
	for i := range rows {
		out = append(out, Present(actor, &rows[i]))
	}
	return out
}
