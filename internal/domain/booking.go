package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending            BookingStatus = "pending"
	BookingTherapistConfirmed BookingStatus = "therapist_confirmed"
	BookingTherapistRejected  BookingStatus = "therapist_rejected"
	BookingConfirmed          BookingStatus = "confirmed"
	BookingPaid               BookingStatus = "paid"
	BookingCompleted          BookingStatus = "completed"
	BookingCancelled          BookingStatus = "cancelled"
	BookingNoShow             BookingStatus = "no-show"
	BookingRescheduled        BookingStatus = "rescheduled"
)

// PaymentStatus is the booking-level payment axis, independent of Status.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
)

type PayoutStatus string

const (
	PayoutNone    PayoutStatus = ""
	PayoutPending PayoutStatus = "pending"
	PayoutPaid    PayoutStatus = "paid"
)

const CancellationReasonExpired = "expired"

type Booking struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	CustomerID  string  `gorm:"size:36;not null;index" json:"customer_id"`
	TherapistID *string `gorm:"size:36;index" json:"therapist_id,omitempty"`
	ServiceID   string  `gorm:"size:36;not null" json:"service_id"`
	BusinessID  string  `gorm:"size:36;not null;index" json:"business_id"`

	Date            string    `gorm:"size:10;not null" json:"date"`
	Time            string    `gorm:"size:5;not null" json:"time"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	StartsAt        time.Time `gorm:"not null;index" json:"starts_at"`
	ServicePrice    int64     `gorm:"not null" json:"service_price"`

	Status        BookingStatus `gorm:"size:32;not null;default:'pending';index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"size:16;not null;default:'pending'" json:"payment_status"`

	AssignedByAdmin               bool       `gorm:"not null;default:false" json:"assigned_by_admin"`
	ResponseVisibleToBusinessOnly bool       `gorm:"not null;default:false" json:"response_visible_to_business_only"`
	TherapistResponded            bool       `gorm:"not null;default:false" json:"therapist_responded"`
	ReleasedAt                    *time.Time `json:"released_at,omitempty"`

	ConfirmedBy        *string    `gorm:"size:36" json:"confirmed_by,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledBy        *string    `gorm:"size:36" json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason,omitempty"`
	RescheduledBy      *string    `gorm:"size:36" json:"rescheduled_by,omitempty"`
	RescheduledAt      *time.Time `json:"rescheduled_at,omitempty"`
	OriginalDate       string     `gorm:"size:10" json:"original_date,omitempty"`
	OriginalTime       string     `gorm:"size:5" json:"original_time,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	TherapistPayoutStatus PayoutStatus `gorm:"size:16" json:"therapist_payout_status,omitempty"`
	TherapistPayoutAmount int64        `json:"therapist_payout_amount"`
	TherapistPaidAt       *time.Time   `json:"therapist_paid_at,omitempty"`

	// Version guards every write; see repository.BookingRepository.Save.
	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

type NewBookingParams struct {
	CustomerID      string
	TherapistID     *string
	ServiceID       string
	BusinessID      string
	Date            string
	Time            string
	DurationMinutes int
	ServicePrice    int64
	StartsAt        time.Time
	AssignedByAdmin bool
}

// NewBooking is the only way bookings are created, so the visibility gate
// always starts as an explicit false.
func NewBooking(p NewBookingParams, now time.Time) *Booking {
	return &Booking{
		ID:                            uuid.NewString(),
		CustomerID:                    p.CustomerID,
		TherapistID:                   p.TherapistID,
		ServiceID:                     p.ServiceID,
		BusinessID:                    p.BusinessID,
		Date:                          p.Date,
		Time:                          p.Time,
		DurationMinutes:               p.DurationMinutes,
		StartsAt:                      p.StartsAt.UTC(),
		ServicePrice:                  p.ServicePrice,
		Status:                        BookingPending,
		PaymentStatus:                 PaymentPending,
		AssignedByAdmin:               p.AssignedByAdmin,
		ResponseVisibleToBusinessOnly: false,
		TherapistResponded:            false,
		Version:                       1,
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}
}

// StatusForCustomer hides a therapist's response until the business releases it.
func (b *Booking) StatusForCustomer() BookingStatus {
	if b.ResponseVisibleToBusinessOnly {
		return BookingPending
	}
	return b.Status
}

func (b *Booking) HasTherapist(id string) bool {
	return b.TherapistID != nil && *b.TherapistID == id
}

func (b *Booking) EndsAt() time.Time {
	return b.StartsAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// CustomerView is the booking as the customer is allowed to see it.
type CustomerView struct {
	ID            string        `json:"id"`
	ServiceID     string        `json:"service_id"`
	BusinessID    string        `json:"business_id"`
	TherapistID   *string       `json:"therapist_id,omitempty"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	ServicePrice  int64         `json:"service_price"`
	OriginalDate  string        `json:"original_date,omitempty"`
	OriginalTime  string        `json:"original_time,omitempty"`
}

func (b *Booking) ForCustomer() CustomerView {
	return CustomerView{
		ID:            b.ID,
		ServiceID:     b.ServiceID,
		BusinessID:    b.BusinessID,
		TherapistID:   b.TherapistID,
		Date:          b.Date,
		Time:          b.Time,
		Status:        b.StatusForCustomer(),
		PaymentStatus: b.PaymentStatus,
		ServicePrice:  b.ServicePrice,
		OriginalDate:  b.OriginalDate,
		OriginalTime:  b.OriginalTime,
	}
}

func ptr[T any](v T) *T { return &v }

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string { return ptr(s) }

// TimePtr returns a pointer to a copy of t.
func TimePtr(t time.Time) *time.Time { return ptr(t) }
