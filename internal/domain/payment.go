package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type PaymentType string

const (
	PaymentTypeFull    PaymentType = "FULL"
	PaymentTypeAdvance PaymentType = "ADVANCE"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodRazorpay PaymentMethod = "razorpay"
)

// PaymentRecordStatus is the status of a single payment attempt.
type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
	PaymentRecordRefunded  PaymentRecordStatus = "refunded"
)

// Payment amounts are in base currency units; minor units exist only at the gateway boundary.
type Payment struct {
	ID               string              `gorm:"primaryKey;size:36" json:"id"`
	BookingID        string              `gorm:"size:36;not null;index" json:"booking_id"`
	Amount           int64               `gorm:"not null" json:"amount"`
	TotalAmount      int64               `gorm:"not null" json:"total_amount"`
	AdvancePaid      int64               `gorm:"not null;default:0" json:"advance_paid"`
	RemainingAmount  int64               `gorm:"not null;default:0" json:"remaining_amount"`
	PaymentType      PaymentType         `gorm:"size:16;not null" json:"payment_type"`
	Method           PaymentMethod       `gorm:"size:16;not null" json:"method"`
	Status           PaymentRecordStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
	Currency         string              `gorm:"size:8" json:"currency,omitempty"`
	Receipt          string              `gorm:"size:32" json:"receipt,omitempty"`
	GatewayOrderID   string              `gorm:"size:64;index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string              `gorm:"size:64" json:"gateway_payment_id,omitempty"`
	FailureReason    string              `gorm:"type:text" json:"failure_reason,omitempty"`
	RefundReason     string              `gorm:"type:text" json:"refund_reason,omitempty"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	RefundedAt       *time.Time          `json:"refunded_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

func NewPayment(bookingID string, method PaymentMethod, paymentType PaymentType, now time.Time) *Payment {
	return &Payment{
		ID:          uuid.NewString(),
		BookingID:   bookingID,
		Method:      method,
		PaymentType: paymentType,
		Status:      PaymentRecordPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

var paymentTransitions = map[PaymentRecordStatus][]PaymentRecordStatus{
	PaymentRecordPending:   {PaymentRecordCompleted, PaymentRecordFailed},
	PaymentRecordCompleted: {PaymentRecordRefunded},
}

// Transition enforces that completed payments only ever move to refunded.
func (p *Payment) Transition(to PaymentRecordStatus) error {
	for _, next := range paymentTransitions[p.Status] {
		if next == to {
			p.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: payment %s -> %s", ErrInvalidStateTransition, p.Status, to)
}

// PercentOf returns round(amount * percent / 100) in base units.
func PercentOf(amount int64, percent int) int64 {
	return int64(math.Round(float64(amount) * float64(percent) / 100))
}

const DefaultTherapistSharePercent = 40

// SharePercent falls back to the default for anything outside 1..100.
func SharePercent(percent int) int {
	if percent <= 0 || percent > 100 {
		return DefaultTherapistSharePercent
	}
	return percent
}

// ComputePayout is the therapist's share of a completed booking's price.
func ComputePayout(servicePrice int64, therapistSharePercent int) int64 {
	return PercentOf(servicePrice, therapistSharePercent)
}
