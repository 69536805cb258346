package earnings

import "wellness/internal/domain"

// View is one earnings projection with its totals. Nothing here is stored;
// every call derives it from booking state.
type View struct {
	Bookings       []domain.Booking `json:"bookings"`
	Count          int              `json:"count"`
	Gross          int64            `json:"gross"`
	TherapistShare int64            `json:"therapist_share"`
}

type Earnings struct {
	HalfPayment View `json:"half_payment"`
	FullPayment View `json:"full_payment"`
}

type PayoutSummary struct {
	TherapistID   string `json:"therapist_id"`
	PendingCount  int    `json:"pending_count"`
	PendingAmount int64  `json:"pending_amount"`
	PaidCount     int    `json:"paid_count"`
	PaidAmount    int64  `json:"paid_amount"`
}

// Scope selects whose bookings a view covers. Exactly one field is set.
type Scope struct {
	BusinessID  string
	TherapistID string
}
