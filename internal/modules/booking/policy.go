package booking

import (
	"time"

	"wellness/internal/domain"
)

// IsExpired reports whether a pending or confirmed booking has passed its
// start plus grace. Other statuses never expire.
func IsExpired(b *domain.Booking, now time.Time, grace time.Duration) bool {
	if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
		return false
	}
	return !b.StartsAt.Add(grace).After(now)
}

// ShouldRestrictReschedule blocks non-therapists from moving a booking that
// starts within window of now.
func ShouldRestrictReschedule(startsAt, now time.Time, role domain.UserRole, window time.Duration) bool {
	if role == domain.RoleTherapist {
		return false
	}
	return startsAt.Sub(now) < window
}
