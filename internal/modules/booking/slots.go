package booking

import (
	"fmt"

	"wellness/internal/domain"
)

// Slot is a bookable window on one day, as HH:MM clock strings.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ComputeSlots lays out back-to-back appointments of durationMin, separated
// by breakMin, from open until the last one that still ends by close.
func ComputeSlots(open, close string, durationMin, breakMin int) ([]Slot, error) {
	if durationMin <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
	}
	if breakMin < 0 {
		return nil, fmt.Errorf("%w: break must not be negative", domain.ErrValidation)
	}
	from, err := domain.ParseClock(open)
	if err != nil {
		return nil, err
	}
	to, err := domain.ParseClock(close)
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for start := from; start+durationMin <= to; start += durationMin + breakMin {
		slots = append(slots, Slot{
			Start: domain.FormatClock(start),
			End:   domain.FormatClock(start + durationMin),
		})
	}
	return slots, nil
}

// overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// HH:MM strings compare correctly as text.
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return mustClock(aStart) < mustClock(bEnd) && mustClock(bStart) < mustClock(aEnd)
}

// withinHours checks that a booking of durationMin starting at clock fits
// inside the business day.
func withinHours(biz *domain.Business, clock string, durationMin int) (string, error) {
	start, err := domain.ParseClock(clock)
	if err != nil {
		return "", err
	}
	open, err := domain.ParseClock(biz.OpenTime)
	if err != nil {
		return "", err
	}
	closing, err := domain.ParseClock(biz.CloseTime)
	if err != nil {
		return "", err
	}
	end := start + durationMin
	if start < open || end > closing {
		return "", fmt.Errorf("%w: %s-%s is outside business hours %s-%s",
			domain.ErrValidation, clock, domain.FormatClock(end), biz.OpenTime, biz.CloseTime)
	}
	return domain.FormatClock(end), nil
}
