package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellness/internal/domain"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Reserve books [start, end) on date for the therapist. It must run inside a
// transaction: the therapist row is locked first, so reservations for one
// therapist are serialised and the overlap check below cannot race. The
// unique (therapist, date, start) index backs it up; the loser gets
// ErrSlotUnavailable.
func (r *SlotRepository) Reserve(ctx context.Context, therapistID, date, start, end, bookingID string) error {
	db := r.db.WithContext(ctx)
	now := time.Now().UTC()

	var therapist domain.Therapist
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", therapistID).
		First(&therapist).Error
	if err != nil {
		return notFound(err, "therapist", therapistID)
	}

	var overlapping int64
	err = db.Model(&domain.TherapistAvailability{}).
		Where("therapist_id = ? AND date = ? AND status = ?", therapistID, date, domain.SlotBooked).
		Where("start_time < ? AND end_time > ?", end, start).
		Count(&overlapping).Error
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return fmt.Errorf("%w: therapist %s on %s at %s", domain.ErrSlotUnavailable, therapistID, date, start)
	}

	res := db.Model(&domain.TherapistAvailability{}).
		Where("therapist_id = ? AND date = ? AND start_time = ? AND status = ?", therapistID, date, start, domain.SlotAvailable).
		Updates(map[string]any{
			"status":     domain.SlotBooked,
			"end_time":   end,
			"booking_id": bookingID,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	slot := &domain.TherapistAvailability{
		ID:          uuid.NewString(),
		TherapistID: therapistID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Status:      domain.SlotBooked,
		BookingID:   domain.StringPtr(bookingID),
		UpdatedAt:   now,
	}
	if err := db.Create(slot).Error; err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: therapist %s on %s at %s", domain.ErrSlotUnavailable, therapistID, date, start)
		}
		return err
	}
	return nil
}

// Release frees whatever slot the booking holds. Releasing twice is a no-op.
func (r *SlotRepository) Release(ctx context.Context, bookingID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.TherapistAvailability{}).
		Where("booking_id = ? AND status = ?", bookingID, domain.SlotBooked).
		Updates(map[string]any{
			"status":     domain.SlotAvailable,
			"booking_id": nil,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *SlotRepository) ListBooked(ctx context.Context, therapistID, date string) ([]domain.TherapistAvailability, error) {
	var rows []domain.TherapistAvailability
	q := r.db.WithContext(ctx).
		Where("date = ? AND status = ?", date, domain.SlotBooked)
	if therapistID != "" {
		q = q.Where("therapist_id = ?", therapistID)
	}
	if err := q.Order("start_time").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
