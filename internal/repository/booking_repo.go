package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"wellness/internal/domain"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type BookingFilter struct {
	CustomerID      string
	TherapistID     string
	BusinessID      string
	BusinessIDs     []string
	Statuses        []domain.BookingStatus
	PaymentStatuses []domain.PaymentStatus
	DateFrom        string
	DateTo          string
	Limit           int
	Offset          int
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, notFound(err, "booking", id)
	}
	return &b, nil
}

// Save writes every column of b only if the stored row still carries
// b.Version. A concurrent writer that got there first makes this fail with
// ErrConflictingTransition instead of being silently overwritten.
func (r *BookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	expected := b.Version
	next := *b
	next.Version = expected + 1
	next.UpdatedAt = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND version = ?", b.ID, expected).
		Select("*").
		Omit("ID", "CreatedAt").
		Updates(&next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cnt int64
		if err := r.db.WithContext(ctx).Model(&domain.Booking{}).Where("id = ?", b.ID).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return fmt.Errorf("%w: booking %s", domain.ErrNotFound, b.ID)
		}
		return fmt.Errorf("%w: booking %s changed since version %d", domain.ErrConflictingTransition, b.ID, expected)
	}

	*b = next
	return nil
}

// ListExpirable returns pending and confirmed bookings that started at or before cutoff.
func (r *BookingRepository) ListExpirable(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed}).
		Where("starts_at <= ?", cutoff.UTC()).
		Order("starts_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Model(&domain.Booking{})

	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.TherapistID != "" {
		q = q.Where("therapist_id = ?", f.TherapistID)
	}
	if f.BusinessID != "" {
		q = q.Where("business_id = ?", f.BusinessID)
	}
	if len(f.BusinessIDs) > 0 {
		q = q.Where("business_id IN ?", f.BusinessIDs)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.PaymentStatuses) > 0 {
		q = q.Where("payment_status IN ?", f.PaymentStatuses)
	}
	if f.DateFrom != "" {
		q = q.Where("date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("date <= ?", f.DateTo)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var rows []domain.Booking
	if err := q.Order("starts_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
