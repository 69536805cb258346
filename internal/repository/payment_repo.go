package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"wellness/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "payment", id)
	}
	return &p, nil
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, bookingID, orderID string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND gateway_order_id = ?", bookingID, orderID).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "gateway order", orderID)
	}
	return &p, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	var rows []domain.Payment
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveFrom persists p only while the stored status is still from, so two
// callbacks for the same order cannot both complete it.
func (r *PaymentRepository) SaveFrom(ctx context.Context, p *domain.Payment, from domain.PaymentRecordStatus) error {
	p.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND status = ?", p.ID, from).
		Select("*").
		Omit("ID", "CreatedAt").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: payment %s is no longer %s", domain.ErrConflictingTransition, p.ID, from)
	}
	return nil
}
