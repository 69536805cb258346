package repository

import (
	"context"

	"gorm.io/gorm"

	"wellness/internal/domain"
)

// CatalogRepository reads the businesses, services and therapists that
// bookings reference.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	var b domain.Business
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, notFound(err, "business", id)
	}
	return &b, nil
}

func (r *CatalogRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	var s domain.Service
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, "service", id)
	}
	return &s, nil
}

func (r *CatalogRepository) GetTherapist(ctx context.Context, id string) (*domain.Therapist, error) {
	var t domain.Therapist
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound(err, "therapist", id)
	}
	return &t, nil
}

func (r *CatalogRepository) CreateBusiness(ctx context.Context, b *domain.Business) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *CatalogRepository) CreateService(ctx context.Context, s *domain.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *CatalogRepository) CreateTherapist(ctx context.Context, t *domain.Therapist) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *CatalogRepository) ListBusinessIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Business{}).
		Where("owner_id = ?", ownerID).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *CatalogRepository) ListTherapists(ctx context.Context, businessID string) ([]domain.Therapist, error) {
	var rows []domain.Therapist
	if err := r.db.WithContext(ctx).Where("business_id = ?", businessID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepository) UpdateBusiness(ctx context.Context, b *domain.Business) error {
	return r.db.WithContext(ctx).
		Model(&domain.Business{}).
		Where("id = ?", b.ID).
		Select("Name", "OpenTime", "CloseTime", "BreakMinutes", "UpdatedAt").
		Updates(b).Error
}

func (r *CatalogRepository) ListBusinesses(ctx context.Context, limit, offset int) ([]domain.Business, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Business{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.Business
	if err := r.db.WithContext(ctx).Order("name").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *CatalogRepository) ListServices(ctx context.Context, businessID string) ([]domain.Service, error) {
	var rows []domain.Service
	if err := r.db.WithContext(ctx).Where("business_id = ?", businessID).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
