package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wellness/internal/domain"
	"wellness/internal/modules/booking"
	"wellness/internal/pkg/logger"
	"wellness/internal/pkg/validator"
	"wellness/internal/repository"
)

// ValidationError carries per-field failures from request validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", domain.ErrValidation, e.Fields)
}

func (e *ValidationError) Unwrap() error { return domain.ErrValidation }

type Service struct {
	catalog *repository.CatalogRepository
	log     *zap.Logger
	now     func() time.Time
}

func NewService(catalog *repository.CatalogRepository, log *zap.Logger) *Service {
	return &Service{
		catalog: catalog,
		log:     logger.OrNop(log),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func check(req any) error {
	if errs := validator.Validate(req); errs != nil {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// checkHours requires a non-empty opening window that still fits one break
// and returns both clocks in canonical HH:MM form.
func checkHours(openAt, closeAt string, breakMin int) (string, string, error) {
	o, err := domain.ParseClock(openAt)
	if err != nil {
		return "", "", err
	}
	c, err := domain.ParseClock(closeAt)
	if err != nil {
		return "", "", err
	}
	if c <= o {
		return "", "", fmt.Errorf("%w: close_time %s must be after open_time %s", domain.ErrValidation, closeAt, openAt)
	}
	if breakMin >= c-o {
		return "", "", fmt.Errorf("%w: break of %d minutes does not fit opening hours", domain.ErrValidation, breakMin)
	}
	return domain.FormatClock(o), domain.FormatClock(c), nil
}

func (s *Service) CreateBusiness(ctx context.Context, actor domain.Actor, req CreateBusinessRequest) (*domain.Business, error) {
	if !actor.IsBusiness() && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: role %s cannot create businesses", domain.ErrForbidden, actor.Role)
	}
	if err := check(req); err != nil {
		return nil, err
	}
	openAt, closeAt, err := checkHours(req.OpenTime, req.CloseTime, req.BreakMinutes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &domain.Business{
		ID:           uuid.NewString(),
		OwnerID:      actor.ID,
		Name:         req.Name,
		OpenTime:     openAt,
		CloseTime:    closeAt,
		BreakMinutes: req.BreakMinutes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.catalog.CreateBusiness(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info("business created", zap.String("business_id", b.ID), zap.String("owner_id", actor.ID))
	return b, nil
}

func (s *Service) ListBusinesses(ctx context.Context, page, limit int) ([]domain.Business, Pagination, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	rows, total, err := s.catalog.ListBusinesses(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	return rows, Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (int(total) + limit - 1) / limit,
	}, nil
}

func (s *Service) GetBusiness(ctx context.Context, id string) (*BusinessDetails, error) {
	biz, err := s.catalog.GetBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	services, err := s.catalog.ListServices(ctx, id)
	if err != nil {
		return nil, err
	}
	therapists, err := s.catalog.ListTherapists(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BusinessDetails{Business: biz, Services: services, Therapists: therapists}, nil
}

// UpdateHours changes the window the slot grid is computed from. Existing
// bookings keep their times.
func (s *Service) UpdateHours(ctx context.Context, actor domain.Actor, businessID string, req UpdateHoursRequest) (*domain.Business, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	openAt, closeAt, err := checkHours(req.OpenTime, req.CloseTime, req.BreakMinutes)
	if err != nil {
		return nil, err
	}
	if err := booking.CanManageBusiness(ctx, s.catalog, actor, businessID); err != nil {
		return nil, err
	}

	biz, err := s.catalog.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	biz.OpenTime = openAt
	biz.CloseTime = closeAt
	biz.BreakMinutes = req.BreakMinutes
	biz.UpdatedAt = s.now()
	if err := s.catalog.UpdateBusiness(ctx, biz); err != nil {
		return nil, err
	}
	s.log.Info("business hours updated",
		zap.String("business_id", biz.ID),
		zap.String("open", biz.OpenTime),
		zap.String("close", biz.CloseTime),
		zap.Int("break_minutes", biz.BreakMinutes))
	return biz, nil
}

func (s *Service) AddService(ctx context.Context, actor domain.Actor, businessID string, req CreateServiceRequest) (*domain.Service, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if err := booking.CanManageBusiness(ctx, s.catalog, actor, businessID); err != nil {
		return nil, err
	}

	now := s.now()
	svc := &domain.Service{
		ID:              uuid.NewString(),
		BusinessID:      businessID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.catalog.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) AddTherapist(ctx context.Context, actor domain.Actor, businessID string, req CreateTherapistRequest) (*domain.Therapist, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if err := booking.CanManageBusiness(ctx, s.catalog, actor, businessID); err != nil {
		return nil, err
	}

	if existing, err := s.catalog.GetTherapist(ctx, req.UserID); err == nil {
		return nil, fmt.Errorf("%w: therapist %s already works at business %s", domain.ErrValidation, req.UserID, existing.BusinessID)
	}

	t := &domain.Therapist{
		ID:         req.UserID,
		BusinessID: businessID,
		Name:       req.Name,
		CreatedAt:  s.now(),
	}
	if err := s.catalog.CreateTherapist(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info("therapist added", zap.String("therapist_id", t.ID), zap.String("business_id", businessID))
	return t, nil
}
