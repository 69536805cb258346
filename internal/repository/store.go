package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"wellness/internal/domain"
)

// Store groups the repositories that booking and payment operations share,
// so multi-step transitions can run inside one transaction.
type Store struct {
	db       *gorm.DB
	Bookings *BookingRepository
	Payments *PaymentRepository
	Slots    *SlotRepository
	Catalog  *CatalogRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Bookings: NewBookingRepository(db),
		Payments: NewPaymentRepository(db),
		Slots:    NewSlotRepository(db),
		Catalog:  NewCatalogRepository(db),
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// InTx runs fn with repositories bound to a single transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Models lists every table owned by this service, in migration order.
func Models() []any {
	return []any{
		&domain.Business{},
		&domain.Service{},
		&domain.Therapist{},
		&domain.Booking{},
		&domain.Payment{},
		&domain.TherapistAvailability{},
	}
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, what, id)
	}
	return err
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
