package booking

import (
	"context"
	"fmt"

	"wellness/internal/domain"
	"wellness/internal/repository"
)

// CanManageBusiness allows admins and the business's owner.
func CanManageBusiness(ctx context.Context, catalog *repository.CatalogRepository, actor domain.Actor, businessID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsBusiness() {
		return fmt.Errorf("%w: role %s cannot manage business %s", domain.ErrForbidden, actor.Role, businessID)
	}
	biz, err := catalog.GetBusiness(ctx, businessID)
	if err != nil {
		return err
	}
	if biz.OwnerID != actor.ID {
		return fmt.Errorf("%w: business %s is not owned by %s", domain.ErrForbidden, businessID, actor.ID)
	}
	return nil
}

// CanView allows the booking's customer and therapist, its business and admins.
func CanView(ctx context.Context, catalog *repository.CatalogRepository, actor domain.Actor, b *domain.Booking) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleCustomer:
		if b.CustomerID == actor.ID {
			return nil
		}
	case domain.RoleTherapist:
		if b.HasTherapist(actor.ID) {
			return nil
		}
	case domain.RoleBusiness:
		return CanManageBusiness(ctx, catalog, actor, b.BusinessID)
	}
	return fmt.Errorf("%w: booking %s", domain.ErrForbidden, b.ID)
}
