package domain

import (
	"fmt"
	"strings"
)

type UserRole string

const (
	RoleCustomer  UserRole = "customer"
	RoleTherapist UserRole = "therapist"
	RoleBusiness  UserRole = "business"
	RoleAdmin     UserRole = "admin"
)

// ParseRole normalizes a role claim. Tokens issued by older clients carry
// mixed-case values ("Therapist", "BUSINESS"), so matching is case-insensitive.
func ParseRole(s string) (UserRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "client":
		return RoleCustomer, nil
	case "therapist":
		return RoleTherapist, nil
	case "business", "business_owner":
		return RoleBusiness, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

// Actor is the authenticated caller of a booking or payment operation.
type Actor struct {
	ID   string   `json:"id"`
	Role UserRole `json:"role"`
}

func (a Actor) IsAdmin() bool     { return a.Role == RoleAdmin }
func (a Actor) IsTherapist() bool { return a.Role == RoleTherapist }
func (a Actor) IsCustomer() bool  { return a.Role == RoleCustomer }
func (a Actor) IsBusiness() bool  { return a.Role == RoleBusiness }
