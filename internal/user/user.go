package user

import (
	userDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/user"
)

// Repository is the identity store.
type Repository interface {
	GetByID(id int64) (*userDatamodel.User, error)
	GetByEmail(email string) (*userDatamodel.User, error)
	Create(u *userDatamodel.User) error
}

// Profile is the boundary shape of a user; the password hash never leaves
// the service.
type Profile struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func ProfileFrom(u *userDatamodel.User) Profile {
	return Profile{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role.String(),
		IsActive: u.IsActive,
	}
}
