package domain

import (
	"time"

	"github.com/authkeep/authkeep/internal/apperr"
)

// User is the core user entity, scoped to a tenant.
type User struct {
	ID        string
	TenantID  string
	Email     string
	Name      string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence.
func (u *User) Validate() error {
	if u.TenantID == "" {
		return apperr.Validation("TENANT_REQUIRED", "tenant id is required")
	}
	if u.Email == "" {
		return apperr.Validation("EMAIL_REQUIRED", "email is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
