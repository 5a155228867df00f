package domain

import (
	"time"

	"github.com/authkeep/authkeep/internal/apperr"
)

// Tenant is the isolation boundary under which users, sessions, and
// resources are scoped. Every repository query filters by tenant id.
type Tenant struct {
	ID        string
	Name      string
	Status    TenantStatus
	CreatedAt time.Time
}

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Validate validates the tenant for persistence.
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return apperr.Validation("TENANT_NAME_REQUIRED", "name is required")
	}
	if t.Status == "" {
		t.Status = TenantStatusActive
	}
	return nil
}
