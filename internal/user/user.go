package user

import (
	"strings"
	"time"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/authz"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/permission"
)

type TenantSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type RoleSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID            int64                    `json:"id"`
	Email         string                   `json:"email"`
	Name          *string                  `json:"name"`
	PasswordHash  string                   `json:"-"`
	IsSuperAdmin  bool                     `json:"isSuperAdmin"`
	IsTenantAdmin bool                     `json:"isTenantAdmin"`
	TenantID      *int64                   `json:"tenantId"`
	IsActive      bool                     `json:"isActive"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
	Tenant        *TenantSummary           `json:"tenant,omitempty"`
	Roles         []RoleSummary            `json:"roles,omitempty"`
	Permissions   []*permission.Permission `json:"permissions,omitempty"`
}

func (u *User) Scope() authz.TenantScope {
	return authz.ScopeOf(u.TenantID)
}

// CheckInvariants rejects flag combinations that must never be stored.
func (u *User) CheckInvariants() error {
	if u.IsSuperAdmin && u.TenantID != nil {
		return internal.ErrSuperAdminWithTenant
	}
	if u.IsTenantAdmin && u.TenantID == nil {
		return internal.ErrTenantAdminWithoutTenant
	}
	return nil
}

func (u *User) Toggle() {
	u.IsActive = !u.IsActive
}

// Identity is the authorization view of the user.
func (u *User) Identity() *authz.Identity {
	return &authz.Identity{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		IsSuperAdmin:  u.IsSuperAdmin,
		IsTenantAdmin: u.IsTenantAdmin,
		Scope:         u.Scope(),
		IsActive:      u.IsActive,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		PasswordHash:  u.PasswordHash,
		IsSuperAdmin:  u.IsSuperAdmin,
		IsTenantAdmin: u.IsTenantAdmin,
		TenantID:      u.TenantID,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		PasswordHash:  u.PasswordHash,
		IsSuperAdmin:  u.IsSuperAdmin,
		IsTenantAdmin: u.IsTenantAdmin,
		TenantID:      u.TenantID,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
