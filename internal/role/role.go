package role

import (
	"strings"
	"time"

	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	"github.com/frahmantamala/tenant-admin/internal/permission"
)

// Role is a named permission bundle owned by exactly one tenant.
type Role struct {
	ID          int64                    `json:"id"`
	Name        string                   `json:"name"`
	Description *string                  `json:"description"`
	TenantID    int64                    `json:"tenantId"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
	Permissions []*permission.Permission `json:"permissions"`
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

func ToDataModel(r *Role) *roleDatamodel.Role {
	return &roleDatamodel.Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		TenantID:    r.TenantID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromDataModel(r *roleDatamodel.Role) *Role {
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		TenantID:    r.TenantID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Permissions: []*permission.Permission{},
	}
}
