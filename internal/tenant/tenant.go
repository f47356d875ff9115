package tenant

import (
	"time"

	tenantDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/tenant"
)

type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Document  *string   `json:"document"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Tenant) Toggle() {
	t.IsActive = !t.IsActive
}

func NewTenant(name, slug string, document *string, active bool) *Tenant {
	return &Tenant{
		Name:     name,
		Slug:     slug,
		Document: document,
		IsActive: active,
	}
}

func ToDataModel(t *Tenant) *tenantDatamodel.Tenant {
	return &tenantDatamodel.Tenant{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Document:  t.Document,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func FromDataModel(t *tenantDatamodel.Tenant) *Tenant {
	return &Tenant{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Document:  t.Document,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
