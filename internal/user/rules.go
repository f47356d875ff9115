package user

import (
	"context"

	"github.com/frahmantamala/tenant-admin/internal"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/permission"
	"github.com/frahmantamala/tenant-admin/internal/tenant"
)

// Hydrate converts rows and attaches their tenant and roles, plus direct
// permissions when withPermissions is set.
func Hydrate(ctx context.Context, repo RepositoryAPI, rows []*userDatamodel.User, withPermissions bool) ([]*User, error) {
	users := make([]*User, len(rows))
	if len(rows) == 0 {
		return users, nil
	}

	userIDs := make([]int64, len(rows))
	var tenantIDs []int64
	for i, row := range rows {
		userIDs[i] = row.ID
		if row.TenantID != nil {
			tenantIDs = append(tenantIDs, *row.TenantID)
		}
	}

	tenants, err := repo.Tenants(ctx, uniqueIDs(tenantIDs))
	if err != nil {
		return nil, err
	}
	roles, err := repo.RolesOf(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		u := FromDataModel(row)
		if row.TenantID != nil {
			if t, ok := tenants[*row.TenantID]; ok {
				u.Tenant = &TenantSummary{ID: t.ID, Name: t.Name, Slug: t.Slug}
			}
		}
		u.Roles = []RoleSummary{}
		for _, r := range roles[row.ID] {
			u.Roles = append(u.Roles, RoleSummary{ID: r.ID, Name: r.Name})
		}
		if withPermissions {
			direct, err := repo.DirectPermissionsOf(ctx, row.ID)
			if err != nil {
				return nil, err
			}
			u.Permissions = permission.FromDataModels(direct)
		}
		users[i] = u
	}
	return users, nil
}

// EnsureEmailFree fails with ConflictEmail when another user holds email.
func EnsureEmailFree(ctx context.Context, repo RepositoryAPI, email string, excludeID int64) error {
	taken, err := repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrConflictEmail
	}
	return nil
}

func ensureTenant(ctx context.Context, repo RepositoryAPI, tenantID *int64) error {
	if tenantID == nil {
		return nil
	}
	ok, err := repo.TenantExists(ctx, *tenantID)
	if err != nil {
		return err
	}
	if !ok {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// EnsureRolesInTenant fails with ForeignRole unless every id names a role of
// the tenant. A user without a tenant can hold no role.
func EnsureRolesInTenant(ctx context.Context, repo RepositoryAPI, tenantID *int64, roleIDs []int64) error {
	return ensureRolesInTenant(ctx, repo, tenantID, uniqueIDs(roleIDs))
}

func ensureRolesInTenant(ctx context.Context, repo RepositoryAPI, tenantID *int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if tenantID == nil {
		return internal.ErrForeignRole
	}
	roles, err := repo.RolesInTenant(ctx, *tenantID, ids)
	if err != nil {
		return err
	}
	if len(roles) != len(ids) {
		return internal.ErrForeignRole
	}
	return nil
}

func sameTenant(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
