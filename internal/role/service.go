package role

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/authz"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	"github.com/frahmantamala/tenant-admin/internal/core/events"
	"github.com/frahmantamala/tenant-admin/internal/permission"
	"github.com/frahmantamala/tenant-admin/pkg/logger"
)

type RepositoryAPI interface {
	InTx(ctx context.Context, fn func(repo RepositoryAPI) error) error
	Create(ctx context.Context, role *roleDatamodel.Role) error
	GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error)
	GetByIDInTenant(ctx context.Context, id, tenantID int64) (*roleDatamodel.Role, error)
	List(ctx context.Context, tenantID int64, limit, offset int) ([]*roleDatamodel.Role, int64, error)
	NameTaken(ctx context.Context, tenantID int64, name string, excludeID int64) (bool, error)
	Update(ctx context.Context, role *roleDatamodel.Role) error
	// Delete removes the role together with its permission and user links.
	Delete(ctx context.Context, id int64) error
	PermissionsByIDs(ctx context.Context, ids []int64) ([]*permissionDatamodel.Permission, error)
	PermissionsOf(ctx context.Context, roleIDs []int64) (map[int64][]*permissionDatamodel.Permission, error)
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
}

type Service struct {
	repo   RepositoryAPI
	events events.Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

// OwnerLookup resolves the tenant of a role for route-level isolation.
func OwnerLookup(repo RepositoryAPI) authz.OwnerLookup {
	return func(ctx context.Context, id int64) (authz.Ownership, error) {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return authz.Ownership{}, err
		}
		if row == nil {
			return authz.NotFound(), nil
		}
		return authz.OwnedBy(authz.BelongsTo(row.TenantID)), nil
	}
}

func (s *Service) Create(ctx context.Context, tenantID int64, dto CreateRoleDTO) (*Role, error) {
	r := &Role{
		Name:        normalizeName(dto.Name),
		Description: dto.Description,
		TenantID:    tenantID,
	}
	ids := uniqueIDs(dto.PermissionIDs)

	var created *Role
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		if err := ensureNameFree(ctx, repo, tenantID, r.Name, 0); err != nil {
			return err
		}
		if err := ensurePermissions(ctx, repo, ids); err != nil {
			return err
		}

		row := ToDataModel(r)
		if err := repo.Create(ctx, row); err != nil {
			return err
		}
		if err := repo.ReplacePermissions(ctx, row.ID, ids); err != nil {
			return err
		}
		loaded, err := load(ctx, repo, tenantID, row.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, s.wrap(ctx, "create role", err)
	}

	s.logger.InfoContext(ctx, "role created", "role_id", created.ID, "tenant_id", tenantID)
	s.publish(ctx, events.RoleCreated, map[string]interface{}{"role_id": created.ID, "tenant_id": tenantID})
	return created, nil
}

func (s *Service) List(ctx context.Context, tenantID int64, q pagination.Query) (pagination.Page[*Role], error) {
	rows, total, err := s.repo.List(ctx, tenantID, q.Limit, q.Offset())
	if err != nil {
		return pagination.Page[*Role]{}, s.wrap(ctx, "list roles", err)
	}

	roles, err := hydrate(ctx, s.repo, rows)
	if err != nil {
		return pagination.Page[*Role]{}, s.wrap(ctx, "list roles", err)
	}
	return pagination.NewPage(roles, total, q), nil
}

func (s *Service) Get(ctx context.Context, tenantID, id int64) (*Role, error) {
	r, err := load(ctx, s.repo, tenantID, id)
	if err != nil {
		return nil, s.wrap(ctx, "get role", err)
	}
	return r, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id int64, dto UpdateRoleDTO) (*Role, error) {
	var updated *Role
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByIDInTenant(ctx, id, tenantID)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrResourceNotFound
		}

		if dto.Name != nil {
			name := normalizeName(*dto.Name)
			if name != row.Name {
				if err := ensureNameFree(ctx, repo, tenantID, name, id); err != nil {
					return err
				}
				row.Name = name
			}
		}
		if dto.Description != nil {
			row.Description = dto.Description
		}

		if err := repo.Update(ctx, row); err != nil {
			return err
		}
		updated, err = load(ctx, repo, tenantID, id)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "update role", err)
	}

	s.publish(ctx, events.RoleUpdated, map[string]interface{}{"role_id": id, "tenant_id": tenantID})
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByIDInTenant(ctx, id, tenantID)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrResourceNotFound
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return s.wrap(ctx, "delete role", err)
	}

	s.publish(ctx, events.RoleDeleted, map[string]interface{}{"role_id": id, "tenant_id": tenantID})
	return nil
}

// ReplacePermissions sets the role's permissions to exactly permissionIDs.
func (s *Service) ReplacePermissions(ctx context.Context, tenantID, id int64, permissionIDs []int64) (*Role, error) {
	ids := uniqueIDs(permissionIDs)

	var updated *Role
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByIDInTenant(ctx, id, tenantID)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrResourceNotFound
		}
		if err := ensurePermissions(ctx, repo, ids); err != nil {
			return err
		}
		if err := repo.ReplacePermissions(ctx, id, ids); err != nil {
			return err
		}
		updated, err = load(ctx, repo, tenantID, id)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "replace role permissions", err)
	}

	s.publish(ctx, events.RolePermsReplaced, map[string]interface{}{"role_id": id, "permission_ids": ids})
	return updated, nil
}

func load(ctx context.Context, repo RepositoryAPI, tenantID, id int64) (*Role, error) {
	row, err := repo.GetByIDInTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, internal.ErrResourceNotFound
	}
	roles, err := hydrate(ctx, repo, []*roleDatamodel.Role{row})
	if err != nil {
		return nil, err
	}
	return roles[0], nil
}

func hydrate(ctx context.Context, repo RepositoryAPI, rows []*roleDatamodel.Role) ([]*Role, error) {
	roles := make([]*Role, len(rows))
	if len(rows) == 0 {
		return roles, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	perms, err := repo.PermissionsOf(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		r := FromDataModel(row)
		if p := perms[row.ID]; len(p) > 0 {
			r.Permissions = permission.FromDataModels(p)
		}
		roles[i] = r
	}
	return roles, nil
}

func ensureNameFree(ctx context.Context, repo RepositoryAPI, tenantID int64, name string, excludeID int64) error {
	taken, err := repo.NameTaken(ctx, tenantID, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrConflictRoleName
	}
	return nil
}

func ensurePermissions(ctx context.Context, repo RepositoryAPI, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := repo.PermissionsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return internal.ErrUnknownPermission
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) wrap(ctx context.Context, op string, err error) error {
	if _, ok := internal.AsAppError(err); ok {
		return err
	}
	logger.FromOr(ctx, s.logger).ErrorContext(ctx, "role store failure", "op", op, "error", err)
	return internal.NewInternalError("failed to "+op, err)
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.events.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", eventType, "error", err)
	}
}
