package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/authz"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	tenantDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/core/events"
	"github.com/frahmantamala/tenant-admin/internal/core/security"
	"github.com/frahmantamala/tenant-admin/internal/permission"
	"github.com/frahmantamala/tenant-admin/pkg/logger"
)

var ErrNotFound = internal.NewNotFoundError("User not found", internal.ErrCodeResourceNotFound)

type RepositoryAPI interface {
	InTx(ctx context.Context, fn func(repo RepositoryAPI) error) error
	Create(ctx context.Context, user *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByIDInTenant(ctx context.Context, id, tenantID int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	// List pages users ordered by newest first; a non-nil tenantID restricts to that tenant.
	List(ctx context.Context, tenantID *int64, limit, offset int) ([]*userDatamodel.User, int64, error)
	Update(ctx context.Context, user *userDatamodel.User) error
	// Delete removes the user with its role and permission links.
	Delete(ctx context.Context, id int64) error
	TenantExists(ctx context.Context, id int64) (bool, error)
	Tenants(ctx context.Context, ids []int64) (map[int64]*tenantDatamodel.Tenant, error)
	RolesInTenant(ctx context.Context, tenantID int64, ids []int64) ([]*roleDatamodel.Role, error)
	RolesOf(ctx context.Context, userIDs []int64) (map[int64][]*roleDatamodel.Role, error)
	PermissionsByIDs(ctx context.Context, ids []int64) ([]*permissionDatamodel.Permission, error)
	DirectPermissionsOf(ctx context.Context, userID int64) ([]*permissionDatamodel.Permission, error)
	// RolePermissionsOf returns one row per (role, permission) link, duplicates included.
	RolePermissionsOf(ctx context.Context, userID int64) ([]*permissionDatamodel.Permission, error)
	AddRoles(ctx context.Context, userID int64, roleIDs []int64) error
	RemoveRoles(ctx context.Context, userID int64, roleIDs []int64) error
	AddPermissions(ctx context.Context, userID int64, permissionIDs []int64) error
	RemovePermissions(ctx context.Context, userID int64, permissionIDs []int64) error
	ClearLinks(ctx context.Context, userID int64) error
}

type Service struct {
	repo   RepositoryAPI
	hasher security.PasswordHasher
	events events.Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, hasher security.PasswordHasher, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		events: publisher,
		logger: logger,
	}
}

// OwnerLookup resolves the tenant of a user for route-level isolation.
func OwnerLookup(repo RepositoryAPI) authz.OwnerLookup {
	return func(ctx context.Context, id int64) (authz.Ownership, error) {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return authz.Ownership{}, err
		}
		if row == nil {
			return authz.NotFound(), nil
		}
		return authz.OwnedBy(authz.ScopeOf(row.TenantID)), nil
	}
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if dto.IsSuperAdmin {
		return nil, internal.ErrSuperAdminCreationForbidden
	}

	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	u := &User{
		Email:         NormalizeEmail(dto.Email),
		Name:          dto.Name,
		IsTenantAdmin: dto.IsTenantAdmin,
		TenantID:      dto.TenantID.Value,
		IsActive:      active,
	}
	if err := u.CheckInvariants(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}
	u.PasswordHash = hash

	var created *User
	err = s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		if err := EnsureEmailFree(ctx, repo, u.Email, 0); err != nil {
			return err
		}
		if err := ensureTenant(ctx, repo, u.TenantID); err != nil {
			return err
		}

		row := ToDataModel(u)
		if err := repo.Create(ctx, row); err != nil {
			return err
		}
		created, err = s.load(ctx, repo, row.ID, false)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "create user", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", created.ID, "tenant", created.Scope().String())
	s.publish(ctx, events.UserCreated, map[string]interface{}{"user_id": created.ID, "tenant": created.Scope().String()})
	return created, nil
}

func (s *Service) List(ctx context.Context, q pagination.Query) (pagination.Page[*User], error) {
	return s.list(ctx, nil, q)
}

func (s *Service) ListByTenant(ctx context.Context, tenantID int64, q pagination.Query) (pagination.Page[*User], error) {
	if err := ensureTenant(ctx, s.repo, &tenantID); err != nil {
		return pagination.Page[*User]{}, s.wrap(ctx, "list tenant users", err)
	}
	return s.list(ctx, &tenantID, q)
}

func (s *Service) list(ctx context.Context, tenantID *int64, q pagination.Query) (pagination.Page[*User], error) {
	rows, total, err := s.repo.List(ctx, tenantID, q.Limit, q.Offset())
	if err != nil {
		return pagination.Page[*User]{}, s.wrap(ctx, "list users", err)
	}

	users, err := Hydrate(ctx, s.repo, rows, false)
	if err != nil {
		return pagination.Page[*User]{}, s.wrap(ctx, "list users", err)
	}
	return pagination.NewPage(users, total, q), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.load(ctx, s.repo, id, true)
	if err != nil {
		return nil, s.wrap(ctx, "get user", err)
	}
	return u, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	var (
		updated       *User
		tenantChanged bool
	)
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		u := FromDataModel(row)

		if dto.IsSuperAdmin != nil && *dto.IsSuperAdmin != u.IsSuperAdmin {
			return internal.ErrSuperAdminFlagImmutable
		}

		if dto.Email != nil {
			email := NormalizeEmail(*dto.Email)
			if email != u.Email {
				if err := EnsureEmailFree(ctx, repo, email, u.ID); err != nil {
					return err
				}
				u.Email = email
			}
		}
		if dto.Name != nil {
			u.Name = dto.Name
		}
		if dto.IsTenantAdmin != nil {
			u.IsTenantAdmin = *dto.IsTenantAdmin
		}
		if dto.IsActive != nil {
			u.IsActive = *dto.IsActive
		}
		if dto.TenantID.Set && !sameTenant(dto.TenantID.Value, u.TenantID) {
			if err := ensureTenant(ctx, repo, dto.TenantID.Value); err != nil {
				return err
			}
			u.TenantID = dto.TenantID.Value
			tenantChanged = true
		}

		if err := u.CheckInvariants(); err != nil {
			return err
		}

		// roles and direct grants are tenant scoped; they cannot follow the user
		if tenantChanged {
			if err := repo.ClearLinks(ctx, u.ID); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, ToDataModel(u)); err != nil {
			return err
		}
		updated, err = s.load(ctx, repo, u.ID, true)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "update user", err)
	}

	s.publish(ctx, events.UserUpdated, map[string]interface{}{"user_id": id})
	if tenantChanged {
		s.logger.InfoContext(ctx, "user moved to another tenant", "user_id", id, "tenant", updated.Scope().String())
		s.publish(ctx, events.UserTenantChanged, map[string]interface{}{"user_id": id, "tenant": updated.Scope().String()})
	}
	return updated, nil
}

// ChangePassword checks the confirmation before the current password.
func (s *Service) ChangePassword(ctx context.Context, id int64, dto ChangePasswordDTO) error {
	if dto.NewPassword != dto.ConfirmPassword {
		return internal.ErrPasswordMismatch
	}

	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}

		ok, err := s.hasher.Verify(row.PasswordHash, dto.CurrentPassword)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrWrongCurrentPassword
		}

		hash, err := s.hasher.Hash(dto.NewPassword)
		if err != nil {
			return err
		}
		row.PasswordHash = hash
		return repo.Update(ctx, row)
	})
	if err != nil {
		return s.wrap(ctx, "change password", err)
	}

	s.publish(ctx, events.UserPasswordChanged, map[string]interface{}{"user_id": id})
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return s.wrap(ctx, "delete user", err)
	}

	s.publish(ctx, events.UserDeleted, map[string]interface{}{"user_id": id})
	return nil
}

func (s *Service) ToggleActive(ctx context.Context, id int64) (*User, error) {
	var toggled *User
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		u := FromDataModel(row)
		u.Toggle()
		if err := repo.Update(ctx, ToDataModel(u)); err != nil {
			return err
		}
		toggled, err = s.load(ctx, repo, id, false)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "toggle user", err)
	}

	s.publish(ctx, events.UserToggled, map[string]interface{}{"user_id": id, "is_active": toggled.IsActive})
	return toggled, nil
}

// AssignRoles links every role or none: each role must belong to the user's tenant.
func (s *Service) AssignRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error) {
	ids := uniqueIDs(roleIDs)

	var updated *User
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		if row.IsSuperAdmin {
			return internal.ErrSuperAdminNoRolesNeeded
		}
		if err := ensureRolesInTenant(ctx, repo, row.TenantID, ids); err != nil {
			return err
		}
		if err := repo.AddRoles(ctx, id, ids); err != nil {
			return err
		}
		updated, err = s.load(ctx, repo, id, true)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "assign roles", err)
	}

	s.publish(ctx, events.UserRolesAssigned, map[string]interface{}{"user_id": id, "role_ids": ids})
	return updated, nil
}

func (s *Service) RemoveRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error) {
	ids := uniqueIDs(roleIDs)

	var updated *User
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		if err := repo.RemoveRoles(ctx, id, ids); err != nil {
			return err
		}
		updated, err = s.load(ctx, repo, id, true)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "remove roles", err)
	}

	s.publish(ctx, events.UserRolesRemoved, map[string]interface{}{"user_id": id, "role_ids": ids})
	return updated, nil
}

// AssignPermissions grants direct permissions; unknown ids fail the whole batch.
func (s *Service) AssignPermissions(ctx context.Context, id int64, permissionIDs []int64) (*User, error) {
	ids := uniqueIDs(permissionIDs)

	var updated *User
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		if row.IsSuperAdmin {
			return internal.ErrSuperAdminNoRolesNeeded
		}

		found, err := repo.PermissionsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return internal.ErrUnknownPermission
		}

		if err := repo.AddPermissions(ctx, id, ids); err != nil {
			return err
		}
		updated, err = s.load(ctx, repo, id, true)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "assign permissions", err)
	}

	s.publish(ctx, events.UserPermsAssigned, map[string]interface{}{"user_id": id, "permission_ids": ids})
	return updated, nil
}

func (s *Service) RemovePermissions(ctx context.Context, id int64, permissionIDs []int64) (*User, error) {
	ids := uniqueIDs(permissionIDs)

	var updated *User
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		if err := repo.RemovePermissions(ctx, id, ids); err != nil {
			return err
		}
		updated, err = s.load(ctx, repo, id, true)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "remove permissions", err)
	}

	s.publish(ctx, events.UserPermsRemoved, map[string]interface{}{"user_id": id, "permission_ids": ids})
	return updated, nil
}

func (s *Service) EffectivePermissions(ctx context.Context, id int64) (*EffectivePermissions, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(ctx, "resolve permissions", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}

	if row.IsSuperAdmin {
		return &EffectivePermissions{
			UserID:       id,
			IsSuperAdmin: true,
			Message:      "Super administrators have unrestricted access",
			EffectiveSet: permission.Resolve(true, nil, nil),
		}, nil
	}

	fromRoles, err := s.repo.RolePermissionsOf(ctx, id)
	if err != nil {
		return nil, s.wrap(ctx, "resolve permissions", err)
	}
	direct, err := s.repo.DirectPermissionsOf(ctx, id)
	if err != nil {
		return nil, s.wrap(ctx, "resolve permissions", err)
	}

	set := permission.Resolve(false, permission.FromDataModels(fromRoles), permission.FromDataModels(direct))
	return &EffectivePermissions{
		UserID:       id,
		Total:        len(set.Permissions),
		EffectiveSet: set,
	}, nil
}

func (s *Service) load(ctx context.Context, repo RepositoryAPI, id int64, withPermissions bool) (*User, error) {
	row, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	users, err := Hydrate(ctx, repo, []*userDatamodel.User{row}, withPermissions)
	if err != nil {
		return nil, err
	}
	return users[0], nil
}

func (s *Service) wrap(ctx context.Context, op string, err error) error {
	if _, ok := internal.AsAppError(err); ok {
		return err
	}
	logger.FromOr(ctx, s.logger).ErrorContext(ctx, "user store failure", "op", op, "error", err)
	return internal.NewInternalError("failed to "+op, err)
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.events.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", eventType, "error", err)
	}
}
