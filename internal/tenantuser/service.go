package tenantuser

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/core/events"
	"github.com/frahmantamala/tenant-admin/internal/core/security"
	"github.com/frahmantamala/tenant-admin/internal/user"
	"github.com/frahmantamala/tenant-admin/pkg/logger"
)

// PasswordChanger applies the shared password change rules.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, id int64, dto user.ChangePasswordDTO) error
}

type Service struct {
	repo      user.RepositoryAPI
	hasher    security.PasswordHasher
	passwords PasswordChanger
	events    events.Publisher
	logger    *slog.Logger
}

func NewService(repo user.RepositoryAPI, hasher security.PasswordHasher, passwords PasswordChanger, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Service{
		repo:      repo,
		hasher:    hasher,
		passwords: passwords,
		events:    publisher,
		logger:    logger,
	}
}

// Create adds a plain member to tenantID, optionally with roles of that tenant.
func (s *Service) Create(ctx context.Context, tenantID int64, dto CreateTenantUserDTO) (*user.User, error) {
	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	u := &user.User{
		Email:    user.NormalizeEmail(dto.Email),
		Name:     dto.Name,
		TenantID: &tenantID,
		IsActive: active,
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}
	u.PasswordHash = hash

	var created *user.User
	err = s.repo.InTx(ctx, func(repo user.RepositoryAPI) error {
		if err := user.EnsureEmailFree(ctx, repo, u.Email, 0); err != nil {
			return err
		}
		if err := user.EnsureRolesInTenant(ctx, repo, &tenantID, dto.RoleIDs); err != nil {
			return err
		}

		row := user.ToDataModel(u)
		if err := repo.Create(ctx, row); err != nil {
			return err
		}
		if err := repo.AddRoles(ctx, row.ID, dto.RoleIDs); err != nil {
			return err
		}
		created, err = s.load(ctx, repo, tenantID, row.ID)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "create tenant user", err)
	}

	s.logger.InfoContext(ctx, "tenant user created", "user_id", created.ID, "tenant_id", tenantID)
	s.publish(ctx, events.UserCreated, map[string]interface{}{"user_id": created.ID, "tenant_id": tenantID})
	return created, nil
}

func (s *Service) List(ctx context.Context, tenantID int64, q pagination.Query) (pagination.Page[*user.User], error) {
	rows, total, err := s.repo.List(ctx, &tenantID, q.Limit, q.Offset())
	if err != nil {
		return pagination.Page[*user.User]{}, s.wrap(ctx, "list tenant users", err)
	}

	users, err := user.Hydrate(ctx, s.repo, rows, false)
	if err != nil {
		return pagination.Page[*user.User]{}, s.wrap(ctx, "list tenant users", err)
	}
	return pagination.NewPage(users, total, q), nil
}

// Get reads a user of tenantID. Users of other tenants are reported as not found.
func (s *Service) Get(ctx context.Context, tenantID, id int64) (*user.User, error) {
	u, err := s.load(ctx, s.repo, tenantID, id)
	if err != nil {
		return nil, s.wrap(ctx, "get tenant user", err)
	}
	return u, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id int64, dto UpdateTenantUserDTO) (*user.User, error) {
	updated, err := s.update(ctx, tenantID, id, dto.Email, dto.Name, dto.IsActive)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserUpdated, map[string]interface{}{"user_id": id, "tenant_id": tenantID})
	return updated, nil
}

func (s *Service) UpdateProfile(ctx context.Context, tenantID, id int64, dto UpdateProfileDTO) (*user.User, error) {
	return s.update(ctx, tenantID, id, dto.Email, dto.Name, nil)
}

func (s *Service) update(ctx context.Context, tenantID, id int64, email, name *string, active *bool) (*user.User, error) {
	var updated *user.User
	err := s.repo.InTx(ctx, func(repo user.RepositoryAPI) error {
		row, err := repo.GetByIDInTenant(ctx, id, tenantID)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrResourceNotFound
		}
		u := user.FromDataModel(row)

		if email != nil {
			normalized := user.NormalizeEmail(*email)
			if normalized != u.Email {
				if err := user.EnsureEmailFree(ctx, repo, normalized, u.ID); err != nil {
					return err
				}
				u.Email = normalized
			}
		}
		if name != nil {
			u.Name = name
		}
		if active != nil {
			u.IsActive = *active
		}

		if err := repo.Update(ctx, user.ToDataModel(u)); err != nil {
			return err
		}
		updated, err = s.load(ctx, repo, tenantID, id)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "update tenant user", err)
	}
	return updated, nil
}

func (s *Service) ToggleActive(ctx context.Context, tenantID, id int64) (*user.User, error) {
	var toggled *user.User
	err := s.repo.InTx(ctx, func(repo user.RepositoryAPI) error {
		row, err := repo.GetByIDInTenant(ctx, id, tenantID)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrResourceNotFound
		}
		row.IsActive = !row.IsActive
		if err := repo.Update(ctx, row); err != nil {
			return err
		}
		toggled, err = s.load(ctx, repo, tenantID, id)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "toggle tenant user", err)
	}

	s.publish(ctx, events.UserToggled, map[string]interface{}{"user_id": id, "is_active": toggled.IsActive})
	return toggled, nil
}

func (s *Service) ChangeOwnPassword(ctx context.Context, id int64, dto user.ChangePasswordDTO) error {
	return s.passwords.ChangePassword(ctx, id, dto)
}

func (s *Service) load(ctx context.Context, repo user.RepositoryAPI, tenantID, id int64) (*user.User, error) {
	row, err := repo.GetByIDInTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, internal.ErrResourceNotFound
	}
	hydrated, err := user.Hydrate(ctx, repo, []*userDatamodel.User{row}, true)
	if err != nil {
		return nil, err
	}
	return hydrated[0], nil
}

func (s *Service) wrap(ctx context.Context, op string, err error) error {
	if _, ok := internal.AsAppError(err); ok {
		return err
	}
	logger.FromOr(ctx, s.logger).ErrorContext(ctx, "tenant user store failure", "op", op, "error", err)
	return internal.NewInternalError("failed to "+op, err)
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.events.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", eventType, "error", err)
	}
}
