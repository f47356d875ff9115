package tenant

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	tenantDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/tenant"
	"github.com/frahmantamala/tenant-admin/internal/core/events"
	"github.com/frahmantamala/tenant-admin/pkg/logger"
)

var ErrTenantNotFound = internal.NewNotFoundError("Tenant not found", internal.ErrCodeResourceNotFound)

type RepositoryAPI interface {
	InTx(ctx context.Context, fn func(repo RepositoryAPI) error) error
	Create(ctx context.Context, tenant *tenantDatamodel.Tenant) error
	GetByID(ctx context.Context, id int64) (*tenantDatamodel.Tenant, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*tenantDatamodel.Tenant, int64, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	DocumentTaken(ctx context.Context, document string, excludeID int64) (bool, error)
	Update(ctx context.Context, tenant *tenantDatamodel.Tenant) error
	// DeleteCascade removes the tenant with its users, roles and every link
	// row that references them, returning the number of users removed.
	DeleteCascade(ctx context.Context, id int64) (int64, error)
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

func (s *Service) Create(ctx context.Context, dto CreateTenantDTO) (*Tenant, error) {
	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	t := NewTenant(dto.Name, dto.Slug, normalizeDocument(dto.Document), active)

	var created *tenantDatamodel.Tenant
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		if err := checkUnique(ctx, repo, t.Slug, t.Document, 0); err != nil {
			return err
		}
		created = ToDataModel(t)
		return repo.Create(ctx, created)
	})
	if err != nil {
		return nil, s.wrap(ctx, "create tenant", err)
	}

	s.logger.InfoContext(ctx, "tenant created", "tenant_id", created.ID, "slug", created.Slug)
	s.publish(ctx, events.TenantCreated, map[string]interface{}{"tenant_id": created.ID, "slug": created.Slug})
	return FromDataModel(created), nil
}

func (s *Service) List(ctx context.Context, q pagination.Query) (pagination.Page[*Tenant], error) {
	return s.list(ctx, false, q)
}

func (s *Service) ListActive(ctx context.Context, q pagination.Query) (pagination.Page[*Tenant], error) {
	return s.list(ctx, true, q)
}

func (s *Service) list(ctx context.Context, activeOnly bool, q pagination.Query) (pagination.Page[*Tenant], error) {
	rows, total, err := s.repo.List(ctx, activeOnly, q.Limit, q.Offset())
	if err != nil {
		return pagination.Page[*Tenant]{}, s.wrap(ctx, "list tenants", err)
	}

	return pagination.Map(pagination.NewPage(rows, total, q), FromDataModel), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Tenant, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(ctx, "get tenant", err)
	}
	if row == nil {
		return nil, ErrTenantNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateTenantDTO) (*Tenant, error) {
	var updated *tenantDatamodel.Tenant
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrTenantNotFound
		}

		if dto.Name != nil {
			row.Name = *dto.Name
		}
		if dto.Slug != nil {
			row.Slug = *dto.Slug
		}
		if dto.Document != nil {
			row.Document = normalizeDocument(dto.Document)
		}
		if dto.IsActive != nil {
			row.IsActive = *dto.IsActive
		}

		if err := checkUnique(ctx, repo, row.Slug, row.Document, row.ID); err != nil {
			return err
		}
		updated = row
		return repo.Update(ctx, row)
	})
	if err != nil {
		return nil, s.wrap(ctx, "update tenant", err)
	}

	s.publish(ctx, events.TenantUpdated, map[string]interface{}{"tenant_id": updated.ID})
	return FromDataModel(updated), nil
}

// Delete removes the tenant and everything it owns in one transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var removedUsers int64
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrTenantNotFound
		}
		removedUsers, err = repo.DeleteCascade(ctx, id)
		return err
	})
	if err != nil {
		return s.wrap(ctx, "delete tenant", err)
	}

	s.logger.InfoContext(ctx, "tenant deleted", "tenant_id", id, "users_removed", removedUsers)
	s.publish(ctx, events.TenantDeleted, map[string]interface{}{"tenant_id": id, "users_removed": removedUsers})
	return nil
}

// ToggleActive flips the tenant's active flag. Member accounts keep their own flag.
func (s *Service) ToggleActive(ctx context.Context, id int64) (*Tenant, error) {
	var toggled *Tenant
	err := s.repo.InTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrTenantNotFound
		}
		toggled = FromDataModel(row)
		toggled.Toggle()
		row.IsActive = toggled.IsActive
		return repo.Update(ctx, row)
	})
	if err != nil {
		return nil, s.wrap(ctx, "toggle tenant", err)
	}

	s.publish(ctx, events.TenantToggled, map[string]interface{}{"tenant_id": id, "is_active": toggled.IsActive})
	return toggled, nil
}

func checkUnique(ctx context.Context, repo RepositoryAPI, slug string, document *string, excludeID int64) error {
	taken, err := repo.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrConflictSlug
	}

	if document != nil {
		taken, err = repo.DocumentTaken(ctx, *document, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return internal.ErrConflictDocument
		}
	}
	return nil
}

func (s *Service) wrap(ctx context.Context, op string, err error) error {
	if _, ok := internal.AsAppError(err); ok {
		return err
	}
	logger.FromOr(ctx, s.logger).ErrorContext(ctx, "tenant store failure", "op", op, "error", err)
	return internal.NewInternalError("failed to "+op, err)
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.events.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", eventType, "error", err)
	}
}
