package permission

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	"github.com/frahmantamala/tenant-admin/pkg/logger"
)

var ErrPermissionNotFound = internal.NewNotFoundError("Permission not found", internal.ErrCodeResourceNotFound)

var ErrModuleNotFound = internal.NewNotFoundError("No permissions found for module", internal.ErrCodeResourceNotFound)

// RepositoryAPI reads the permission catalog. Rows are ordered by module, then name.
type RepositoryAPI interface {
	List(ctx context.Context, limit, offset int) ([]*permissionDatamodel.Permission, int64, error)
	ListAll(ctx context.Context) ([]*permissionDatamodel.Permission, error)
	GetByID(ctx context.Context, id int64) (*permissionDatamodel.Permission, error)
	ListByModule(ctx context.Context, module string) ([]*permissionDatamodel.Permission, error)
	Modules(ctx context.Context) ([]string, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, q pagination.Query) (pagination.Page[*Permission], error) {
	rows, total, err := s.repo.List(ctx, q.Limit, q.Offset())
	if err != nil {
		return pagination.Page[*Permission]{}, s.storeError(ctx, "list permissions", err)
	}
	return pagination.NewPage(FromDataModels(rows), total, q), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Permission, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "get permission", err)
	}
	if row == nil {
		return nil, ErrPermissionNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) GroupedByModule(ctx context.Context) ([]ModuleGroup, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list permissions", err)
	}
	return Group(FromDataModels(rows)), nil
}

func (s *Service) Modules(ctx context.Context) ([]string, error) {
	modules, err := s.repo.Modules(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list modules", err)
	}
	if modules == nil {
		modules = []string{}
	}
	return modules, nil
}

func (s *Service) ByModule(ctx context.Context, module string) (*ModuleGroup, error) {
	rows, err := s.repo.ListByModule(ctx, module)
	if err != nil {
		return nil, s.storeError(ctx, "list module permissions", err)
	}
	if len(rows) == 0 {
		return nil, ErrModuleNotFound
	}
	perms := FromDataModels(rows)
	return &ModuleGroup{Module: module, Count: len(perms), Permissions: perms}, nil
}

func (s *Service) storeError(ctx context.Context, op string, err error) error {
	logger.FromOr(ctx, s.logger).ErrorContext(ctx, "permission store failure", "op", op, "error", err)
	return internal.NewInternalError("failed to "+op, err)
}
