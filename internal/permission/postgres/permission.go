package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	"github.com/frahmantamala/tenant-admin/internal/permission"
)

const permissionColumns = "id, codename, name, module, description"

// PermissionRepository reads the catalog through sqlx; the catalog is
// read-only at runtime so it does not go through gorm.
type PermissionRepository struct {
	db *sqlx.DB
}

func NewPermissionRepository(db *sqlx.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) List(ctx context.Context, limit, offset int) ([]*permissionDatamodel.Permission, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM permissions"); err != nil {
		return nil, 0, err
	}

	var rows []*permissionDatamodel.Permission
	query := r.db.Rebind("SELECT " + permissionColumns + " FROM permissions ORDER BY module ASC, name ASC LIMIT ? OFFSET ?")
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *PermissionRepository) ListAll(ctx context.Context) ([]*permissionDatamodel.Permission, error) {
	var rows []*permissionDatamodel.Permission
	err := r.db.SelectContext(ctx, &rows, "SELECT "+permissionColumns+" FROM permissions ORDER BY module ASC, name ASC")
	return rows, err
}

func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*permissionDatamodel.Permission, error) {
	var row permissionDatamodel.Permission
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT "+permissionColumns+" FROM permissions WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *PermissionRepository) ListByModule(ctx context.Context, module string) ([]*permissionDatamodel.Permission, error) {
	var rows []*permissionDatamodel.Permission
	query := r.db.Rebind("SELECT " + permissionColumns + " FROM permissions WHERE module = ? ORDER BY name ASC")
	err := r.db.SelectContext(ctx, &rows, query, module)
	return rows, err
}

func (r *PermissionRepository) Modules(ctx context.Context) ([]string, error) {
	var modules []string
	err := r.db.SelectContext(ctx, &modules, "SELECT DISTINCT module FROM permissions ORDER BY module ASC")
	return modules, err
}
