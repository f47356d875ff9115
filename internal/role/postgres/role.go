package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/role"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) InTx(ctx context.Context, fn func(repo role.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RoleRepository{db: tx})
	})
}

func (r *RoleRepository) Create(ctx context.Context, row *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *RoleRepository) GetByIDInTenant(ctx context.Context, id, tenantID int64) (*roleDatamodel.Role, error) {
	return r.first(ctx, "id = ? AND tenant_id = ?", id, tenantID)
}

func (r *RoleRepository) first(ctx context.Context, cond string, args ...interface{}) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	err := r.db.WithContext(ctx).Where(cond, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) List(ctx context.Context, tenantID int64, limit, offset int) ([]*roleDatamodel.Role, int64, error) {
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&roleDatamodel.Role{}).Where("tenant_id = ?", tenantID)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var roles []*roleDatamodel.Role
	err := scoped().Order("name").Order("id").Limit(limit).Offset(offset).Find(&roles).Error
	return roles, total, err
}

func (r *RoleRepository) NameTaken(ctx context.Context, tenantID int64, name string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&roleDatamodel.Role{}).Where("tenant_id = ? AND name = ?", tenantID, name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *RoleRepository) Update(ctx context.Context, row *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("role_id = ?", id).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
		return err
	}
	if err := db.Where("role_id = ?", id).Delete(&userDatamodel.UserRole{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&roleDatamodel.Role{}).Error
}

func (r *RoleRepository) PermissionsByIDs(ctx context.Context, ids []int64) ([]*permissionDatamodel.Permission, error) {
	var perms []*permissionDatamodel.Permission
	if len(ids) == 0 {
		return perms, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&perms).Error
	return perms, err
}

type rolePermissionRow struct {
	RoleID int64
	permissionDatamodel.Permission
}

func (r *RoleRepository) PermissionsOf(ctx context.Context, roleIDs []int64) (map[int64][]*permissionDatamodel.Permission, error) {
	out := make(map[int64][]*permissionDatamodel.Permission, len(roleIDs))
	if len(roleIDs) == 0 {
		return out, nil
	}

	var rows []rolePermissionRow
	err := r.db.WithContext(ctx).
		Table("permissions").
		Select("rp.role_id AS role_id, permissions.*").
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id IN ?", roleIDs).
		Order("permissions.module").Order("permissions.codename").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		p := rows[i].Permission
		out[rows[i].RoleID] = append(out[rows[i].RoleID], &p)
	}
	return out, nil
}

func (r *RoleRepository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("role_id = ?", roleID).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
		return err
	}
	if len(permissionIDs) == 0 {
		return nil
	}

	links := make([]roleDatamodel.RolePermission, len(permissionIDs))
	for i, id := range permissionIDs {
		links[i] = roleDatamodel.RolePermission{RoleID: roleID, PermissionID: id}
	}
	return db.Create(&links).Error
}
