package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	tenantDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) InTx(ctx context.Context, fn func(repo user.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx})
	})
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByIDInTenant(ctx context.Context, id, tenantID int64) (*userDatamodel.User, error) {
	return r.first(ctx, "id = ? AND tenant_id = ?", id, tenantID)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, cond string, args ...interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where(cond, args...).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("email = ?", email)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) List(ctx context.Context, tenantID *int64, limit, offset int) ([]*userDatamodel.User, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&userDatamodel.User{})
		if tenantID != nil {
			query = query.Where("tenant_id = ?", *tenantID)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*userDatamodel.User
	err := scoped().Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ClearLinks(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&userDatamodel.User{}).Error
}

func (r *UserRepository) TenantExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&tenantDatamodel.Tenant{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Tenants(ctx context.Context, ids []int64) (map[int64]*tenantDatamodel.Tenant, error) {
	out := make(map[int64]*tenantDatamodel.Tenant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var tenants []*tenantDatamodel.Tenant
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tenants).Error; err != nil {
		return nil, err
	}
	for _, t := range tenants {
		out[t.ID] = t
	}
	return out, nil
}

func (r *UserRepository) RolesInTenant(ctx context.Context, tenantID int64, ids []int64) ([]*roleDatamodel.Role, error) {
	var roles []*roleDatamodel.Role
	if len(ids) == 0 {
		return roles, nil
	}
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&roles).Error
	return roles, err
}

func (r *UserRepository) RolesOf(ctx context.Context, userIDs []int64) (map[int64][]*roleDatamodel.Role, error) {
	out := make(map[int64][]*roleDatamodel.Role, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var links []userDatamodel.UserRole
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return out, nil
	}

	roleIDs := make([]int64, 0, len(links))
	for _, l := range links {
		roleIDs = append(roleIDs, l.RoleID)
	}
	var roles []*roleDatamodel.Role
	if err := r.db.WithContext(ctx).Where("id IN ?", roleIDs).Order("name").Find(&roles).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]*roleDatamodel.Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}
	for _, l := range links {
		if role, ok := byID[l.RoleID]; ok {
			out[l.UserID] = append(out[l.UserID], role)
		}
	}
	return out, nil
}

func (r *UserRepository) PermissionsByIDs(ctx context.Context, ids []int64) ([]*permissionDatamodel.Permission, error) {
	var perms []*permissionDatamodel.Permission
	if len(ids) == 0 {
		return perms, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&perms).Error
	return perms, err
}

func (r *UserRepository) DirectPermissionsOf(ctx context.Context, userID int64) ([]*permissionDatamodel.Permission, error) {
	var perms []*permissionDatamodel.Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN user_permissions up ON up.permission_id = permissions.id").
		Where("up.user_id = ?", userID).
		Order("permissions.module").Order("permissions.codename").
		Find(&perms).Error
	return perms, err
}

func (r *UserRepository) RolePermissionsOf(ctx context.Context, userID int64) ([]*permissionDatamodel.Permission, error) {
	var perms []*permissionDatamodel.Permission
	err := r.db.WithContext(ctx).
		Select("permissions.*").
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Joins("JOIN user_roles ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ?", userID).
		Find(&perms).Error
	return perms, err
}

func (r *UserRepository) AddRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	links := make([]userDatamodel.UserRole, len(roleIDs))
	for i, id := range roleIDs {
		links[i] = userDatamodel.UserRole{UserID: userID, RoleID: id}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

func (r *UserRepository) RemoveRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("user_id = ? AND role_id IN ?", userID, roleIDs).Delete(&userDatamodel.UserRole{}).Error
}

func (r *UserRepository) AddPermissions(ctx context.Context, userID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	links := make([]userDatamodel.UserPermission, len(permissionIDs))
	for i, id := range permissionIDs {
		links[i] = userDatamodel.UserPermission{UserID: userID, PermissionID: id}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

func (r *UserRepository) RemovePermissions(ctx context.Context, userID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("user_id = ? AND permission_id IN ?", userID, permissionIDs).Delete(&userDatamodel.UserPermission{}).Error
}

func (r *UserRepository) ClearLinks(ctx context.Context, userID int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&userDatamodel.UserRole{}).Error; err != nil {
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&userDatamodel.UserPermission{}).Error
}
