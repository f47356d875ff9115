package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	tenantDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/tenant"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) tenant.RepositoryAPI {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) InTx(ctx context.Context, fn func(repo tenant.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TenantRepository{db: tx})
	})
}

func (r *TenantRepository) Create(ctx context.Context, t *tenantDatamodel.Tenant) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*tenantDatamodel.Tenant, error) {
	var t tenantDatamodel.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*tenantDatamodel.Tenant, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&tenantDatamodel.Tenant{})
		if activeOnly {
			query = query.Where("is_active = ?", true)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tenants []*tenantDatamodel.Tenant
	err := scoped().Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&tenants).Error
	return tenants, total, err
}

func (r *TenantRepository) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	return r.exists(ctx, "slug = ?", slug, excludeID)
}

func (r *TenantRepository) DocumentTaken(ctx context.Context, document string, excludeID int64) (bool, error) {
	return r.exists(ctx, "document = ?", document, excludeID)
}

func (r *TenantRepository) exists(ctx context.Context, cond string, value interface{}, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&tenantDatamodel.Tenant{}).Where(cond, value)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *TenantRepository) Update(ctx context.Context, t *tenantDatamodel.Tenant) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *TenantRepository) DeleteCascade(ctx context.Context, id int64) (int64, error) {
	db := r.db.WithContext(ctx)
	userIDs := func() *gorm.DB {
		return db.Model(&userDatamodel.User{}).Select("id").Where("tenant_id = ?", id)
	}
	roleIDs := func() *gorm.DB {
		return db.Model(&roleDatamodel.Role{}).Select("id").Where("tenant_id = ?", id)
	}

	if err := db.Where("user_id IN (?)", userIDs()).Delete(&userDatamodel.UserPermission{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("user_id IN (?) OR role_id IN (?)", userIDs(), roleIDs()).Delete(&userDatamodel.UserRole{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("role_id IN (?)", roleIDs()).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("tenant_id = ?", id).Delete(&roleDatamodel.Role{}).Error; err != nil {
		return 0, err
	}

	users := db.Where("tenant_id = ?", id).Delete(&userDatamodel.User{})
	if users.Error != nil {
		return 0, users.Error
	}

	if err := db.Where("id = ?", id).Delete(&tenantDatamodel.Tenant{}).Error; err != nil {
		return 0, err
	}
	return users.RowsAffected, nil
}
