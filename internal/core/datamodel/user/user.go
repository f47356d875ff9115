package user

import "time"

type User struct {
	ID            int64     `gorm:"primaryKey"`
	Email         string    `gorm:"column:email;uniqueIndex;not null"`
	Name          *string   `gorm:"column:name"`
	PasswordHash  string    `gorm:"column:password_hash;not null"`
	IsSuperAdmin  bool      `gorm:"column:is_super_admin;not null"`
	IsTenantAdmin bool      `gorm:"column:is_tenant_admin;not null"`
	TenantID      *int64    `gorm:"column:tenant_id;index"`
	IsActive      bool      `gorm:"column:is_active;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type UserRole struct {
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	RoleID    int64     `gorm:"column:role_id;primaryKey;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

type UserPermission struct {
	UserID       int64     `gorm:"column:user_id;primaryKey"`
	PermissionID int64     `gorm:"column:permission_id;primaryKey;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
