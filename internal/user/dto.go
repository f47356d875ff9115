package user

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/frahmantamala/tenant-admin/internal/permission"
)

// OptionalTenantID distinguishes an absent tenantId from an explicit null.
// A tenantId of 0 is read as null.
type OptionalTenantID struct {
	Set   bool
	Value *int64
}

func (o *OptionalTenantID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("tenantId must be an integer or null: %w", err)
	}
	if id < 0 {
		return fmt.Errorf("tenantId must not be negative")
	}
	if id == 0 {
		o.Value = nil
		return nil
	}
	o.Value = &id
	return nil
}

type CreateUserDTO struct {
	Email         string           `json:"email" validate:"required,email,max=255"`
	Password      string           `json:"password" validate:"required,min=6,max=128"`
	Name          *string          `json:"name" validate:"omitempty,max=255"`
	IsSuperAdmin  bool             `json:"isSuperAdmin"`
	IsTenantAdmin bool             `json:"isTenantAdmin"`
	TenantID      OptionalTenantID `json:"tenantId"`
	IsActive      *bool            `json:"isActive"`
}

type UpdateUserDTO struct {
	Email         *string          `json:"email" validate:"omitempty,email,max=255"`
	Name          *string          `json:"name" validate:"omitempty,max=255"`
	IsSuperAdmin  *bool            `json:"isSuperAdmin"`
	IsTenantAdmin *bool            `json:"isTenantAdmin"`
	TenantID      OptionalTenantID `json:"tenantId"`
	IsActive      *bool            `json:"isActive"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=128"`
	ConfirmPassword string `json:"newPasswordConfirm" validate:"required"`
}

type RoleIDsDTO struct {
	RoleIDs []int64 `json:"roleIds" validate:"required,min=1,dive,gt=0"`
}

type PermissionIDsDTO struct {
	PermissionIDs []int64 `json:"permissionIds" validate:"required,min=1,dive,gt=0"`
}

type EffectivePermissions struct {
	UserID       int64  `json:"userId"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
	Message      string `json:"message,omitempty"`
	Total        int    `json:"totalPermissions"`
	permission.EffectiveSet
}
