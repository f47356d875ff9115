package tenantuser

// CreateTenantUserDTO never carries a tenant or admin flags; members are
// created in the caller's tenant.
type CreateTenantUserDTO struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,max=128"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
	RoleIDs  []int64 `json:"roleIds" validate:"omitempty,dive,gt=0"`
	IsActive *bool   `json:"isActive"`
}

type UpdateTenantUserDTO struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
	IsActive *bool   `json:"isActive"`
}

type UpdateProfileDTO struct {
	Email *string `json:"email" validate:"omitempty,email,max=255"`
	Name  *string `json:"name" validate:"omitempty,max=255"`
}
