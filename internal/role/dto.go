package role

type CreateRoleDTO struct {
	Name          string  `json:"name" validate:"required,min=2,max=100"`
	Description   *string `json:"description" validate:"omitempty,max=500"`
	PermissionIDs []int64 `json:"permissionIds" validate:"omitempty,dive,gt=0"`
}

type UpdateRoleDTO struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// ReplacePermissionsDTO sets the full permission list of a role; an empty
// list removes every permission.
type ReplacePermissionsDTO struct {
	PermissionIDs []int64 `json:"permissionIds" validate:"dive,gt=0"`
}
