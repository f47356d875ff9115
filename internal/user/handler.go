package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	"github.com/frahmantamala/tenant-admin/internal/core/common/validation"
	"github.com/frahmantamala/tenant-admin/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateUserDTO) (*User, error)
	List(ctx context.Context, q pagination.Query) (pagination.Page[*User], error)
	ListByTenant(ctx context.Context, tenantID int64, q pagination.Query) (pagination.Page[*User], error)
	Get(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error)
	ChangePassword(ctx context.Context, id int64, dto ChangePasswordDTO) error
	Delete(ctx context.Context, id int64) error
	ToggleActive(ctx context.Context, id int64) (*User, error)
	AssignRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error)
	RemoveRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error)
	AssignPermissions(ctx context.Context, id int64, permissionIDs []int64) (*User, error)
	RemovePermissions(ctx context.Context, id int64, permissionIDs []int64) (*User, error)
	EffectivePermissions(ctx context.Context, id int64) (*EffectivePermissions, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if !h.bind(w, r, &dto) {
		return
	}

	u, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := pagination.FromRequest(r, pagination.DefaultLimit)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	page, err := h.Service.List(r.Context(), q)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := h.ParseIDParam(r, "tenantId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	q, err := pagination.FromRequest(r, pagination.DefaultLimit)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	page, err := h.Service.ListByTenant(r.Context(), tenantID, q)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	u, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto UpdateUserDTO
	if !h.bind(w, r, &dto) {
		return
	}

	u, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto ChangePasswordDTO
	if !h.bind(w, r, &dto) {
		return
	}

	if err := h.Service.ChangePassword(r.Context(), id, dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	u, err := h.Service.ToggleActive(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	h.roles(w, r, h.Service.AssignRoles)
}

func (h *Handler) RemoveRoles(w http.ResponseWriter, r *http.Request) {
	h.roles(w, r, h.Service.RemoveRoles)
}

func (h *Handler) roles(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64, []int64) (*User, error)) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto RoleIDsDTO
	if !h.bind(w, r, &dto) {
		return
	}

	u, err := apply(r.Context(), id, dto.RoleIDs)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) AssignPermissions(w http.ResponseWriter, r *http.Request) {
	h.permissions(w, r, h.Service.AssignPermissions)
}

func (h *Handler) RemovePermissions(w http.ResponseWriter, r *http.Request) {
	h.permissions(w, r, h.Service.RemovePermissions)
}

func (h *Handler) permissions(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64, []int64) (*User, error)) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto PermissionIDsDTO
	if !h.bind(w, r, &dto) {
		return
	}

	u, err := apply(r.Context(), id, dto.PermissionIDs)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) EffectivePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	eff, err := h.Service.EffectivePermissions(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, eff)
}

// bind decodes and validates the body, writing the error response on failure.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := h.DecodeJSON(r, dst); err != nil {
		h.HandleServiceError(w, r, err)
		return false
	}
	if err := validation.Struct(dst); err != nil {
		h.HandleServiceError(w, r, err)
		return false
	}
	return true
}
