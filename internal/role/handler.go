package role

import (
	"context"
	"net/http"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/authz"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	"github.com/frahmantamala/tenant-admin/internal/core/common/validation"
	"github.com/frahmantamala/tenant-admin/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, tenantID int64, dto CreateRoleDTO) (*Role, error)
	List(ctx context.Context, tenantID int64, q pagination.Query) (pagination.Page[*Role], error)
	Get(ctx context.Context, tenantID, id int64) (*Role, error)
	Update(ctx context.Context, tenantID, id int64, dto UpdateRoleDTO) (*Role, error)
	Delete(ctx context.Context, tenantID, id int64) error
	ReplacePermissions(ctx context.Context, tenantID, id int64, permissionIDs []int64) (*Role, error)
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

func callerTenant(r *http.Request) (int64, error) {
	id, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		return 0, internal.ErrNotAuthenticated
	}
	tenantID, ok := id.Scope.TenantID()
	if !ok {
		return 0, internal.ErrNoTenant
	}
	return tenantID, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := callerTenant(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto CreateRoleDTO
	if !h.bind(w, r, &dto) {
		return
	}

	role, err := h.Service.Create(r.Context(), tenantID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := callerTenant(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	q, err := pagination.FromRequest(r, pagination.DefaultLimit)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	page, err := h.Service.List(r.Context(), tenantID, q)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := h.target(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	role, err := h.Service.Get(r.Context(), tenantID, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := h.target(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto UpdateRoleDTO
	if !h.bind(w, r, &dto) {
		return
	}

	role, err := h.Service.Update(r.Context(), tenantID, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := h.target(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), tenantID, id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReplacePermissions(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := h.target(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto ReplacePermissionsDTO
	if !h.bind(w, r, &dto) {
		return
	}

	role, err := h.Service.ReplacePermissions(r.Context(), tenantID, id, dto.PermissionIDs)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) target(r *http.Request) (int64, int64, error) {
	tenantID, err := callerTenant(r)
	if err != nil {
		return 0, 0, err
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		return 0, 0, err
	}
	return tenantID, id, nil
}

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
