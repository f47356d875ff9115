package tenantuser

import (
	"context"
	"net/http"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/authz"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	"github.com/frahmantamala/tenant-admin/internal/core/common/validation"
	"github.com/frahmantamala/tenant-admin/internal/transport"
	"github.com/frahmantamala/tenant-admin/internal/user"
)

type ServiceAPI interface {
	Create(ctx context.Context, tenantID int64, dto CreateTenantUserDTO) (*user.User, error)
	List(ctx context.Context, tenantID int64, q pagination.Query) (pagination.Page[*user.User], error)
	Get(ctx context.Context, tenantID, id int64) (*user.User, error)
	Update(ctx context.Context, tenantID, id int64, dto UpdateTenantUserDTO) (*user.User, error)
	UpdateProfile(ctx context.Context, tenantID, id int64, dto UpdateProfileDTO) (*user.User, error)
	ToggleActive(ctx context.Context, tenantID, id int64) (*user.User, error)
	ChangeOwnPassword(ctx context.Context, id int64, dto user.ChangePasswordDTO) error
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

// caller returns the authenticated identity and its tenant. Routes are
// guarded by a tenant member policy, so a missing tenant is a wiring bug
// reported as NoTenant.
func caller(r *http.Request) (*authz.Identity, int64, error) {
	id, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		return nil, 0, internal.ErrNotAuthenticated
	}
	tenantID, ok := id.Scope.TenantID()
	if !ok {
		return nil, 0, internal.ErrNoTenant
	}
	return id, tenantID, nil
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	id, tenantID, err := caller(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	u, err := h.Service.Get(r.Context(), tenantID, id.ID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, tenantID, err := caller(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto UpdateProfileDTO
	if !h.bind(w, r, &dto) {
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), tenantID, id.ID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, _, err := caller(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto user.ChangePasswordDTO
	if !h.bind(w, r, &dto) {
		return
	}

	if err := h.Service.ChangeOwnPassword(r.Context(), id.ID, dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, tenantID, err := caller(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto CreateTenantUserDTO
	if !h.bind(w, r, &dto) {
		return
	}

	u, err := h.Service.Create(r.Context(), tenantID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, tenantID, err := caller(r)
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
	_, tenantID, id, err := h.target(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	u, err := h.Service.Get(r.Context(), tenantID, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, tenantID, id, err := h.target(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto UpdateTenantUserDTO
	if !h.bind(w, r, &dto) {
		return
	}

	u, err := h.Service.Update(r.Context(), tenantID, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	_, tenantID, id, err := h.target(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	u, err := h.Service.ToggleActive(r.Context(), tenantID, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) target(r *http.Request) (*authz.Identity, int64, int64, error) {
	ident, tenantID, err := caller(r)
	if err != nil {
		return nil, 0, 0, err
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		return nil, 0, 0, err
	}
	return ident, tenantID, id, nil
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
