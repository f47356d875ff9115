package tenant

import (
	"context"
	"net/http"

	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	"github.com/frahmantamala/tenant-admin/internal/core/common/validation"
	"github.com/frahmantamala/tenant-admin/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateTenantDTO) (*Tenant, error)
	List(ctx context.Context, q pagination.Query) (pagination.Page[*Tenant], error)
	ListActive(ctx context.Context, q pagination.Query) (pagination.Page[*Tenant], error)
	Get(ctx context.Context, id int64) (*Tenant, error)
	Update(ctx context.Context, id int64, dto UpdateTenantDTO) (*Tenant, error)
	Delete(ctx context.Context, id int64) error
	ToggleActive(ctx context.Context, id int64) (*Tenant, error)
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
	var dto CreateTenantDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	t, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.List)
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListActive)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, pagination.Query) (pagination.Page[*Tenant], error)) {
	q, err := pagination.FromRequest(r, pagination.DefaultLimit)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	page, err := fetch(r.Context(), q)
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

	t, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto UpdateTenantDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	t, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
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

	t, err := h.Service.ToggleActive(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}
