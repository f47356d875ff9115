package permission

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	"github.com/frahmantamala/tenant-admin/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, q pagination.Query) (pagination.Page[*Permission], error)
	Get(ctx context.Context, id int64) (*Permission, error)
	GroupedByModule(ctx context.Context) ([]ModuleGroup, error)
	Modules(ctx context.Context) ([]string, error)
	ByModule(ctx context.Context, module string) (*ModuleGroup, error)
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := pagination.FromRequest(r, pagination.CatalogPageLimit)
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

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) GroupedByModule(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.GroupedByModule(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, groups)
}

func (h *Handler) Modules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.Service.Modules(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, modules)
}

func (h *Handler) ByModule(w http.ResponseWriter, r *http.Request) {
	module := strings.TrimSpace(chi.URLParam(r, "moduleName"))
	if module == "" {
		h.HandleServiceError(w, r, internal.NewValidationFieldError("moduleName", "moduleName is required", internal.ErrCodeValidationFailed))
		return
	}

	group, err := h.Service.ByModule(r.Context(), module)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, group)
}
