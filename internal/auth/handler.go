package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/authz"
	"github.com/frahmantamala/tenant-admin/internal/core/common/validation"
	"github.com/frahmantamala/tenant-admin/internal/transport"
	"github.com/frahmantamala/tenant-admin/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	Resolve(ctx context.Context, token string) (*authz.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (AuthTokens, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	result, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.InfoContext(r.Context(), "login rejected", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	tokens, err := h.Service.Refresh(r.Context(), dto.RefreshToken)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

// Me returns the identity resolved for the current request.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrNotAuthenticated)
		return
	}
	h.WriteJSON(w, http.StatusOK, id)
}

// AuthMiddleware resolves a bearer token into an identity on the request
// context. Requests without a token pass through unauthenticated and are
// rejected by the route's policy where one applies.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := h.Service.Resolve(r.Context(), token)
		if err != nil {
			h.Logger.WarnContext(r.Context(), "token rejected", "error", err, "path", r.URL.Path)
			h.HandleServiceError(w, r, err)
			return
		}

		ctx := authz.ContextWithIdentity(r.Context(), id)
		ctx = logger.With(ctx, "user_id", id.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
