package authz

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/transport"
)

// Guard binds pipelines and resource isolation to HTTP routes.
type Guard struct {
	*transport.BaseHandler
}

func NewGuard(logger *slog.Logger) *Guard {
	return &Guard{BaseHandler: transport.NewBaseHandler(logger)}
}

// Require runs the pipeline against the identity stored by the auth middleware.
func (g *Guard) Require(p Pipeline) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFromContext(r.Context())

			d := p.Evaluate(id)
			if !d.Allowed() {
				g.deny(w, r, id, p.Name, d)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Isolate looks up the owner of the resource named by res.Param and denies
// access unless it belongs to the caller's tenant. Mount it after Require.
func (g *Guard) Isolate(res Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFromContext(r.Context())

			resourceID, err := g.ParseIDParam(r, res.Param)
			if err != nil {
				g.HandleServiceError(w, r, err)
				return
			}

			own, err := res.Lookup(r.Context(), resourceID)
			if err != nil {
				g.HandleServiceError(w, r, internal.NewInternalError("failed to resolve resource owner", err))
				return
			}

			d := TenantIsolation(id, own)
			if !d.Allowed() {
				g.deny(w, r, id, res.Kind, d)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, id *Identity, policy string, d Decision) {
	var userID int64
	if id != nil {
		userID = id.ID
	}
	g.Logger.WarnContext(r.Context(), "access denied",
		"user_id", userID,
		"policy", policy,
		"gate", d.Gate,
		"reason", d.Reason,
		"path", r.URL.Path,
	)
	g.WriteAppError(w, d.Reason.AppError())
}
