package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/tenant-admin/api"
	"github.com/frahmantamala/tenant-admin/internal/auth"
	"github.com/frahmantamala/tenant-admin/internal/authz"
	"github.com/frahmantamala/tenant-admin/internal/permission"
	"github.com/frahmantamala/tenant-admin/internal/role"
	"github.com/frahmantamala/tenant-admin/internal/tenant"
	"github.com/frahmantamala/tenant-admin/internal/tenantuser"
	"github.com/frahmantamala/tenant-admin/internal/transport/middleware"
	"github.com/frahmantamala/tenant-admin/internal/transport/swagger"
	"github.com/frahmantamala/tenant-admin/internal/user"
)

// Handlers bundles everything the router mounts. Nil handlers leave their
// routes unregistered.
type Handlers struct {
	Auth       *auth.Handler
	Tenant     *tenant.Handler
	User       *user.Handler
	Permission *permission.Handler
	TenantUser *tenantuser.Handler
	Role       *role.Handler

	// ownership lookups for TenantIsolation
	UserOwner authz.OwnerLookup
	RoleOwner authz.OwnerLookup
}

type Options struct {
	AllowedOrigins []string
	LoginLimiter   *middleware.RateLimiter
	Metrics        *middleware.Metrics
	MetricsPath    string
	Gatherer       prometheus.Gatherer
}

func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	guard := authz.NewGuard(logger)

	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Handler)
	}
	router.Use(middleware.Logging(logger))

	router.Get(swagger.DocumentPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Document())
	})
	router.Handle("/swagger/*", swagger.Handler())

	if opts.Gatherer != nil && opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			if opts.LoginLimiter != nil {
				ar.With(opts.LoginLimiter.Handler).Post("/login", h.Auth.Login)
			} else {
				ar.Post("/login", h.Auth.Login)
			}
			ar.Post("/refresh", h.Auth.Refresh)
			ar.With(h.Auth.AuthMiddleware, guard.Require(authz.AuthenticatedPolicy)).Get("/me", h.Auth.Me)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.Tenant != nil {
				pr.Route("/tenants", func(tr chi.Router) {
					tr.Use(guard.Require(authz.GlobalAdminPolicy))
					tr.Post("/", h.Tenant.Create)
					tr.Get("/", h.Tenant.List)
					tr.Get("/active", h.Tenant.ListActive)
					tr.Get("/{id}", h.Tenant.Get)
					tr.Patch("/{id}", h.Tenant.Update)
					tr.Delete("/{id}", h.Tenant.Delete)
					tr.Patch("/{id}/toggle-active", h.Tenant.ToggleActive)
				})
			}

			if h.User != nil {
				pr.Route("/users", func(ur chi.Router) {
					ur.Use(guard.Require(authz.GlobalAdminPolicy))
					ur.Post("/", h.User.Create)
					ur.Get("/", h.User.List)
					ur.Get("/tenant/{tenantId}", h.User.ListByTenant)
					ur.Get("/{id}", h.User.Get)
					ur.Patch("/{id}", h.User.Update)
					ur.Patch("/{id}/password", h.User.ChangePassword)
					ur.Delete("/{id}", h.User.Delete)
					ur.Patch("/{id}/toggle-active", h.User.ToggleActive)
					ur.Post("/{id}/roles", h.User.AssignRoles)
					ur.Delete("/{id}/roles", h.User.RemoveRoles)
					ur.Get("/{id}/permissions", h.User.EffectivePermissions)
					ur.Post("/{id}/permissions", h.User.AssignPermissions)
					ur.Delete("/{id}/permissions", h.User.RemovePermissions)
				})
			}

			if h.Permission != nil {
				pr.Route("/tenant-permissions", func(cr chi.Router) {
					cr.Use(guard.Require(authz.PermissionCatalogPolicy))
					cr.Get("/", h.Permission.List)
					cr.Get("/by-module", h.Permission.GroupedByModule)
					cr.Get("/modules", h.Permission.Modules)
					cr.Get("/module/{moduleName}", h.Permission.ByModule)
					cr.Get("/{id}", h.Permission.Get)
				})
			}

			pr.Route("/user-tenant", func(tr chi.Router) {
				if h.TenantUser != nil {
					tr.Group(func(mr chi.Router) {
						mr.Use(guard.Require(authz.TenantMemberPolicy))
						mr.Get("/profile", h.TenantUser.Profile)
						mr.Patch("/profile", h.TenantUser.UpdateProfile)
						mr.Patch("/profile/password", h.TenantUser.ChangePassword)
					})

					tr.Route("/users", func(ur chi.Router) {
						ur.Use(guard.Require(authz.TenantAdminPolicy))
						ur.Post("/", h.TenantUser.Create)
						ur.Get("/", h.TenantUser.List)

						owned := ur.With(guard.Isolate(authz.Resource{Kind: "user", Param: "id", Lookup: h.UserOwner}))
						owned.Get("/{id}", h.TenantUser.Get)
						owned.Patch("/{id}", h.TenantUser.Update)
						owned.Patch("/{id}/toggle-active", h.TenantUser.ToggleActive)
					})
				}

				if h.Role != nil {
					tr.Route("/roles", func(rr chi.Router) {
						rr.Use(guard.Require(authz.TenantAdminPolicy))
						rr.Post("/", h.Role.Create)
						rr.Get("/", h.Role.List)

						owned := rr.With(guard.Isolate(authz.Resource{Kind: "role", Param: "id", Lookup: h.RoleOwner}))
						owned.Get("/{id}", h.Role.Get)
						owned.Patch("/{id}", h.Role.Update)
						owned.Delete("/{id}", h.Role.Delete)
						owned.Put("/{id}/permissions", h.Role.ReplacePermissions)
					})
				}
			})
		})
	})
}
