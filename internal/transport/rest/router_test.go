package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/frahmantamala/tenant-admin/api"
	"github.com/frahmantamala/tenant-admin/internal/auth"
	authPostgres "github.com/frahmantamala/tenant-admin/internal/auth/postgres"
	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	tenantDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/core/security"
	"github.com/frahmantamala/tenant-admin/internal/core/testutil"
	"github.com/frahmantamala/tenant-admin/internal/permission"
	permissionPostgres "github.com/frahmantamala/tenant-admin/internal/permission/postgres"
	"github.com/frahmantamala/tenant-admin/internal/role"
	rolePostgres "github.com/frahmantamala/tenant-admin/internal/role/postgres"
	"github.com/frahmantamala/tenant-admin/internal/tenant"
	tenantPostgres "github.com/frahmantamala/tenant-admin/internal/tenant/postgres"
	"github.com/frahmantamala/tenant-admin/internal/tenantuser"
	"github.com/frahmantamala/tenant-admin/internal/transport"
	"github.com/frahmantamala/tenant-admin/internal/transport/rest"
	"github.com/frahmantamala/tenant-admin/internal/user"
	userPostgres "github.com/frahmantamala/tenant-admin/internal/user/postgres"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	accessSecret  = "access-secret-access-secret-access-secret"
	refreshSecret = "refresh-secret-refresh-secret-refresh-secret"
)

type errorBody struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

var _ = Describe("Router", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
		tokens *auth.JWTTokenGenerator
		acme   *tenantDatamodel.Tenant
		globex *tenantDatamodel.Tenant
	)

	newUser := func(email string, tenantID *int64, superAdmin, tenantAdmin bool) *userDatamodel.User {
		u := &userDatamodel.User{
			Email:         email,
			PasswordHash:  "x",
			IsSuperAdmin:  superAdmin,
			IsTenantAdmin: tenantAdmin,
			TenantID:      tenantID,
			IsActive:      true,
		}
		Expect(db.Create(u).Error).To(Succeed())
		return u
	}

	call := func(method, path, token, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	codeOf := func(rec *httptest.ResponseRecorder) string {
		var body errorBody
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	tokenFor := func(u *userDatamodel.User) string {
		tok, err := tokens.GenerateAccessToken(u.ID)
		Expect(err).NotTo(HaveOccurred())
		return tok
	}

	BeforeEach(func() {
		var err error
		db, err = testutil.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		hasher, err := security.NewBcryptHasher(4)
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		xdb := sqlx.NewDb(sqlDB, "sqlite3")

		lg := testutil.DiscardLogger()
		base := transport.NewBaseHandler(lg)
		tokens = auth.NewJWTTokenGenerator(accessSecret, refreshSecret, time.Hour, 24*time.Hour)

		userRepo := userPostgres.NewUserRepository(db)
		roleRepo := rolePostgres.NewRoleRepository(db)
		users := user.NewService(userRepo, hasher, nil, lg)

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, xdb, rest.Handlers{
			Auth:       auth.NewHandler(base, auth.NewService(authPostgres.NewRepository(db), tokens, hasher, lg)),
			Tenant:     tenant.NewHandler(base, tenant.NewService(tenantPostgres.NewTenantRepository(db), nil, lg)),
			User:       user.NewHandler(base, users),
			Permission: permission.NewHandler(base, permission.NewService(permissionPostgres.NewPermissionRepository(xdb), lg)),
			TenantUser: tenantuser.NewHandler(base, tenantuser.NewService(userRepo, hasher, users, nil, lg)),
			Role:       role.NewHandler(base, role.NewService(roleRepo, nil, lg)),
			UserOwner:  user.OwnerLookup(userRepo),
			RoleOwner:  role.OwnerLookup(roleRepo),
		}, rest.Options{AllowedOrigins: []string{"*"}}, lg)

		acme = &tenantDatamodel.Tenant{Name: "Acme", Slug: "acme", IsActive: true}
		globex = &tenantDatamodel.Tenant{Name: "Globex", Slug: "globex", IsActive: true}
		Expect(db.Create(acme).Error).To(Succeed())
		Expect(db.Create(globex).Error).To(Succeed())
	})

	It("rejects anonymous calls to protected routes", func() {
		rec := call(http.MethodGet, "/api/v1/tenants", "", "")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(codeOf(rec)).To(Equal("NOT_AUTHENTICATED"))
	})

	It("keeps tenant management for super administrators", func() {
		admin := newUser("admin@acme.com", &acme.ID, false, true)
		rec := call(http.MethodGet, "/api/v1/tenants", tokenFor(admin), "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(codeOf(rec)).To(Equal("ADMIN_ONLY"))

		root := newUser("root@example.com", nil, true, false)
		rec = call(http.MethodGet, "/api/v1/tenants", tokenFor(root), "")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("sends super administrators to the global endpoints", func() {
		root := newUser("root@example.com", nil, true, false)
		rec := call(http.MethodGet, "/api/v1/user-tenant/users", tokenFor(root), "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(codeOf(rec)).To(Equal("SUPER_ADMINS_EXCLUDED"))
	})

	It("requires tenant admin rights for tenant user management", func() {
		member := newUser("member@acme.com", &acme.ID, false, false)
		rec := call(http.MethodGet, "/api/v1/user-tenant/users", tokenFor(member), "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(codeOf(rec)).To(Equal("TENANT_ADMIN_ONLY"))

		rec = call(http.MethodGet, "/api/v1/user-tenant/profile", tokenFor(member), "")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("hides users and roles of other tenants behind the same not found", func() {
		admin := newUser("admin@acme.com", &acme.ID, false, true)
		foreign := newUser("bob@globex.com", &globex.ID, false, false)
		foreignRole := &roleDatamodel.Role{Name: "Ops", TenantID: globex.ID}
		Expect(db.Create(foreignRole).Error).To(Succeed())

		crossTenant := call(http.MethodGet, "/api/v1/user-tenant/users/"+itoa(foreign.ID), tokenFor(admin), "")
		missing := call(http.MethodGet, "/api/v1/user-tenant/users/99999", tokenFor(admin), "")
		Expect(crossTenant.Code).To(Equal(http.StatusNotFound))
		Expect(crossTenant.Body.String()).To(Equal(missing.Body.String()))

		rec := call(http.MethodDelete, "/api/v1/user-tenant/roles/"+itoa(foreignRole.ID), tokenFor(admin), "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(codeOf(rec)).To(Equal("RESOURCE_NOT_FOUND"))

		var roles int64
		db.Model(&roleDatamodel.Role{}).Count(&roles)
		Expect(roles).To(Equal(int64(1)))
	})

	It("blocks a disabled user on the next request", func() {
		admin := newUser("admin@acme.com", &acme.ID, false, true)
		token := tokenFor(admin)
		Expect(db.Model(admin).Update("is_active", false).Error).To(Succeed())

		rec := call(http.MethodGet, "/api/v1/auth/me", token, "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(codeOf(rec)).To(Equal("ACCOUNT_DISABLED"))
	})

	It("documents every API route", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())

		var undocumented []string
		err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, "/api/v1/") {
				return nil
			}
			path := strings.TrimPrefix(route, "/api/v1")
			if len(path) > 1 {
				path = strings.TrimSuffix(path, "/")
			}
			item := doc.Paths.Find(path)
			if item == nil || item.GetOperation(method) == nil {
				undocumented = append(undocumented, method+" "+path)
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(undocumented).To(BeEmpty())
	})
})

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
