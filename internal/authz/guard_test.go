package authz_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/tenant-admin/internal/authz"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Guard", func() {
	var (
		guard  *authz.Guard
		router *chi.Mux
		owners map[int64]authz.TenantScope
	)

	lookup := func(_ context.Context, id int64) (authz.Ownership, error) {
		if id == 500 {
			return authz.Ownership{}, errors.New("db down")
		}
		scope, ok := owners[id]
		if !ok {
			return authz.NotFound(), nil
		}
		return authz.OwnedBy(scope), nil
	}

	withIdentity := func(id *authz.Identity) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if id != nil {
					r = r.WithContext(authz.ContextWithIdentity(r.Context(), id))
				}
				next.ServeHTTP(w, r)
			})
		}
	}

	build := func(id *authz.Identity) {
		router = chi.NewRouter()
		router.Use(withIdentity(id))
		router.With(guard.Require(authz.TenantAdminPolicy), guard.Isolate(authz.Resource{Kind: "user", Param: "id", Lookup: lookup})).
			Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
	}

	do := func(path string) (*httptest.ResponseRecorder, map[string]map[string]any) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		return rec, body
	}

	BeforeEach(func() {
		guard = authz.NewGuard(slog.New(slog.NewTextHandler(io.Discard, nil)))
		owners = map[int64]authz.TenantScope{10: authz.BelongsTo(7), 11: authz.BelongsTo(8)}
	})

	It("rejects anonymous requests before looking up the resource", func() {
		build(nil)
		rec, body := do("/users/10")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(body["error"]["code"]).To(Equal("NOT_AUTHENTICATED"))
	})

	It("passes resources of the caller's tenant", func() {
		build(tenantAdmin(7))
		rec, _ := do("/users/10")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("answers identically for foreign and missing resources", func() {
		build(tenantAdmin(7))
		foreignRec, foreignBody := do("/users/11")
		missingRec, missingBody := do("/users/999")

		Expect(foreignRec.Code).To(Equal(http.StatusNotFound))
		Expect(foreignRec.Code).To(Equal(missingRec.Code))
		Expect(foreignBody).To(Equal(missingBody))
	})

	It("rejects malformed ids", func() {
		build(tenantAdmin(7))
		rec, body := do("/users/abc")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(body["error"]["code"]).To(Equal("VALIDATION_FAILED"))
	})

	It("reports lookup failures as internal errors", func() {
		build(tenantAdmin(7))
		rec, _ := do("/users/500")
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})
})
