package authz_test

import (
	"encoding/json"

	"github.com/frahmantamala/tenant-admin/internal/authz"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TenantIsolation", func() {
	It("allows resources of the caller's tenant", func() {
		d := authz.TenantIsolation(tenantAdmin(7), authz.OwnedBy(authz.BelongsTo(7)))
		Expect(d.Allowed()).To(BeTrue())
	})

	It("reports a foreign resource exactly like a missing one", func() {
		foreign := authz.TenantIsolation(tenantAdmin(7), authz.OwnedBy(authz.BelongsTo(8)))
		missing := authz.TenantIsolation(tenantAdmin(7), authz.NotFound())

		Expect(foreign).To(Equal(missing))
		Expect(foreign.Reason).To(Equal(authz.ResourceNotFound))
		Expect(foreign.Reason.AppError()).To(Equal(missing.Reason.AppError()))
	})

	It("hides global resources from tenant members", func() {
		d := authz.TenantIsolation(member(7), authz.OwnedBy(authz.Global()))
		Expect(d.Reason).To(Equal(authz.ResourceNotFound))
	})
})

var _ = Describe("TenantScope", func() {
	It("distinguishes global from tenant scopes", func() {
		Expect(authz.Global().IsGlobal()).To(BeTrue())
		Expect(authz.BelongsTo(3).IsGlobal()).To(BeFalse())
		Expect(authz.BelongsTo(3)).To(Equal(authz.BelongsTo(3)))
		Expect(authz.BelongsTo(3)).NotTo(Equal(authz.BelongsTo(4)))
	})

	It("round-trips the nullable column form", func() {
		Expect(authz.ScopeOf(nil).IsGlobal()).To(BeTrue())
		id := int64(5)
		scope := authz.ScopeOf(&id)
		got, ok := scope.TenantID()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(int64(5)))
		Expect(*scope.Ptr()).To(Equal(int64(5)))
		Expect(authz.Global().Ptr()).To(BeNil())
	})

	It("serialises as the tenant id or null", func() {
		out, err := json.Marshal(map[string]authz.TenantScope{"a": authz.Global(), "b": authz.BelongsTo(9)})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"a":null,"b":9}`))
	})
})
