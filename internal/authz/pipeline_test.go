package authz_test

import (
	"github.com/frahmantamala/tenant-admin/internal/authz"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func superAdmin() *authz.Identity {
	return &authz.Identity{ID: 1, Email: "root@example.com", IsSuperAdmin: true, IsActive: true, Scope: authz.Global()}
}

func tenantAdmin(tenantID int64) *authz.Identity {
	return &authz.Identity{ID: 2, Email: "admin@acme.test", IsTenantAdmin: true, IsActive: true, Scope: authz.BelongsTo(tenantID)}
}

func member(tenantID int64) *authz.Identity {
	return &authz.Identity{ID: 3, Email: "user@acme.test", IsActive: true, Scope: authz.BelongsTo(tenantID)}
}

var _ = Describe("Pipelines", func() {
	DescribeTable("GlobalAdminPolicy",
		func(id *authz.Identity, expected authz.Reason) {
			Expect(authz.GlobalAdminPolicy.Evaluate(id).Reason).To(Equal(expected))
		},
		Entry("no identity", nil, authz.NotAuthenticated),
		Entry("super admin", superAdmin(), authz.Reason("")),
		Entry("tenant admin", tenantAdmin(7), authz.AdminOnly),
		Entry("disabled super admin", &authz.Identity{ID: 1, IsSuperAdmin: true}, authz.AccountDisabled),
	)

	DescribeTable("TenantAdminPolicy",
		func(id *authz.Identity, expected authz.Reason) {
			Expect(authz.TenantAdminPolicy.Evaluate(id).Reason).To(Equal(expected))
		},
		Entry("no identity", nil, authz.NotAuthenticated),
		Entry("super admin", superAdmin(), authz.SuperAdminsExcluded),
		Entry("user without tenant", &authz.Identity{ID: 9, IsActive: true}, authz.NoTenant),
		Entry("plain member", member(7), authz.TenantAdminOnly),
		Entry("tenant admin", tenantAdmin(7), authz.Reason("")),
	)

	DescribeTable("TenantMemberPolicy",
		func(id *authz.Identity, expected authz.Reason) {
			Expect(authz.TenantMemberPolicy.Evaluate(id).Reason).To(Equal(expected))
		},
		Entry("plain member", member(7), authz.Reason("")),
		Entry("tenant admin", tenantAdmin(7), authz.Reason("")),
		Entry("super admin", superAdmin(), authz.SuperAdminsExcluded),
		Entry("disabled member", &authz.Identity{ID: 3, Scope: authz.BelongsTo(7)}, authz.AccountDisabled),
	)

	It("stops at the first failing gate", func() {
		// Given a disabled user who is also not a tenant member
		id := &authz.Identity{ID: 4, IsSuperAdmin: true}

		// When
		d := authz.TenantAdminPolicy.Evaluate(id)

		// Then the Active gate answers, not TenantMember
		Expect(d.Allowed()).To(BeFalse())
		Expect(d.Gate).To(Equal("Active"))
		Expect(d.Reason).To(Equal(authz.AccountDisabled))
	})

	It("evaluates later gates only after earlier ones pass", func() {
		calls := 0
		counting := authz.Gate{Name: "Counting", Check: func(*authz.Identity) authz.Decision {
			calls++
			return authz.Allow()
		}}

		p := authz.NewPipeline("test", authz.Authenticated, counting)
		p.Evaluate(nil)
		Expect(calls).To(Equal(0))

		p.Evaluate(member(1))
		Expect(calls).To(Equal(1))
	})

	It("fails closed when no gates are configured", func() {
		Expect(authz.NewPipeline("empty").Evaluate(superAdmin()).Allowed()).To(BeFalse())
	})

	It("lists gate names in order", func() {
		Expect(authz.TenantAdminPolicy.Gates()).To(Equal([]string{"Authenticated", "Active", "TenantMember", "TenantAdminOf"}))
	})

	It("denies a tenant admin acting on another tenant", func() {
		gate := authz.TenantAdminOf(func(*authz.Identity) authz.TenantScope { return authz.BelongsTo(8) })
		Expect(gate.Check(tenantAdmin(7)).Reason).To(Equal(authz.TenantAdminOnly))
		Expect(gate.Check(tenantAdmin(8)).Allowed()).To(BeTrue())
	})

	It("maps every reason to a stable error code", func() {
		Expect(authz.NotAuthenticated.AppError().Code).To(BeEquivalentTo("NOT_AUTHENTICATED"))
		Expect(authz.AccountDisabled.AppError().Code).To(BeEquivalentTo("ACCOUNT_DISABLED"))
		Expect(authz.AdminOnly.AppError().Code).To(BeEquivalentTo("ADMIN_ONLY"))
		Expect(authz.TenantAdminOnly.AppError().Code).To(BeEquivalentTo("TENANT_ADMIN_ONLY"))
		Expect(authz.NoTenant.AppError().Code).To(BeEquivalentTo("NO_TENANT"))
		Expect(authz.SuperAdminsExcluded.AppError().Code).To(BeEquivalentTo("SUPER_ADMINS_EXCLUDED"))
		Expect(authz.ResourceNotFound.AppError().Code).To(BeEquivalentTo("RESOURCE_NOT_FOUND"))
	})
})
