package user_test

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	tenantDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/core/events"
	"github.com/frahmantamala/tenant-admin/internal/core/security"
	"github.com/frahmantamala/tenant-admin/internal/core/testutil"
	"github.com/frahmantamala/tenant-admin/internal/tenant"
	"github.com/frahmantamala/tenant-admin/internal/user"
	userPostgres "github.com/frahmantamala/tenant-admin/internal/user/postgres"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.types = append(p.types, event.EventType())
	return nil
}

var _ = Describe("User Service", func() {
	var (
		db        *gorm.DB
		repo      user.RepositoryAPI
		hasher    *security.BcryptHasher
		publisher *recordingPublisher
		service   *user.Service
		ctx       context.Context
		acme      *tenantDatamodel.Tenant
		globex    *tenantDatamodel.Tenant
	)

	newTenant := func(slug string) *tenantDatamodel.Tenant {
		t := &tenantDatamodel.Tenant{Name: slug, Slug: slug, IsActive: true}
		Expect(db.Create(t).Error).To(Succeed())
		return t
	}

	newRole := func(name string, tenantID int64, permIDs ...int64) *roleDatamodel.Role {
		r := &roleDatamodel.Role{Name: name, TenantID: tenantID}
		Expect(db.Create(r).Error).To(Succeed())
		for _, pid := range permIDs {
			Expect(db.Create(&roleDatamodel.RolePermission{RoleID: r.ID, PermissionID: pid}).Error).To(Succeed())
		}
		return r
	}

	newPermission := func(codename, module string) *permissionDatamodel.Permission {
		p := &permissionDatamodel.Permission{Codename: codename, Name: codename, Module: module}
		Expect(db.Create(p).Error).To(Succeed())
		return p
	}

	createMember := func(email string, tenantID int64) *user.User {
		id := tenantID
		u, err := service.Create(ctx, user.CreateUserDTO{
			Email:    email,
			Password: "secret1",
			TenantID: user.OptionalTenantID{Set: true, Value: &id},
		})
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	BeforeEach(func() {
		var err error
		db, err = testutil.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		hasher, err = security.NewBcryptHasher(4)
		Expect(err).NotTo(HaveOccurred())

		repo = userPostgres.NewUserRepository(db)
		publisher = &recordingPublisher{}
		service = user.NewService(repo, hasher, publisher, testutil.DiscardLogger())
		ctx = context.Background()

		acme = newTenant("acme")
		globex = newTenant("globex")
	})

	Describe("Create", func() {
		It("rejects super admin creation", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{Email: "root@x.io", Password: "secret1", IsSuperAdmin: true})
			Expect(err).To(MatchError(internal.ErrSuperAdminCreationForbidden))
		})

		It("rejects a tenant admin without tenant", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{Email: "a@x.io", Password: "secret1", IsTenantAdmin: true})
			Expect(err).To(MatchError(internal.ErrTenantAdminWithoutTenant))
		})

		It("rejects an unknown tenant", func() {
			missing := int64(999)
			_, err := service.Create(ctx, user.CreateUserDTO{
				Email: "a@x.io", Password: "secret1",
				TenantID: user.OptionalTenantID{Set: true, Value: &missing},
			})
			Expect(err).To(MatchError(tenant.ErrTenantNotFound))
		})

		It("normalizes the email and rejects duplicates", func() {
			u := createMember("  Ana@Acme.io ", acme.ID)
			Expect(u.Email).To(Equal("ana@acme.io"))
			Expect(u.IsActive).To(BeTrue())
			Expect(u.Tenant).NotTo(BeNil())
			Expect(u.Tenant.Slug).To(Equal("acme"))

			_, err := service.Create(ctx, user.CreateUserDTO{Email: "ana@acme.io", Password: "secret1"})
			Expect(err).To(MatchError(internal.ErrConflictEmail))
		})

		It("stores a bcrypt hash and never serializes it", func() {
			u := createMember("ana@acme.io", acme.ID)
			Expect(u.PasswordHash).NotTo(Equal("secret1"))

			raw, err := json.Marshal(u)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).NotTo(ContainSubstring(u.PasswordHash))
			Expect(publisher.types).To(ContainElement(events.UserCreated))
		})
	})

	Describe("Update", func() {
		It("refuses to change the super admin flag", func() {
			u := createMember("ana@acme.io", acme.ID)
			_, err := service.Update(ctx, u.ID, user.UpdateUserDTO{IsSuperAdmin: testutil.Ptr(true)})
			Expect(err).To(MatchError(internal.ErrSuperAdminFlagImmutable))
		})

		It("allows keeping its own email", func() {
			u := createMember("ana@acme.io", acme.ID)
			updated, err := service.Update(ctx, u.ID, user.UpdateUserDTO{Email: testutil.Ptr("ana@acme.io"), Name: testutil.Ptr("Ana")})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.Name).To(Equal("Ana"))
		})

		It("rejects an email held by someone else", func() {
			createMember("bob@acme.io", acme.ID)
			u := createMember("ana@acme.io", acme.ID)
			_, err := service.Update(ctx, u.ID, user.UpdateUserDTO{Email: testutil.Ptr("BOB@acme.io")})
			Expect(err).To(MatchError(internal.ErrConflictEmail))
		})

		It("clears roles and direct permissions when the tenant changes", func() {
			// Given a member of acme with a role and a direct permission
			p := newPermission("view_user", "users")
			role := newRole("viewer", acme.ID, p.ID)
			u := createMember("ana@acme.io", acme.ID)
			_, err := service.AssignRoles(ctx, u.ID, []int64{role.ID})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.AssignPermissions(ctx, u.ID, []int64{p.ID})
			Expect(err).NotTo(HaveOccurred())

			// When the user moves to globex
			moved, err := service.Update(ctx, u.ID, user.UpdateUserDTO{TenantID: user.OptionalTenantID{Set: true, Value: &globex.ID}})

			// Then every link is gone
			Expect(err).NotTo(HaveOccurred())
			Expect(*moved.TenantID).To(Equal(globex.ID))
			Expect(moved.Roles).To(BeEmpty())
			Expect(moved.Permissions).To(BeEmpty())

			var count int64
			db.Model(&userDatamodel.UserRole{}).Where("user_id = ?", u.ID).Count(&count)
			Expect(count).To(BeZero())
			db.Model(&userDatamodel.UserPermission{}).Where("user_id = ?", u.ID).Count(&count)
			Expect(count).To(BeZero())
			Expect(publisher.types).To(ContainElement(events.UserTenantChanged))
		})

		It("keeps links when the tenant is resent unchanged", func() {
			role := newRole("viewer", acme.ID)
			u := createMember("ana@acme.io", acme.ID)
			_, err := service.AssignRoles(ctx, u.ID, []int64{role.ID})
			Expect(err).NotTo(HaveOccurred())

			same, err := service.Update(ctx, u.ID, user.UpdateUserDTO{TenantID: user.OptionalTenantID{Set: true, Value: &acme.ID}})
			Expect(err).NotTo(HaveOccurred())
			Expect(same.Roles).To(HaveLen(1))
		})

		It("rolls the tenant change back when the merged state is invalid", func() {
			role := newRole("viewer", acme.ID)
			u := createMember("ana@acme.io", acme.ID)
			_, err := service.Update(ctx, u.ID, user.UpdateUserDTO{IsTenantAdmin: testutil.Ptr(true)})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.AssignRoles(ctx, u.ID, []int64{role.ID})
			Expect(err).NotTo(HaveOccurred())

			// a tenant admin cannot lose its tenant
			_, err = service.Update(ctx, u.ID, user.UpdateUserDTO{TenantID: user.OptionalTenantID{Set: true}})
			Expect(err).To(MatchError(internal.ErrTenantAdminWithoutTenant))

			got, err := service.Get(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*got.TenantID).To(Equal(acme.ID))
			Expect(got.Roles).To(HaveLen(1))
		})
	})

	Describe("AssignRoles", func() {
		It("rejects the whole batch when one role is foreign", func() {
			own := newRole("viewer", acme.ID)
			foreign := newRole("viewer", globex.ID)
			u := createMember("ana@acme.io", acme.ID)

			_, err := service.AssignRoles(ctx, u.ID, []int64{own.ID, foreign.ID})
			Expect(err).To(MatchError(internal.ErrForeignRole))

			var count int64
			db.Model(&userDatamodel.UserRole{}).Where("user_id = ?", u.ID).Count(&count)
			Expect(count).To(BeZero())
		})

		It("treats unknown role ids as foreign", func() {
			u := createMember("ana@acme.io", acme.ID)
			_, err := service.AssignRoles(ctx, u.ID, []int64{404})
			Expect(err).To(MatchError(internal.ErrForeignRole))
		})

		It("rejects roles for a user without tenant", func() {
			role := newRole("viewer", acme.ID)
			u, err := service.Create(ctx, user.CreateUserDTO{Email: "free@x.io", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AssignRoles(ctx, u.ID, []int64{role.ID})
			Expect(err).To(MatchError(internal.ErrForeignRole))
		})

		It("tells super admins they need no roles", func() {
			root := &userDatamodel.User{Email: "root@x.io", PasswordHash: "x", IsSuperAdmin: true, IsActive: true}
			Expect(db.Create(root).Error).To(Succeed())
			role := newRole("viewer", acme.ID)

			_, err := service.AssignRoles(ctx, root.ID, []int64{role.ID})
			Expect(err).To(MatchError(internal.ErrSuperAdminNoRolesNeeded))
		})

		It("is idempotent and removable", func() {
			role := newRole("viewer", acme.ID)
			u := createMember("ana@acme.io", acme.ID)

			_, err := service.AssignRoles(ctx, u.ID, []int64{role.ID, role.ID})
			Expect(err).NotTo(HaveOccurred())
			again, err := service.AssignRoles(ctx, u.ID, []int64{role.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Roles).To(HaveLen(1))

			removed, err := service.RemoveRoles(ctx, u.ID, []int64{role.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(removed.Roles).To(BeEmpty())
		})
	})

	Describe("AssignPermissions", func() {
		It("rejects unknown permission ids atomically", func() {
			p := newPermission("view_user", "users")
			u := createMember("ana@acme.io", acme.ID)

			_, err := service.AssignPermissions(ctx, u.ID, []int64{p.ID, 999})
			Expect(err).To(MatchError(internal.ErrUnknownPermission))

			var count int64
			db.Model(&userDatamodel.UserPermission{}).Where("user_id = ?", u.ID).Count(&count)
			Expect(count).To(BeZero())
		})
	})

	Describe("EffectivePermissions", func() {
		It("unions role and direct permissions without duplicates", func() {
			view := newPermission("view_user", "users")
			add := newPermission("add_user", "users")
			roleView := newPermission("view_role", "roles")
			r1 := newRole("viewer", acme.ID, view.ID, roleView.ID)
			r2 := newRole("auditor", acme.ID, view.ID)
			u := createMember("ana@acme.io", acme.ID)

			_, err := service.AssignRoles(ctx, u.ID, []int64{r1.ID, r2.ID})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.AssignPermissions(ctx, u.ID, []int64{view.ID, add.ID})
			Expect(err).NotTo(HaveOccurred())

			eff, err := service.EffectivePermissions(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(eff.Unrestricted).To(BeFalse())
			Expect(eff.Total).To(Equal(3))
			Expect(eff.Permissions).To(ConsistOf(
				HaveField("Codename", "view_user"),
				HaveField("Codename", "add_user"),
				HaveField("Codename", "view_role"),
			))
		})

		It("returns the unrestricted sentinel for super admins", func() {
			root := &userDatamodel.User{Email: "root@x.io", PasswordHash: "x", IsSuperAdmin: true, IsActive: true}
			Expect(db.Create(root).Error).To(Succeed())

			eff, err := service.EffectivePermissions(ctx, root.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(eff.Unrestricted).To(BeTrue())
			Expect(eff.Permissions).To(BeEmpty())
		})

		It("reports a missing user", func() {
			_, err := service.EffectivePermissions(ctx, 404)
			Expect(err).To(MatchError(user.ErrNotFound))
		})
	})

	Describe("ChangePassword", func() {
		It("checks the confirmation before the current password", func() {
			u := createMember("ana@acme.io", acme.ID)
			err := service.ChangePassword(ctx, u.ID, user.ChangePasswordDTO{CurrentPassword: "wrong", NewPassword: "newpass", ConfirmPassword: "other"})
			Expect(err).To(MatchError(internal.ErrPasswordMismatch))
		})

		It("rejects a wrong current password", func() {
			u := createMember("ana@acme.io", acme.ID)
			err := service.ChangePassword(ctx, u.ID, user.ChangePasswordDTO{CurrentPassword: "wrong", NewPassword: "newpass", ConfirmPassword: "newpass"})
			Expect(err).To(MatchError(internal.ErrWrongCurrentPassword))
		})

		It("stores the new hash", func() {
			u := createMember("ana@acme.io", acme.ID)
			err := service.ChangePassword(ctx, u.ID, user.ChangePasswordDTO{CurrentPassword: "secret1", NewPassword: "newpass", ConfirmPassword: "newpass"})
			Expect(err).NotTo(HaveOccurred())

			row, err := repo.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			ok, err := hasher.Verify(row.PasswordHash, "newpass")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("listing and lifecycle", func() {
		It("pages users of one tenant", func() {
			for _, email := range []string{"a@acme.io", "b@acme.io", "c@acme.io"} {
				createMember(email, acme.ID)
			}
			createMember("x@globex.io", globex.ID)

			page, err := service.ListByTenant(ctx, acme.ID, pagination.Query{Page: 2, Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(1))
			Expect(page.Meta.TotalItems).To(Equal(int64(3)))
			Expect(page.Meta.TotalPages).To(Equal(2))
		})

		It("reports an unknown tenant when listing by tenant", func() {
			_, err := service.ListByTenant(ctx, 999, pagination.Query{Page: 1, Limit: 10})
			Expect(err).To(MatchError(tenant.ErrTenantNotFound))
		})

		It("toggles and deletes", func() {
			u := createMember("ana@acme.io", acme.ID)

			toggled, err := service.ToggleActive(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(toggled.IsActive).To(BeFalse())

			Expect(service.Delete(ctx, u.ID)).To(Succeed())
			_, err = service.Get(ctx, u.ID)
			Expect(err).To(MatchError(user.ErrNotFound))
			Expect(service.Delete(ctx, u.ID)).To(MatchError(user.ErrNotFound))
		})
	})

	Describe("OwnerLookup", func() {
		It("reports the user's tenant or absence", func() {
			u := createMember("ana@acme.io", acme.ID)
			lookup := user.OwnerLookup(repo)

			own, err := lookup(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(own.Found).To(BeTrue())
			id, ok := own.Scope.TenantID()
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(acme.ID))

			own, err = lookup(ctx, 404)
			Expect(err).NotTo(HaveOccurred())
			Expect(own.Found).To(BeFalse())
		})
	})
})
