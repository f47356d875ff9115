package role_test

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/core/common/pagination"
	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/core/testutil"
	"github.com/frahmantamala/tenant-admin/internal/role"
	rolePostgres "github.com/frahmantamala/tenant-admin/internal/role/postgres"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Role Service", func() {
	const (
		acme   int64 = 1
		globex int64 = 2
	)

	var (
		db      *gorm.DB
		repo    role.RepositoryAPI
		service *role.Service
		ctx     context.Context
		view    *permissionDatamodel.Permission
		add     *permissionDatamodel.Permission
	)

	newPermission := func(codename string) *permissionDatamodel.Permission {
		p := &permissionDatamodel.Permission{Codename: codename, Name: codename, Module: "users"}
		Expect(db.Create(p).Error).To(Succeed())
		return p
	}

	BeforeEach(func() {
		var err error
		db, err = testutil.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		repo = rolePostgres.NewRoleRepository(db)
		service = role.NewService(repo, nil, testutil.DiscardLogger())
		ctx = context.Background()

		view = newPermission("view_user")
		add = newPermission("add_user")
	})

	It("creates a role with its permissions", func() {
		r, err := service.Create(ctx, acme, role.CreateRoleDTO{Name: " Viewer ", PermissionIDs: []int64{view.ID, add.ID}})

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Name).To(Equal("Viewer"))
		Expect(r.TenantID).To(Equal(acme))
		Expect(r.Permissions).To(HaveLen(2))
	})

	It("returns the stored role from create", func() {
		created, err := service.Create(ctx, acme, role.CreateRoleDTO{Name: "Editor", PermissionIDs: []int64{add.ID}})
		Expect(err).NotTo(HaveOccurred())
		Expect(created.ID).To(BeNumerically(">", 0))

		stored, err := service.Get(ctx, acme, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Name).To(Equal("Editor"))
		Expect(stored.Permissions).To(HaveLen(1))
		Expect(stored.Permissions[0].Codename).To(Equal("add_user"))
	})

	It("keeps names unique per tenant only", func() {
		_, err := service.Create(ctx, acme, role.CreateRoleDTO{Name: "viewer"})
		Expect(err).NotTo(HaveOccurred())

		_, err = service.Create(ctx, acme, role.CreateRoleDTO{Name: "viewer"})
		Expect(err).To(MatchError(internal.ErrConflictRoleName))

		_, err = service.Create(ctx, globex, role.CreateRoleDTO{Name: "viewer"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates nothing when a permission is unknown", func() {
		_, err := service.Create(ctx, acme, role.CreateRoleDTO{Name: "viewer", PermissionIDs: []int64{view.ID, 999}})
		Expect(err).To(MatchError(internal.ErrUnknownPermission))

		var count int64
		db.Model(&roleDatamodel.Role{}).Count(&count)
		Expect(count).To(BeZero())
	})

	It("hides roles of other tenants", func() {
		foreign, err := service.Create(ctx, globex, role.CreateRoleDTO{Name: "viewer"})
		Expect(err).NotTo(HaveOccurred())

		_, err = service.Get(ctx, acme, foreign.ID)
		Expect(err).To(MatchError(internal.ErrResourceNotFound))
		Expect(service.Delete(ctx, acme, foreign.ID)).To(MatchError(internal.ErrResourceNotFound))
		_, err = service.ReplacePermissions(ctx, acme, foreign.ID, []int64{view.ID})
		Expect(err).To(MatchError(internal.ErrResourceNotFound))
	})

	It("replaces the permission set", func() {
		r, err := service.Create(ctx, acme, role.CreateRoleDTO{Name: "viewer", PermissionIDs: []int64{view.ID}})
		Expect(err).NotTo(HaveOccurred())

		r, err = service.ReplacePermissions(ctx, acme, r.ID, []int64{add.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Permissions).To(HaveLen(1))
		Expect(r.Permissions[0].Codename).To(Equal("add_user"))

		r, err = service.ReplacePermissions(ctx, acme, r.ID, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Permissions).To(BeEmpty())
	})

	It("renames without colliding with itself", func() {
		r, err := service.Create(ctx, acme, role.CreateRoleDTO{Name: "viewer"})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(ctx, acme, role.CreateRoleDTO{Name: "editor"})
		Expect(err).NotTo(HaveOccurred())

		_, err = service.Update(ctx, acme, r.ID, role.UpdateRoleDTO{Name: testutil.Ptr("viewer"), Description: testutil.Ptr("read only")})
		Expect(err).NotTo(HaveOccurred())

		_, err = service.Update(ctx, acme, r.ID, role.UpdateRoleDTO{Name: testutil.Ptr("editor")})
		Expect(err).To(MatchError(internal.ErrConflictRoleName))
	})

	It("deletes the role with its links", func() {
		r, err := service.Create(ctx, acme, role.CreateRoleDTO{Name: "viewer", PermissionIDs: []int64{view.ID}})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Create(&userDatamodel.UserRole{UserID: 42, RoleID: r.ID}).Error).To(Succeed())

		Expect(service.Delete(ctx, acme, r.ID)).To(Succeed())

		var count int64
		db.Model(&roleDatamodel.RolePermission{}).Where("role_id = ?", r.ID).Count(&count)
		Expect(count).To(BeZero())
		db.Model(&userDatamodel.UserRole{}).Where("role_id = ?", r.ID).Count(&count)
		Expect(count).To(BeZero())
	})

	It("lists only the tenant's roles", func() {
		for _, name := range []string{"a", "b", "c"} {
			_, err := service.Create(ctx, acme, role.CreateRoleDTO{Name: name + "-role"})
			Expect(err).NotTo(HaveOccurred())
		}
		_, err := service.Create(ctx, globex, role.CreateRoleDTO{Name: "other"})
		Expect(err).NotTo(HaveOccurred())

		page, err := service.List(ctx, acme, pagination.Query{Page: 1, Limit: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Items).To(HaveLen(2))
		Expect(page.Meta.TotalItems).To(Equal(int64(3)))
		Expect(page.Meta.TotalPages).To(Equal(2))
	})

	It("resolves role ownership for isolation", func() {
		r, err := service.Create(ctx, globex, role.CreateRoleDTO{Name: "viewer"})
		Expect(err).NotTo(HaveOccurred())

		own, err := role.OwnerLookup(repo)(ctx, r.ID)
		Expect(err).NotTo(HaveOccurred())
		id, _ := own.Scope.TenantID()
		Expect(id).To(Equal(globex))

		own, err = role.OwnerLookup(repo)(ctx, 999)
		Expect(err).NotTo(HaveOccurred())
		Expect(own.Found).To(BeFalse())
	})
})
