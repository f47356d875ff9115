package seed_test

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/tenant-admin/internal"
	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/core/security"
	"github.com/frahmantamala/tenant-admin/internal/core/testutil"
	"github.com/frahmantamala/tenant-admin/internal/permission"
	"github.com/frahmantamala/tenant-admin/internal/seed"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Seeder", func() {
	var (
		db     *gorm.DB
		hasher *security.BcryptHasher
		seeder *seed.Seeder
		ctx    = context.Background()
		cfg    internal.SeedConfig
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		hasher, err = security.NewBcryptHasher(4)
		Expect(err).NotTo(HaveOccurred())
		seeder = seed.NewSeeder(db, hasher, testutil.DiscardLogger())
		cfg = internal.SeedConfig{AdminEmail: "Admin@Example.com", AdminPassword: "secret123"}
	})

	It("writes the catalog and the administrator", func() {
		res, err := seeder.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Permissions).To(Equal(len(permission.DefaultCatalog)))
		Expect(res.SuperAdminCreated).To(BeTrue())

		var admin userDatamodel.User
		Expect(db.Where("email = ?", "admin@example.com").First(&admin).Error).To(Succeed())
		Expect(admin.IsSuperAdmin).To(BeTrue())
		Expect(admin.TenantID).To(BeNil())
		Expect(*admin.Name).To(Equal("Administrador"))

		ok, err := hasher.Verify(admin.PasswordHash, "secret123")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("is idempotent", func() {
		_, err := seeder.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		res, err := seeder.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.SuperAdminCreated).To(BeFalse())

		var perms, users int64
		db.Model(&permissionDatamodel.Permission{}).Count(&perms)
		db.Model(&userDatamodel.User{}).Count(&users)
		Expect(perms).To(Equal(int64(len(permission.DefaultCatalog))))
		Expect(users).To(Equal(int64(1)))
	})

	It("updates catalog entries in place by codename", func() {
		_, err := seeder.Permissions(ctx, []permission.Seed{{Codename: "view_user", Name: "Old", Module: "users"}})
		Expect(err).NotTo(HaveOccurred())
		_, err = seeder.Permissions(ctx, []permission.Seed{{Codename: "view_user", Name: "View users", Module: "users", Description: "List users"}})
		Expect(err).NotTo(HaveOccurred())

		var rows []permissionDatamodel.Permission
		Expect(db.Find(&rows).Error).To(Succeed())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Name).To(Equal("View users"))
		Expect(*rows[0].Description).To(Equal("List users"))
	})

	It("skips the administrator when no credentials are configured", func() {
		res, err := seeder.Run(ctx, internal.SeedConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.SuperAdminSkipped).To(BeTrue())

		var users int64
		db.Model(&userDatamodel.User{}).Count(&users)
		Expect(users).To(BeZero())
	})
})
