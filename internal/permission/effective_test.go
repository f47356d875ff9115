package permission_test

import (
	"github.com/frahmantamala/tenant-admin/internal/permission"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func perm(id int64, codename, module string) *permission.Permission {
	return &permission.Permission{ID: id, Codename: codename, Name: codename, Module: module}
}

var _ = Describe("Resolve", func() {
	var (
		addUser  = perm(1, "add_user", "users")
		viewUser = perm(2, "view_user", "users")
		viewRole = perm(3, "view_role", "roles")
	)

	It("returns the unrestricted sentinel for super admins whatever rows exist", func() {
		set := permission.Resolve(true, []*permission.Permission{addUser}, []*permission.Permission{viewRole})

		Expect(set.Unrestricted).To(BeTrue())
		Expect(set.Permissions).To(BeEmpty())
	})

	It("unions role and direct grants counting duplicates once", func() {
		// Given view_user arrives both through a role and directly
		fromRoles := []*permission.Permission{addUser, viewUser, viewUser}
		direct := []*permission.Permission{viewUser, viewRole}

		// When
		set := permission.Resolve(false, fromRoles, direct)

		// Then
		Expect(set.Unrestricted).To(BeFalse())
		Expect(set.Permissions).To(HaveLen(3))
		Expect(set.Permissions).To(HaveExactElements(
			HaveField("Codename", "view_role"),
			HaveField("Codename", "add_user"),
			HaveField("Codename", "view_user"),
		))
		Expect(set.FromRoles).To(Equal(3))
		Expect(set.Direct).To(Equal(2))
		Expect(set.Permissions).NotTo(ContainElement(HaveField("Codename", "delete_user")))
	})

	It("is empty for a user without grants", func() {
		set := permission.Resolve(false, nil, nil)
		Expect(set.Permissions).NotTo(BeNil())
		Expect(set.Permissions).To(BeEmpty())
	})
})

var _ = Describe("Group", func() {
	It("buckets permissions by module in order", func() {
		groups := permission.Group([]*permission.Permission{
			perm(3, "view_role", "roles"),
			perm(1, "add_user", "users"),
			perm(2, "view_user", "users"),
		})

		Expect(groups).To(HaveLen(2))
		Expect(groups[0].Module).To(Equal("roles"))
		Expect(groups[0].Count).To(Equal(1))
		Expect(groups[1].Module).To(Equal("users"))
		Expect(groups[1].Count).To(Equal(2))
	})
})
