package security_test

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/tenant-admin/internal/core/security"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BcryptHasher", func() {
	var hasher *security.BcryptHasher

	BeforeEach(func() {
		var err error
		hasher, err = security.NewBcryptHasher(bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
	})

	It("verifies the password it hashed", func() {
		hash, err := hasher.Hash("secret123")
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).NotTo(Equal("secret123"))

		ok, err := hasher.Verify(hash, "secret123")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("reports a mismatch without an error", func() {
		hash, _ := hasher.Hash("secret123")

		ok, err := hasher.Verify(hash, "wrong")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("returns an error for a malformed hash", func() {
		_, err := hasher.Verify("not-a-hash", "secret123")
		Expect(err).To(HaveOccurred())
	})

	It("rejects an out of range cost", func() {
		_, err := security.NewBcryptHasher(64)
		Expect(err).To(HaveOccurred())
	})
})
