package user_test

import (
	"encoding/json"

	"github.com/frahmantamala/tenant-admin/internal/user"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OptionalTenantID", func() {
	decode := func(body string) user.UpdateUserDTO {
		var dto user.UpdateUserDTO
		Expect(json.Unmarshal([]byte(body), &dto)).To(Succeed())
		return dto
	}

	It("is unset when the field is absent", func() {
		dto := decode(`{"name":"Ana"}`)
		Expect(dto.TenantID.Set).To(BeFalse())
	})

	It("reads null and zero as no tenant", func() {
		for _, body := range []string{`{"tenantId":null}`, `{"tenantId":0}`} {
			dto := decode(body)
			Expect(dto.TenantID.Set).To(BeTrue())
			Expect(dto.TenantID.Value).To(BeNil())
		}
	})

	It("reads a positive id", func() {
		dto := decode(`{"tenantId":7}`)
		Expect(*dto.TenantID.Value).To(Equal(int64(7)))
	})

	It("rejects negative ids", func() {
		var dto user.UpdateUserDTO
		Expect(json.Unmarshal([]byte(`{"tenantId":-1}`), &dto)).NotTo(Succeed())
	})
})
