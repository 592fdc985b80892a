package user_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rsms-admin/internal/user"
)

var _ = Describe("Presentation", func() {
	DescribeTable("role badges",
		func(role user.Role, label, color string) {
			Expect(user.RoleBadge(role)).To(Equal(user.Badge{Label: label, Color: color}))
		},
		Entry("admin", user.RoleAdmin, "Admin", "red"),
		Entry("dokter", user.RoleDokter, "Dokter", "blue"),
		Entry("apoteker", user.RoleApoteker, "Apoteker", "green"),
		Entry("kasir", user.RoleKasir, "Kasir", "yellow"),
		Entry("front office", user.RoleFrontOffice, "Front Office", "purple"),
		Entry("unknown", user.Role("perawat"), "perawat", "gray"),
	)

	It("has a colored badge for every known role", func() {
		for _, role := range user.Roles {
			Expect(role.Valid()).To(BeTrue())
			Expect(user.RoleBadge(role).Color).NotTo(Equal("gray"))
		}
		Expect(user.Role("").Valid()).To(BeFalse())
	})

	It("labels status", func() {
		Expect(user.StatusBadge(true).Label).To(Equal("Active"))
		Expect(user.StatusBadge(false).Label).To(Equal("Inactive"))
	})

	It("shows the specialization only for doctors that have one", func() {
		Expect(user.NewRow(user.User{Role: user.RoleDokter, Specialization: "Anak"}).ShowSpecialization).To(BeTrue())
		Expect(user.NewRow(user.User{Role: user.RoleDokter}).ShowSpecialization).To(BeFalse())
		Expect(user.NewRow(user.User{Role: user.RoleKasir, Specialization: "Anak"}).ShowSpecialization).To(BeFalse())
	})

	It("summarizes the directory", func() {
		s := user.Summarize([]user.User{
			{Role: user.RoleDokter, IsActive: true},
			{Role: user.RoleDokter, IsActive: false},
			{Role: user.RoleApoteker, IsActive: true},
			{Role: user.RoleAdmin, IsActive: true},
		})
		Expect(s).To(Equal(user.Summary{Total: 4, Dokter: 2, Apoteker: 1, Active: 3}))
	})

	It("starts an edit draft with an empty password", func() {
		d := user.EditDraft(&user.User{Username: "drsiti", Role: user.RoleDokter, Specialization: "Cardiology"})
		Expect(d.Password).To(BeEmpty())
		Expect(d.Specialization).To(Equal("Cardiology"))
		Expect(user.NewDraft().Role).To(Equal(user.RoleFrontOffice))
	})

	It("keeps the specialization when the role moves away from dokter", func() {
		d := user.Draft{Role: user.RoleKasir, Specialization: "Cardiology"}
		Expect(d.UpdateRequest().Specialization).To(Equal("Cardiology"))
	})
})
