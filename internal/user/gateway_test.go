package user_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rsms-admin/internal"
	"github.com/frahmantamala/rsms-admin/internal/core/events"
	"github.com/frahmantamala/rsms-admin/internal/mockapi"
	"github.com/frahmantamala/rsms-admin/internal/user"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

var _ = Describe("Gateway", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = internal.ContextWithActor(context.Background(), "admin")
	})

	Describe("local checks", func() {
		var (
			api     *fakeRecords
			gateway *user.Gateway
			bus     *events.EventBus
			rec     *eventRecorder
		)

		BeforeEach(func() {
			api = newFakeRecords(record(1, "admin", "admin", true))
			bus = events.NewEventBus(logger.Discard())
			rec = &eventRecorder{}
			bus.Subscribe(events.AllEvents, rec.handle)
			gateway = user.NewGateway(api, user.NewStore(api, logger.Discard()), events.Sync(bus), logger.Discard())
		})

		complete := user.Draft{Username: "drsiti", Email: "siti@x.com", Password: "secret1", FullName: "Dr. Siti"}

		DescribeTable("rejects an incomplete create before any call",
			func(mutate func(d *user.Draft)) {
				d := complete
				mutate(&d)
				_, err := gateway.CreateUser(ctx, d)
				Expect(internal.IsValidation(err)).To(BeTrue())
				Expect(err.Error()).To(Equal(user.MsgRequiredFields))
				Expect(api.TotalCalls()).To(BeZero())
			},
			Entry("no username", func(d *user.Draft) { d.Username = "" }),
			Entry("no email", func(d *user.Draft) { d.Email = "" }),
			Entry("no password", func(d *user.Draft) { d.Password = "" }),
			Entry("no full name", func(d *user.Draft) { d.FullName = "   " }),
		)

		It("publishes the validation failure", func() {
			_, err := gateway.CreateUser(ctx, user.Draft{})
			Expect(err).To(HaveOccurred())
			evt := rec.last()
			Expect(evt).NotTo(BeNil())
			Expect(evt.EventType()).To(Equal(events.EventTypeUserMutationFail))
			Expect(evt.Message).To(Equal(user.MsgRequiredFields))
			Expect(evt.Actor).To(Equal("admin"))
		})

		It("names a repeated field message once", func() {
			_, err := gateway.CreateUser(ctx, user.Draft{Username: "drsiti"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.GetDetailedMessage()).To(Equal(user.MsgRequiredFields))
			Expect(rec.last().Message).To(Equal(user.MsgRequiredFields))
		})

		DescribeTable("rejects a short or missing password before any call",
			func(password, message string) {
				err := gateway.SetPassword(ctx, 1, password)
				Expect(internal.IsValidation(err)).To(BeTrue())
				appErr, _ := internal.IsAppError(err)
				Expect(appErr.GetDetailedMessage()).To(Equal(message))
				Expect(api.TotalCalls()).To(BeZero())
			},
			Entry("empty", "", user.MsgPasswordRequired),
			Entry("five characters", "abcde", user.MsgPasswordTooShort),
			Entry("five multibyte characters", "ñññññ", user.MsgPasswordTooShort),
		)

		It("defaults an empty role to front office", func() {
			created, err := gateway.CreateUser(ctx, complete)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Role).To(Equal(user.RoleFrontOffice))
		})

		It("refreshes the directory after a mutation", func() {
			Expect(gateway.SetActiveStatus(ctx, 1, true)).To(Succeed())
			Expect(api.Calls("set_status")).To(Equal(1))
			Expect(api.Calls("list")).To(Equal(1))
		})

		It("still issues the call when the status is unchanged", func() {
			Expect(gateway.SetActiveStatus(ctx, 1, true)).To(Succeed())
			Expect(gateway.SetActiveStatus(ctx, 1, true)).To(Succeed())
			Expect(api.Calls("set_status")).To(Equal(2))
		})

		It("treats a failed refresh as a successful mutation", func() {
			api.listErr = internal.NewTransportError("down", internal.ErrCodeUpstreamUnavailable, nil)
			Expect(gateway.DeactivateUser(ctx, 1)).To(Succeed())
			Expect(rec.last().EventType()).To(Equal(events.EventTypeUserDeactivated))
		})

		It("leaves the directory alone when a mutation fails", func() {
			api.mutErr = internal.NewForbiddenError("Akses ditolak", internal.ErrCodeAccessDenied)
			err := gateway.ResetPasswordToDefault(ctx, 1)
			Expect(internal.IsForbidden(err)).To(BeTrue())
			Expect(api.Calls("list")).To(BeZero())
			Expect(rec.last().Success).To(BeFalse())
			Expect(rec.last().Message).To(Equal("Akses ditolak"))
		})

		It("runs without a directory or publisher", func() {
			bare := user.NewGateway(api, nil, nil, logger.Discard())
			Expect(bare.UpdateUser(ctx, 1, user.Draft{Username: "admin"})).To(Succeed())
		})
	})

	Describe("against the records API", func() {
		var f *fixture

		BeforeEach(func() {
			f = newFixture()
		})

		It("lists a created doctor with the specialization", func() {
			_, err := f.gateway.CreateUser(ctx, user.Draft{
				Username:       "drsiti",
				Email:          "siti@x.com",
				Password:       "secret1",
				FullName:       "Dr. Siti",
				Role:           user.RoleDokter,
				Specialization: "Cardiology",
			})
			Expect(err).NotTo(HaveOccurred())

			users, err := f.store.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(ContainElement(SatisfyAll(
				HaveField("Username", "drsiti"),
				HaveField("Role", user.RoleDokter),
				HaveField("Specialization", "Cardiology"),
			)))
			Expect(f.recorder.last().Message).To(Equal(user.MsgCreated))
		})

		It("surfaces a duplicate username verbatim", func() {
			f.create(ctx, "kasir1", user.RoleKasir)
			_, err := f.gateway.CreateUser(ctx, user.Draft{
				Username: "kasir1", Email: "another@rsms.local", Password: "secret1", FullName: "Kasir Dua",
			})
			Expect(internal.IsConflict(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Username atau email sudah digunakan"))
		})

		It("keeps the password when an edit leaves it empty", func() {
			created := f.create(ctx, "apt1", user.RoleApoteker)

			fetched, err := f.store.GetUser(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			draft := user.EditDraft(fetched)
			Expect(draft.Password).To(BeEmpty())
			draft.FullName = "Apoteker Utama"

			Expect(f.gateway.UpdateUser(ctx, created.ID, draft)).To(Succeed())
			Expect(f.api.CheckPassword("apt1", "secret1")).To(BeTrue())

			refetched, err := f.store.GetUser(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(refetched.FullName).To(Equal("Apoteker Utama"))
		})

		It("sends an empty role on update untouched", func() {
			Expect(user.Draft{Username: "a"}.UpdateRequest().Role).To(BeEmpty())
			Expect(user.Draft{Username: "a"}.CreateRequest().Role).To(Equal(string(user.RoleFrontOffice)))

			created := f.create(ctx, "drbudi", user.RoleDokter)
			Expect(f.gateway.UpdateUser(ctx, created.ID, user.Draft{
				Username: "drbudi", Email: created.Email, FullName: "Dr. Budi",
			})).To(Succeed())

			refetched, err := f.store.GetUser(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(refetched.Role).To(Equal(user.RoleDokter))
			Expect(refetched.FullName).To(Equal("Dr. Budi"))
		})

		It("changes the password when an edit sets one", func() {
			created := f.create(ctx, "apt2", user.RoleApoteker)
			draft := user.EditDraft(created)
			draft.Password = "newsecret"
			Expect(f.gateway.UpdateUser(ctx, created.ID, draft)).To(Succeed())
			Expect(f.api.CheckPassword("apt2", "newsecret")).To(BeTrue())
		})

		It("keeps a deactivated record", func() {
			created := f.create(ctx, "fo1", user.RoleFrontOffice)
			Expect(f.gateway.DeactivateUser(ctx, created.ID)).To(Succeed())

			fetched, err := f.store.GetUser(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.IsActive).To(BeFalse())

			cached, found := f.store.Find(created.ID)
			Expect(found).To(BeTrue())
			Expect(cached.IsActive).To(BeFalse())
		})

		It("toggles back to the original status", func() {
			created := f.create(ctx, "kasir2", user.RoleKasir)

			next, err := f.gateway.ToggleStatus(ctx, *created)
			Expect(err).NotTo(HaveOccurred())
			Expect(next).To(BeFalse())
			fetched, err := f.store.GetUser(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.IsActive).To(BeFalse())
			Expect(f.recorder.last().Message).To(Equal(user.StatusChangedMessage(false)))

			next, err = f.gateway.ToggleStatus(ctx, *fetched)
			Expect(err).NotTo(HaveOccurred())
			Expect(next).To(BeTrue())
			fetched, err = f.store.GetUser(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.IsActive).To(BeTrue())
		})

		It("resets to the shared default password", func() {
			created := f.create(ctx, "dr2", user.RoleDokter)
			Expect(f.gateway.ResetPasswordToDefault(ctx, created.ID)).To(Succeed())
			Expect(f.api.CheckPassword("dr2", "password123")).To(BeTrue())
		})

		It("sets a new password and never calls the API for a short one", func() {
			created := f.create(ctx, "dr3", user.RoleDokter)
			before := f.api.Hits(mockapi.OpSetPassword)

			Expect(f.gateway.SetPassword(ctx, created.ID, "12345")).NotTo(Succeed())
			Expect(f.api.Hits(mockapi.OpSetPassword)).To(Equal(before))

			Expect(f.gateway.SetPassword(ctx, created.ID, "123456")).To(Succeed())
			Expect(f.api.CheckPassword("dr3", "123456")).To(BeTrue())
		})

		It("reports a missing user as not found", func() {
			err := f.gateway.UpdateUser(ctx, 999, user.Draft{Username: "ghost"})
			Expect(internal.IsNotFound(err)).To(BeTrue())
		})
	})
})
