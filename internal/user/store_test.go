package user_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rsms-admin/internal"
	"github.com/frahmantamala/rsms-admin/internal/user"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		api   *fakeRecords
		store *user.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = newFakeRecords(
			record(1, "admin", "admin", true),
			record(2, "drsiti", "dokter", true),
		)
		store = user.NewStore(api, logger.Discard())
	})

	It("replaces the snapshot wholesale on every fetch", func() {
		users, err := store.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(2))

		api.users = api.users[:1]
		_, err = store.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Summary().Total).To(Equal(1))
		_, found := store.Find(2)
		Expect(found).To(BeFalse())
	})

	It("keeps the previous snapshot when a fetch fails", func() {
		_, err := store.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())

		api.listErr = internal.NewTransportError("Gagal mengambil data user", internal.ErrCodeUpstreamFailure, nil)
		_, err = store.ListUsers(ctx)
		Expect(internal.IsTransport(err)).To(BeTrue())
		Expect(store.Summary().Total).To(Equal(2))
	})

	It("surfaces an unauthorized fetch without retrying", func() {
		api.listErr = internal.ErrTokenExpired
		_, err := store.ListUsers(ctx)
		Expect(internal.IsUnauthorized(err)).To(BeTrue())
		Expect(api.Calls("list")).To(Equal(1))
	})

	It("serves the cache until invalidated", func() {
		_, err := store.Cached(ctx)
		Expect(err).NotTo(HaveOccurred())
		_, err = store.Cached(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(api.Calls("list")).To(Equal(1))

		store.Invalidate()
		Expect(store.Stale()).To(BeTrue())
		_, err = store.Cached(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(api.Calls("list")).To(Equal(2))
		Expect(store.Stale()).To(BeFalse())
	})

	It("stays stale when invalidated during a fetch", func() {
		api.release = make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = store.ListUsers(ctx)
		}()
		Eventually(func() int { return api.Calls("list") }).Should(Equal(1))
		store.Invalidate()
		close(api.release)
		Eventually(done).Should(BeClosed())

		Expect(store.Stale()).To(BeTrue())
	})

	It("finds users in the snapshot and summarizes it", func() {
		_, err := store.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())

		u, found := store.Find(2)
		Expect(found).To(BeTrue())
		Expect(u.Role).To(Equal(user.RoleDokter))
		Expect(store.Summary()).To(Equal(user.Summary{Total: 2, Dokter: 1, Apoteker: 0, Active: 2}))
		Expect(store.FetchedAt()).To(BeTemporally("~", time.Now(), time.Second))
	})

	It("reports a missing record as not found", func() {
		_, err := store.GetUser(ctx, 42)
		Expect(internal.IsNotFound(err)).To(BeTrue())
	})

	It("rejects a non-positive id without a call", func() {
		_, err := store.GetUser(ctx, 0)
		Expect(internal.IsValidation(err)).To(BeTrue())
		Expect(api.Calls("get")).To(BeZero())
	})
})
