package user_test

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rsms-admin/internal"
	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rsms-admin/internal/mockapi"
	"github.com/frahmantamala/rsms-admin/internal/user"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

var _ = Describe("Aggregator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("with a scripted API", func() {
		var (
			api *fakeRecords
			agg *user.Aggregator
		)

		BeforeEach(func() {
			api = newFakeRecords(record(3, "kasir1", "kasir", true))
			agg = user.NewAggregator(api, logger.Discard())
		})

		It("composes the user and its stats", func() {
			api.stats = &userDatamodel.UserStats{Transactions: 12, LastMonthActivity: 4}
			detail, err := agg.LoadUserDetail(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.User.Username).To(Equal("kasir1"))
			Expect(detail.Stats).To(Equal(user.Stats{Transactions: 12, LastMonthActivity: 4}))
			Expect(detail.StatsDegraded).To(BeFalse())
		})

		It("fails when the user fetch fails", func() {
			api.getErr = internal.ErrUserNotFound
			_, err := agg.LoadUserDetail(ctx, 3)
			Expect(internal.IsNotFound(err)).To(BeTrue())
		})

		It("keeps the last activity log when a reload fails", func() {
			api.logs = []userDatamodel.ActivityLogEntry{
				{ActionType: "login", Description: "Login berhasil", CreatedAt: time.Now()},
			}
			entries, err := agg.LoadActivityLog(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ActionType).To(Equal(user.ActionLogin))

			api.logsErr = internal.NewTransportError(user.MsgActivityFailed, internal.ErrCodeUpstreamFailure, nil)
			entries, err = agg.LoadActivityLog(ctx, 3)
			Expect(internal.IsTransport(err)).To(BeTrue())
			Expect(entries).To(HaveLen(1))
		})

		It("returns nothing for a user never loaded", func() {
			api.logsErr = internal.NewTransportError(user.MsgActivityFailed, internal.ErrCodeUpstreamFailure, nil)
			entries, err := agg.LoadActivityLog(ctx, 3)
			Expect(err).To(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("keeps unknown action types", func() {
			api.logs = []userDatamodel.ActivityLogEntry{{ActionType: "export", CreatedAt: time.Now()}}
			entries, err := agg.LoadActivityLog(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries[0].ActionType).To(Equal(user.ActionType("export")))
		})
	})

	Describe("against the records API", func() {
		var f *fixture

		BeforeEach(func() {
			f = newFixture()
		})

		It("zeroes the stats when the stats call fails", func() {
			created := f.create(ctx, "drsiti", user.RoleDokter)
			f.api.SetStats(created.ID, userDatamodel.UserStats{Appointments: 5, Prescriptions: 2})
			f.api.Fail(mockapi.OpUserStats, http.StatusInternalServerError, "stats error")

			detail, err := f.details.LoadUserDetail(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.User.Username).To(Equal("drsiti"))
			Expect(detail.Stats).To(Equal(user.Stats{Appointments: 0, Prescriptions: 0, Transactions: 0, LastMonthActivity: 0}))
			Expect(detail.StatsDegraded).To(BeTrue())

			f.api.Recover(mockapi.OpUserStats)
			detail, err = f.details.LoadUserDetail(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Stats.Appointments).To(Equal(int64(5)))
		})

		It("propagates not found for a missing user", func() {
			_, err := f.details.LoadUserDetail(ctx, 404)
			Expect(internal.IsNotFound(err)).To(BeTrue())
		})

		It("loads the activity log newest first", func() {
			created := f.create(ctx, "kasir1", user.RoleKasir)
			Expect(f.gateway.SetActiveStatus(ctx, created.ID, false)).To(Succeed())

			entries, err := f.details.LoadActivityLog(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].ActionType).To(Equal(user.ActionStatusChange))
			Expect(entries[1].ActionType).To(Equal(user.ActionCreate))
		})
	})
})
