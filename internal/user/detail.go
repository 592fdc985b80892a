package user

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/rsms-admin/internal"
	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

type DetailAPI interface {
	GetUser(ctx context.Context, id int64) (*userDatamodel.UserRecord, error)
	Stats(ctx context.Context, id int64) (*userDatamodel.UserStats, error)
	ActivityLogs(ctx context.Context, id int64) ([]userDatamodel.ActivityLogEntry, error)
}

// Detail is the user page. Stats are zero and StatsDegraded is set when the
// stats call failed.
type Detail struct {
	User          User  `json:"user"`
	Stats         Stats `json:"stats"`
	StatsDegraded bool  `json:"stats_degraded"`
}

// Aggregator builds the user page and remembers the last activity log
// loaded per user.
type Aggregator struct {
	api    DetailAPI
	logger *slog.Logger

	mu   sync.Mutex
	logs map[int64][]ActivityLogEntry
}

func NewAggregator(api DetailAPI, lg *slog.Logger) *Aggregator {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Aggregator{api: api, logger: lg, logs: make(map[int64][]ActivityLogEntry)}
}

// LoadUserDetail fetches the record and its stats concurrently. A record
// failure fails the whole load; a stats failure is tolerated.
func (a *Aggregator) LoadUserDetail(ctx context.Context, id int64) (*Detail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	var (
		rec      *userDatamodel.UserRecord
		stats    *userDatamodel.UserStats
		statsErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rec, err = a.api.GetUser(gctx, id)
		return err
	})
	g.Go(func() error {
		stats, statsErr = a.api.Stats(gctx, id)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, internal.ErrUserNotFound
	}

	detail := &Detail{User: *FromDataModel(rec)}
	if statsErr != nil {
		a.logger.Warn("user stats unavailable, showing zeros", "user_id", id, "error", statsErr)
		detail.StatsDegraded = true
	} else {
		detail.Stats = statsFromDataModel(stats)
	}
	return detail, nil
}

// LoadActivityLog fetches the log for id. On failure it returns the list
// loaded last time for the same user, if any, together with the error.
func (a *Aggregator) LoadActivityLog(ctx context.Context, id int64) ([]ActivityLogEntry, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	entries, err := a.api.ActivityLogs(ctx, id)
	if err != nil {
		a.logger.Warn("activity log fetch failed", "user_id", id, "error", err)
		a.mu.Lock()
		previous := append([]ActivityLogEntry(nil), a.logs[id]...)
		a.mu.Unlock()
		return previous, err
	}

	logs := activityFromDataModel(entries)
	a.mu.Lock()
	a.logs[id] = logs
	a.mu.Unlock()
	return append([]ActivityLogEntry(nil), logs...), nil
}
