package user

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/rsms-admin/internal"
	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

type DirectoryAPI interface {
	ListUsers(ctx context.Context) ([]userDatamodel.UserRecord, error)
	GetUser(ctx context.Context, id int64) (*userDatamodel.UserRecord, error)
}

// Store holds the last successful directory fetch. A failed fetch leaves
// the snapshot untouched. Mutations never patch it; they Invalidate and the
// next read refetches.
type Store struct {
	api    DirectoryAPI
	logger *slog.Logger

	mu        sync.RWMutex
	users     []User
	loaded    bool
	stale     bool
	fetchedAt time.Time
	// epoch moves on every Invalidate; applied is the sequence of the newest
	// fetch written to the snapshot.
	epoch   uint64
	seq     uint64
	applied uint64
}

func NewStore(api DirectoryAPI, lg *slog.Logger) *Store {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Store{api: api, logger: lg}
}

// ListUsers fetches the whole directory and replaces the snapshot.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	s.seq++
	seq, epoch := s.seq, s.epoch
	s.mu.Unlock()

	records, err := s.api.ListUsers(ctx)
	if err != nil {
		s.logger.Warn("directory fetch failed, keeping previous snapshot", "error", err)
		return nil, err
	}
	users := fromDataModelList(records)

	s.mu.Lock()
	defer s.mu.Unlock()
	// An older fetch finishing after a newer one must not roll the snapshot back.
	if seq > s.applied {
		s.applied = seq
		s.users = users
		s.loaded = true
		s.stale = epoch != s.epoch
		s.fetchedAt = time.Now()
	}
	return cloneUsers(users), nil
}

// GetUser fetches one record from the backend. The snapshot is not patched.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	rec, err := s.api.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(rec), nil
}

// Find looks id up in the current snapshot without a network call.
func (s *Store) Find(id int64) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, true
		}
	}
	return nil, false
}

func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.stale = true
}

// Cached serves the snapshot while it is fresh and refetches once it has
// been invalidated or was never loaded.
func (s *Store) Cached(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	fresh := s.loaded && !s.stale
	users := cloneUsers(s.users)
	s.mu.RUnlock()

	if fresh {
		return users, nil
	}
	return s.ListUsers(ctx)
}

func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Summarize(s.users)
}

func (s *Store) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

func (s *Store) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loaded || s.stale
}

func cloneUsers(users []User) []User {
	out := make([]User, len(users))
	copy(out, users)
	return out
}
