package mockapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
)

var (
	errNotFound  = errors.New("user not found")
	errDuplicate = errors.New("duplicate username or email")
)

type account struct {
	record userDatamodel.UserRecord
	hash   []byte
}

// store is the in-memory account table. Deleted accounts stay as inactive
// records.
type store struct {
	mu         sync.RWMutex
	accounts   map[int64]*account
	logs       map[int64][]userDatamodel.ActivityLogEntry
	stats      map[int64]userDatamodel.UserStats
	nextID     int64
	nextLogID  int64
	bcryptCost int
	now        func() time.Time
}

func newStore(cost int, now func() time.Time) *store {
	return &store{
		accounts:   make(map[int64]*account),
		logs:       make(map[int64][]userDatamodel.ActivityLogEntry),
		stats:      make(map[int64]userDatamodel.UserStats),
		bcryptCost: cost,
		now:        now,
	}
}

func (s *store) hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
}

func (s *store) conflicts(username, email string, except int64) bool {
	for id, a := range s.accounts {
		if id == except {
			continue
		}
		if strings.EqualFold(a.record.Username, username) || strings.EqualFold(a.record.Email, email) {
			return true
		}
	}
	return false
}

func (s *store) create(req userDatamodel.CreateUserRequest) (userDatamodel.UserRecord, error) {
	hash, err := s.hash(req.Password)
	if err != nil {
		return userDatamodel.UserRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts(req.Username, req.Email, 0) {
		return userDatamodel.UserRecord{}, errDuplicate
	}

	s.nextID++
	now := s.now()
	rec := userDatamodel.UserRecord{
		ID:             s.nextID,
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		Role:           req.Role,
		Specialization: optional(req.Specialization),
		PhoneNumber:    optional(req.PhoneNumber),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.accounts[rec.ID] = &account{record: rec, hash: hash}
	return rec, nil
}

func (s *store) list() []userDatamodel.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]userDatamodel.UserRecord, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) get(id int64) (userDatamodel.UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return userDatamodel.UserRecord{}, false
	}
	return a.record, true
}

func (s *store) byUsername(username string) (userDatamodel.UserRecord, []byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.record.Username == username {
			return a.record, a.hash, true
		}
	}
	return userDatamodel.UserRecord{}, nil, false
}

func (s *store) update(id int64, req userDatamodel.UpdateUserRequest) error {
	var hash []byte
	if req.Password != "" {
		var err error
		if hash, err = s.hash(req.Password); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return errNotFound
	}
	if s.conflicts(req.Username, req.Email, id) {
		return errDuplicate
	}
	a.record.Username = req.Username
	a.record.Email = req.Email
	a.record.FullName = req.FullName
	if req.Role != "" {
		a.record.Role = req.Role
	}
	a.record.Specialization = optional(req.Specialization)
	a.record.PhoneNumber = optional(req.PhoneNumber)
	a.record.UpdatedAt = s.now()
	if hash != nil {
		a.hash = hash
	}
	return nil
}

func (s *store) setPassword(id int64, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return errNotFound
	}
	a.hash = hash
	a.record.UpdatedAt = s.now()
	return nil
}

func (s *store) setActive(id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return errNotFound
	}
	a.record.IsActive = active
	a.record.UpdatedAt = s.now()
	return nil
}

func (s *store) touchLogin(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		now := s.now()
		a.record.LastLogin = &now
	}
}

func (s *store) appendLog(id int64, action, description, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogID++
	s.logs[id] = append(s.logs[id], userDatamodel.ActivityLogEntry{
		ID:          s.nextLogID,
		ActionType:  action,
		Description: description,
		IPAddress:   optional(ip),
		CreatedAt:   s.now(),
	})
}

// activity returns the newest entries first.
func (s *store) activity(id int64) []userDatamodel.ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.logs[id]
	out := make([]userDatamodel.ActivityLogEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// computeStats combines the configured counters with the number of logged
// actions in the last 30 days.
func (s *store) computeStats(id int64) userDatamodel.UserStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := s.stats[id]
	cutoff := s.now().AddDate(0, 0, -30)
	stats.LastMonthActivity = 0
	for _, e := range s.logs[id] {
		if e.CreatedAt.After(cutoff) {
			stats.LastMonthActivity++
		}
	}
	return stats
}

func (s *store) setStats(id int64, stats userDatamodel.UserStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[id] = stats
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
