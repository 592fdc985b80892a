package user_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rsms-admin/internal/core/events"
	"github.com/frahmantamala/rsms-admin/internal/mockapi"
	"github.com/frahmantamala/rsms-admin/internal/session"
	"github.com/frahmantamala/rsms-admin/internal/user"
	"github.com/frahmantamala/rsms-admin/internal/userapi"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

// fixture wires the real client, store, gateway and aggregator against the
// in-memory records API.
type fixture struct {
	api      *mockapi.Server
	server   *httptest.Server
	client   *userapi.Client
	store    *user.Store
	gateway  *user.Gateway
	details  *user.Aggregator
	recorder *eventRecorder
}

func newFixture() *fixture {
	api, err := mockapi.New(mockapi.Options{
		JWTSecret:  "suite-secret",
		BcryptCost: bcrypt.MinCost,
		Logger:     logger.Discard(),
	})
	Expect(err).NotTo(HaveOccurred())
	server := httptest.NewServer(api.Handler())

	token, err := api.IssueToken("admin")
	Expect(err).NotTo(HaveOccurred())

	client := userapi.NewClient(userapi.Config{BaseURL: server.URL + "/api", Timeout: 2 * time.Second}, session.Static(token), logger.Discard())

	bus := events.NewEventBus(logger.Discard())
	recorder := &eventRecorder{}
	bus.Subscribe(events.AllEvents, recorder.handle)

	store := user.NewStore(client, logger.Discard())
	f := &fixture{
		api:      api,
		server:   server,
		client:   client,
		store:    store,
		gateway:  user.NewGateway(client, store, events.Sync(bus), logger.Discard()),
		details:  user.NewAggregator(client, logger.Discard()),
		recorder: recorder,
	}
	DeferCleanup(server.Close)
	return f
}

func (f *fixture) create(ctx context.Context, username string, role user.Role) *user.User {
	created, err := f.gateway.CreateUser(ctx, user.Draft{
		Username: username,
		Email:    username + "@rsms.local",
		Password: "secret1",
		FullName: "Staff " + username,
		Role:     role,
	})
	Expect(err).NotTo(HaveOccurred())
	Expect(created).NotTo(BeNil())
	return created
}

type eventRecorder struct {
	mu     sync.Mutex
	events []*events.UserMutationEvent
}

func (r *eventRecorder) handle(_ context.Context, e events.Event) error {
	if evt, ok := e.(*events.UserMutationEvent); ok {
		r.mu.Lock()
		r.events = append(r.events, evt)
		r.mu.Unlock()
	}
	return nil
}

func (r *eventRecorder) last() *events.UserMutationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

// fakeRecords is a scripted records API counting every call.
type fakeRecords struct {
	mu sync.Mutex

	users    []userDatamodel.UserRecord
	listErr  error
	getErr   error
	stats    *userDatamodel.UserStats
	statsErr error
	logs     []userDatamodel.ActivityLogEntry
	logsErr  error
	mutErr   error

	calls map[string]int
	// release, when set, blocks ListUsers until it is closed.
	release chan struct{}
}

func newFakeRecords(users ...userDatamodel.UserRecord) *fakeRecords {
	return &fakeRecords{users: users, calls: make(map[string]int)}
}

func (f *fakeRecords) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeRecords) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRecords) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeRecords) ListUsers(ctx context.Context) ([]userDatamodel.UserRecord, error) {
	f.count("list")
	f.mu.Lock()
	users, err, release := append([]userDatamodel.UserRecord(nil), f.users...), f.listErr, f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	return users, err
}

func (f *fakeRecords) GetUser(ctx context.Context, id int64) (*userDatamodel.UserRecord, error) {
	f.count("get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.users {
		if f.users[i].ID == id {
			rec := f.users[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeRecords) CreateUser(ctx context.Context, req userDatamodel.CreateUserRequest) (*userDatamodel.UserRecord, error) {
	f.count("create")
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	rec := userDatamodel.UserRecord{ID: int64(len(f.users) + 1), Username: req.Username, Role: req.Role, IsActive: true}
	f.users = append(f.users, rec)
	return &rec, nil
}

func (f *fakeRecords) UpdateUser(ctx context.Context, id int64, req userDatamodel.UpdateUserRequest) error {
	f.count("update")
	return f.mutErr
}

func (f *fakeRecords) DeactivateUser(ctx context.Context, id int64) error {
	f.count("deactivate")
	return f.mutErr
}

func (f *fakeRecords) SetPassword(ctx context.Context, id int64, password string) error {
	f.count("set_password")
	return f.mutErr
}

func (f *fakeRecords) ResetPasswordToDefault(ctx context.Context, id int64) error {
	f.count("reset_password")
	return f.mutErr
}

func (f *fakeRecords) SetStatus(ctx context.Context, id int64, isActive bool) error {
	f.count("set_status")
	return f.mutErr
}

func (f *fakeRecords) ActivityLogs(ctx context.Context, id int64) ([]userDatamodel.ActivityLogEntry, error) {
	f.count("logs")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs, f.logsErr
}

func (f *fakeRecords) Stats(ctx context.Context, id int64) (*userDatamodel.UserStats, error) {
	f.count("stats")
	return f.stats, f.statsErr
}

func record(id int64, username, role string, active bool) userDatamodel.UserRecord {
	return userDatamodel.UserRecord{ID: id, Username: username, Role: role, IsActive: active}
}
