// Package mockapi is an in-memory records API speaking the same REST
// contract as the hospital backend. It backs the integration tests and the
// mock-api command for local development.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/rsms-admin/internal"
	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

const (
	OpLogin          = "login"
	OpListUsers      = "list_users"
	OpGetUser        = "get_user"
	OpCreateUser     = "create_user"
	OpUpdateUser     = "update_user"
	OpDeactivateUser = "deactivate_user"
	OpSetPassword    = "set_password"
	OpResetPassword  = "reset_password"
	OpSetStatus      = "set_status"
	OpActivityLogs   = "activity_logs"
	OpUserStats      = "user_stats"
)

type Options struct {
	JWTSecret       string
	TokenTTL        time.Duration
	AdminUsername   string
	AdminPassword   string
	DefaultPassword string
	// BcryptCost defaults to bcrypt.DefaultCost; tests lower it.
	BcryptCost int
	Logger     *slog.Logger
}

type failure struct {
	status  int
	message string
}

type Server struct {
	store           *store
	tokens          *TokenGenerator
	defaultPassword string
	logger          *slog.Logger

	mu       sync.RWMutex
	failures map[string]failure
	hits     map[string]int
}

type claimsKey struct{}

// New builds a server seeded with one admin account.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logger.LoggerWrapper()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.DefaultPassword == "" {
		opts.DefaultPassword = "password123"
	}
	if opts.AdminUsername == "" {
		opts.AdminUsername = "admin"
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "admin123"
	}
	if opts.JWTSecret == "" {
		return nil, errors.New("mock api jwt secret is required")
	}

	s := &Server{
		store:           newStore(opts.BcryptCost, time.Now),
		tokens:          NewTokenGenerator(opts.JWTSecret, opts.TokenTTL),
		defaultPassword: opts.DefaultPassword,
		logger:          opts.Logger,
		failures:        make(map[string]failure),
		hits:            make(map[string]int),
	}

	admin, err := s.store.create(userDatamodel.CreateUserRequest{
		Username: opts.AdminUsername,
		Email:    opts.AdminUsername + "@rsms.local",
		Password: opts.AdminPassword,
		FullName: "Administrator",
		Role:     "admin",
	})
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	s.store.appendLog(admin.ID, "create", "Akun administrator dibuat", "")
	return s, nil
}

// Handler serves the API under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", s.route(OpLogin, s.login))

		api.Group(func(pr chi.Router) {
			pr.Use(s.requireAdmin)
			pr.Post("/auth/register", s.route(OpCreateUser, s.register))
			pr.Get("/users", s.route(OpListUsers, s.listUsers))
			pr.Get("/users/{id}", s.route(OpGetUser, s.getUser))
			pr.Put("/users/{id}", s.route(OpUpdateUser, s.updateUser))
			pr.Delete("/users/{id}", s.route(OpDeactivateUser, s.deactivateUser))
			pr.Put("/users/{id}/password", s.route(OpSetPassword, s.setPassword))
			pr.Post("/users/{id}/reset-password", s.route(OpResetPassword, s.resetPassword))
			pr.Put("/users/{id}/status", s.route(OpSetStatus, s.setStatus))
			pr.Get("/users/{id}/activity-logs", s.route(OpActivityLogs, s.activityLogs))
			pr.Get("/users/{id}/stats", s.route(OpUserStats, s.userStats))
		})
	})
	return r
}

// Fail makes every call to op answer status with message until Recover.
func (s *Server) Fail(op string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = failure{status: status, message: message}
}

func (s *Server) Recover(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, op)
}

// Hits counts calls that reached op, injected failures included.
func (s *Server) Hits(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits[op]
}

// IssueToken signs a token for an existing account.
func (s *Server) IssueToken(username string) (string, error) {
	rec, _, ok := s.store.byUsername(username)
	if !ok {
		return "", errNotFound
	}
	return s.tokens.Generate(rec.ID, rec.Username, rec.Role)
}

// SetStats fixes the counters reported for id. Activity in the last month
// is always computed.
func (s *Server) SetStats(id int64, stats userDatamodel.UserStats) {
	s.store.setStats(id, stats)
}

// CheckPassword reports whether password currently opens username.
func (s *Server) CheckPassword(username, password string) bool {
	_, hash, ok := s.store.byUsername(username)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func (s *Server) route(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[op]++
		f, failing := s.failures[op]
		s.mu.Unlock()

		if failing {
			writeEnvelope(w, f.status, false, nil, f.message)
			return
		}
		next(w, r)
	}
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeEnvelope(w, http.StatusUnauthorized, false, nil, "Token tidak ditemukan")
			return
		}
		claims, err := s.tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeEnvelope(w, http.StatusUnauthorized, false, nil, "Token tidak valid atau kedaluwarsa")
			return
		}
		rec, ok := s.store.get(claims.ID())
		if !ok || !rec.IsActive {
			writeEnvelope(w, http.StatusUnauthorized, false, nil, internal.ErrUserInactive.Message)
			return
		}
		if rec.Role != "admin" {
			writeEnvelope(w, http.StatusForbidden, false, nil, "Akses ditolak")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func actorOf(r *http.Request) string {
	if c, ok := r.Context().Value(claimsKey{}).(*Claims); ok {
		return c.Username
	}
	return ""
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req userDatamodel.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Username dan password wajib diisi")
		return
	}

	rec, hash, ok := s.store.byUsername(req.Username)
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		writeEnvelope(w, http.StatusUnauthorized, false, nil, internal.ErrBadCredentials.Message)
		return
	}
	if !rec.IsActive {
		writeEnvelope(w, http.StatusForbidden, false, nil, internal.ErrUserInactive.Message)
		return
	}

	token, err := s.tokens.Generate(rec.ID, rec.Username, rec.Role)
	if err != nil {
		s.logger.Error("mock api: sign token", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, false, nil, "Login gagal")
		return
	}
	s.store.touchLogin(rec.ID)
	s.store.appendLog(rec.ID, "login", "Login berhasil", clientIP(r))
	rec, _ = s.store.get(rec.ID)

	writeEnvelope(w, http.StatusOK, true, userDatamodel.LoginResponse{Token: token, User: &rec}, "Login berhasil")
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req userDatamodel.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Format permintaan tidak valid")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.FullName == "" {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Semua field wajib diisi")
		return
	}
	if req.Role == "" {
		req.Role = "front_office"
	}
	if !validRole(req.Role) {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Role tidak valid")
		return
	}

	rec, err := s.store.create(req)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.store.appendLog(rec.ID, "create", "Akun dibuat oleh "+actorOf(r), clientIP(r))
	writeEnvelope(w, http.StatusCreated, true, rec, "User berhasil ditambahkan")
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusOK, true, s.store.list(), "")
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	writeEnvelope(w, http.StatusOK, true, rec, "")
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	var req userDatamodel.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Format permintaan tidak valid")
		return
	}
	if req.Role != "" && !validRole(req.Role) {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Role tidak valid")
		return
	}
	if err := s.store.update(rec.ID, req); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.store.appendLog(rec.ID, "update", "Data user diperbarui oleh "+actorOf(r), clientIP(r))
	writeEnvelope(w, http.StatusOK, true, nil, "User berhasil diupdate")
}

func (s *Server) deactivateUser(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	if err := s.store.setActive(rec.ID, false); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.store.appendLog(rec.ID, "delete", "Akun dinonaktifkan oleh "+actorOf(r), clientIP(r))
	writeEnvelope(w, http.StatusOK, true, nil, "User berhasil dinonaktifkan")
}

func (s *Server) setPassword(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	var req userDatamodel.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Password baru harus diisi")
		return
	}
	if len([]rune(req.Password)) < 6 {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Password minimal 6 karakter")
		return
	}
	if err := s.store.setPassword(rec.ID, req.Password); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.store.appendLog(rec.ID, "password_reset", "Password diubah oleh "+actorOf(r), clientIP(r))
	writeEnvelope(w, http.StatusOK, true, nil, "Password berhasil direset")
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	if err := s.store.setPassword(rec.ID, s.defaultPassword); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.store.appendLog(rec.ID, "password_reset", "Password direset ke default oleh "+actorOf(r), clientIP(r))
	writeEnvelope(w, http.StatusOK, true, nil, "Password berhasil direset")
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Status wajib diisi")
		return
	}
	if err := s.store.setActive(rec.ID, *req.IsActive); err != nil {
		s.writeStoreError(w, err)
		return
	}
	state := "dinonaktifkan"
	if *req.IsActive {
		state = "diaktifkan"
	}
	s.store.appendLog(rec.ID, "status_change", "Akun "+state+" oleh "+actorOf(r), clientIP(r))
	writeEnvelope(w, http.StatusOK, true, nil, "User berhasil "+state)
}

func (s *Server) activityLogs(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	writeEnvelope(w, http.StatusOK, true, s.store.activity(rec.ID), "")
}

func (s *Server) userStats(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	writeEnvelope(w, http.StatusOK, true, s.store.computeStats(rec.ID), "")
}

func (s *Server) record(w http.ResponseWriter, r *http.Request) (userDatamodel.UserRecord, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "ID user tidak valid")
		return userDatamodel.UserRecord{}, false
	}
	rec, ok := s.store.get(id)
	if !ok {
		writeEnvelope(w, http.StatusNotFound, false, nil, internal.ErrUserNotFound.Message)
		return userDatamodel.UserRecord{}, false
	}
	return rec, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errDuplicate):
		writeEnvelope(w, http.StatusConflict, false, nil, internal.ErrDuplicateUser.Message)
	case errors.Is(err, errNotFound):
		writeEnvelope(w, http.StatusNotFound, false, nil, internal.ErrUserNotFound.Message)
	default:
		s.logger.Error("mock api: store failure", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, false, nil, "Terjadi kesalahan server")
	}
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data interface{}, message string) {
	env := userDatamodel.Envelope{Success: success, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			status, env.Success, env.Message = http.StatusInternalServerError, false, "Terjadi kesalahan server"
		} else {
			env.Data = raw
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func validRole(role string) bool {
	switch role {
	case "admin", "dokter", "apoteker", "kasir", "front_office":
		return true
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
