package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rsms-admin/internal"
	"github.com/frahmantamala/rsms-admin/internal/transport"
	"github.com/frahmantamala/rsms-admin/internal/user"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

var _ = Describe("Handler", func() {
	var (
		f      *fixture
		router *chi.Mux
	)

	do := func(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
		var raw []byte
		if body != nil {
			raw, _ = json.Marshal(body)
		}
		req := httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(internal.ContextWithActor(req.Context(), "admin"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var env envelope
		Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())
		return rec, env
	}

	BeforeEach(func() {
		f = newFixture()
		h := user.NewHandler(transport.NewBaseHandler(logger.Discard()), f.store, f.gateway, f.details)
		router = chi.NewRouter()
		router.Route("/users", h.Routes)
	})

	It("lists users with badges and a summary", func() {
		f.create(context.Background(), "drsiti", user.RoleDokter)

		rec, env := do(http.MethodGet, "/users", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(env.Success).To(BeTrue())

		var dir struct {
			Users []struct {
				Username  string     `json:"username"`
				RoleBadge user.Badge `json:"role_badge"`
			} `json:"users"`
			Summary user.Summary `json:"summary"`
		}
		Expect(json.Unmarshal(env.Data, &dir)).To(Succeed())
		Expect(dir.Summary).To(Equal(user.Summary{Total: 2, Dokter: 1, Active: 2}))
		Expect(dir.Users[1].RoleBadge).To(Equal(user.Badge{Label: "Dokter", Color: "blue"}))
	})

	It("creates a user and answers with the notification text", func() {
		rec, env := do(http.MethodPost, "/users", user.Draft{
			Username: "kasir1", Email: "kasir1@rsms.local", Password: "secret1", FullName: "Kasir Satu",
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(env.Message).To(Equal(user.MsgCreated))
	})

	It("answers validation failures with 400", func() {
		rec, env := do(http.MethodPost, "/users", user.Draft{Username: "kasir1"})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(env.Success).To(BeFalse())
		Expect(env.Message).To(Equal(user.MsgRequiredFields))
	})

	It("rejects a malformed id", func() {
		rec, env := do(http.MethodGet, "/users/abc", nil)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(env.Message).To(Equal(user.MsgInvalidUserID))
	})

	It("serves the detail view with an edit draft", func() {
		created := f.create(context.Background(), "apt1", user.RoleApoteker)

		rec, env := do(http.MethodGet, "/users/"+itoa(created.ID), nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var detail user.DetailResponse
		Expect(json.Unmarshal(env.Data, &detail)).To(Succeed())
		Expect(detail.User.Username).To(Equal("apt1"))
		Expect(detail.Draft.Password).To(BeEmpty())
		Expect(detail.StatsDegraded).To(BeFalse())
	})

	It("answers 404 for a missing user", func() {
		rec, _ := do(http.MethodGet, "/users/999", nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("requires is_active on status changes", func() {
		rec, _ := do(http.MethodPut, "/users/1/status", map[string]string{})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		rec, env := do(http.MethodPut, "/users/1/status", map[string]bool{"is_active": true})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(env.Message).To(Equal(user.StatusChangedMessage(true)))
	})

	It("short-circuits a short password", func() {
		rec, env := do(http.MethodPut, "/users/1/password", user.PasswordDTO{Password: "123"})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(env.Message).To(Equal(user.MsgPasswordTooShort))
	})

	It("resets, deactivates and reads the activity log", func() {
		created := f.create(context.Background(), "fo1", user.RoleFrontOffice)
		id := itoa(created.ID)

		rec, env := do(http.MethodPost, "/users/"+id+"/reset-password", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(env.Message).To(Equal(user.MsgResetToDefault))

		rec, env = do(http.MethodDelete, "/users/"+id, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(env.Message).To(Equal(user.MsgDeactivated))

		rec, env = do(http.MethodGet, "/users/"+id+"/activity-logs", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var entries []user.ActivityLogEntry
		Expect(json.Unmarshal(env.Data, &entries)).To(Succeed())
		Expect(entries).To(HaveLen(3))
	})
})

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
