package user

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/rsms-admin/internal"
	"github.com/frahmantamala/rsms-admin/internal/transport"
)

type DirectoryService interface {
	ListUsers(ctx context.Context) ([]User, error)
}

type MutationService interface {
	CreateUser(ctx context.Context, d Draft) (*User, error)
	UpdateUser(ctx context.Context, id int64, d Draft) error
	DeactivateUser(ctx context.Context, id int64) error
	ResetPasswordToDefault(ctx context.Context, id int64) error
	SetPassword(ctx context.Context, id int64, newPassword string) error
	SetActiveStatus(ctx context.Context, id int64, isActive bool) error
}

type DetailService interface {
	LoadUserDetail(ctx context.Context, id int64) (*Detail, error)
	LoadActivityLog(ctx context.Context, id int64) ([]ActivityLogEntry, error)
}

type Handler struct {
	*transport.BaseHandler
	Directory DirectoryService
	Mutations MutationService
	Details   DetailService
}

func NewHandler(baseHandler *transport.BaseHandler, directory DirectoryService, mutations MutationService, details DetailService) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Directory:   directory,
		Mutations:   mutations,
		Details:     details,
	}
}

// Routes mounts the user administration endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListUsers)
	r.Post("/", h.CreateUser)
	r.Get("/{id}", h.GetUser)
	r.Put("/{id}", h.UpdateUser)
	r.Delete("/{id}", h.DeactivateUser)
	r.Put("/{id}/password", h.SetPassword)
	r.Post("/{id}/reset-password", h.ResetPassword)
	r.Put("/{id}/status", h.SetStatus)
	r.Get("/{id}/activity-logs", h.ActivityLogs)
}

// ListUsers always refetches with the caller's credential so the backend
// decides who may see the directory.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Directory.ListUsers(r.Context())
	if err != nil {
		h.WriteAppError(w, err, MsgFetchFailed)
		return
	}

	h.WriteSuccess(w, http.StatusOK, DirectoryResponse{
		Users:   Rows(users),
		Summary: Summarize(users),
	}, "")
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	draft := NewDraft()
	if !h.decode(w, r, &draft) {
		return
	}

	created, err := h.Mutations.CreateUser(r.Context(), draft)
	if err != nil {
		h.WriteAppError(w, err, MsgCreateFailed)
		return
	}

	var data interface{}
	if created != nil {
		data = NewRow(*created)
	}
	h.WriteSuccess(w, http.StatusCreated, data, MsgCreated)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	detail, err := h.Details.LoadUserDetail(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err, MsgFetchFailed)
		return
	}

	h.WriteSuccess(w, http.StatusOK, DetailResponse{
		User:          NewRow(detail.User),
		Stats:         detail.Stats,
		StatsDegraded: detail.StatsDegraded,
		Draft:         EditDraft(&detail.User),
	}, "")
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var draft Draft
	if !h.decode(w, r, &draft) {
		return
	}

	if err := h.Mutations.UpdateUser(r.Context(), id, draft); err != nil {
		h.WriteAppError(w, err, MsgUpdateFailed)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, MsgUpdated)
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.Mutations.DeactivateUser(r.Context(), id); err != nil {
		h.WriteAppError(w, err, MsgDeactivateFailed)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, MsgDeactivated)
}

func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var dto PasswordDTO
	if !h.decode(w, r, &dto) {
		return
	}

	if err := h.Mutations.SetPassword(r.Context(), id, dto.Password); err != nil {
		h.WriteAppError(w, err, MsgResetFailed)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, MsgPasswordSet)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.Mutations.ResetPasswordToDefault(r.Context(), id); err != nil {
		h.WriteAppError(w, err, MsgResetFailed)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, MsgResetToDefault)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var dto StatusDTO
	if !h.decode(w, r, &dto) {
		return
	}
	if dto.IsActive == nil {
		h.WriteAppError(w, internal.NewValidationFieldError("is_active", "is_active is required", internal.ErrCodeRequiredField), MsgStatusFailed)
		return
	}

	if err := h.Mutations.SetActiveStatus(r.Context(), id, *dto.IsActive); err != nil {
		h.WriteAppError(w, err, MsgStatusFailed)
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]bool{"is_active": *dto.IsActive}, StatusChangedMessage(*dto.IsActive))
}

// ActivityLogs answers with the previously loaded entries alongside the
// error when the fetch fails.
func (h *Handler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	entries, err := h.Details.LoadActivityLog(r.Context(), id)
	if err != nil {
		if len(entries) == 0 {
			h.WriteAppError(w, err, MsgActivityFailed)
			return
		}
		h.Logger.Warn("serving previous activity log", "user_id", id, "error", err)
		h.WriteJSON(w, http.StatusOK, transport.Envelope{Success: false, Data: entries, Message: MsgActivityFailed})
		return
	}
	h.WriteSuccess(w, http.StatusOK, entries, "")
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteAppError(w, internal.NewValidationError(MsgInvalidUserID, internal.ErrCodeInvalidUserID), MsgInvalidUserID)
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.Logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		h.WriteAppError(w, internal.NewValidationError(MsgInvalidBody, internal.ErrCodeValidationFailed), MsgInvalidBody)
		return false
	}
	return true
}
