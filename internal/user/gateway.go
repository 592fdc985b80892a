package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/rsms-admin/internal"
	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rsms-admin/internal/core/events"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

type MutationAPI interface {
	CreateUser(ctx context.Context, req userDatamodel.CreateUserRequest) (*userDatamodel.UserRecord, error)
	UpdateUser(ctx context.Context, id int64, req userDatamodel.UpdateUserRequest) error
	DeactivateUser(ctx context.Context, id int64) error
	SetPassword(ctx context.Context, id int64, password string) error
	ResetPasswordToDefault(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, isActive bool) error
}

// Directory is the part of Store the gateway refreshes after a mutation.
type Directory interface {
	Invalidate()
	ListUsers(ctx context.Context) ([]User, error)
}

const (
	OpCreate        = "create"
	OpUpdate        = "update"
	OpDeactivate    = "deactivate"
	OpResetPassword = "reset_password"
	OpSetPassword   = "set_password"
	OpSetStatus     = "set_status"
)

// Gateway applies admin mutations through the records API. Local checks run
// before any request. Every outcome is published as a user event.
type Gateway struct {
	api       MutationAPI
	directory Directory
	publisher events.Publisher
	logger    *slog.Logger
}

func NewGateway(api MutationAPI, directory Directory, publisher events.Publisher, lg *slog.Logger) *Gateway {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Gateway{api: api, directory: directory, publisher: publisher, logger: lg}
}

// CreateUser registers a new account. The returned user is nil when the
// backend answers without a record.
func (g *Gateway) CreateUser(ctx context.Context, d Draft) (*User, error) {
	if err := d.ValidateCreate(); err != nil {
		g.failed(ctx, OpCreate, 0, err)
		return nil, err
	}

	rec, err := g.api.CreateUser(ctx, d.CreateRequest())
	if err != nil {
		g.failed(ctx, OpCreate, 0, err)
		return nil, err
	}

	var created *User
	var id int64
	if rec != nil {
		created = FromDataModel(rec)
		id = created.ID
	}
	g.succeeded(ctx, events.EventTypeUserCreated, OpCreate, id, MsgCreated)
	return created, nil
}

func (g *Gateway) UpdateUser(ctx context.Context, id int64, d Draft) error {
	if err := validateID(id); err != nil {
		g.failed(ctx, OpUpdate, id, err)
		return err
	}
	if err := g.api.UpdateUser(ctx, id, d.UpdateRequest()); err != nil {
		g.failed(ctx, OpUpdate, id, err)
		return err
	}
	g.succeeded(ctx, events.EventTypeUserUpdated, OpUpdate, id, MsgUpdated)
	return nil
}

// DeactivateUser soft-deletes the account. The record stays listed as inactive.
func (g *Gateway) DeactivateUser(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		g.failed(ctx, OpDeactivate, id, err)
		return err
	}
	if err := g.api.DeactivateUser(ctx, id); err != nil {
		g.failed(ctx, OpDeactivate, id, err)
		return err
	}
	g.succeeded(ctx, events.EventTypeUserDeactivated, OpDeactivate, id, MsgDeactivated)
	return nil
}

func (g *Gateway) DeleteUser(ctx context.Context, id int64) error {
	return g.DeactivateUser(ctx, id)
}

// ResetPasswordToDefault asks the backend to set its shared default
// password on the account.
func (g *Gateway) ResetPasswordToDefault(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		g.failed(ctx, OpResetPassword, id, err)
		return err
	}
	if err := g.api.ResetPasswordToDefault(ctx, id); err != nil {
		g.failed(ctx, OpResetPassword, id, err)
		return err
	}
	g.succeeded(ctx, events.EventTypeUserPasswordReset, OpResetPassword, id, MsgResetToDefault)
	return nil
}

func (g *Gateway) SetPassword(ctx context.Context, id int64, newPassword string) error {
	if err := validateID(id); err != nil {
		g.failed(ctx, OpSetPassword, id, err)
		return err
	}
	if err := ValidateNewPassword(newPassword); err != nil {
		g.failed(ctx, OpSetPassword, id, err)
		return err
	}
	if err := g.api.SetPassword(ctx, id, newPassword); err != nil {
		g.failed(ctx, OpSetPassword, id, err)
		return err
	}
	g.succeeded(ctx, events.EventTypeUserPasswordSet, OpSetPassword, id, MsgPasswordSet)
	return nil
}

// SetActiveStatus always calls the backend, even when the status would not
// change.
func (g *Gateway) SetActiveStatus(ctx context.Context, id int64, isActive bool) error {
	if err := validateID(id); err != nil {
		g.failed(ctx, OpSetStatus, id, err)
		return err
	}
	if err := g.api.SetStatus(ctx, id, isActive); err != nil {
		g.failed(ctx, OpSetStatus, id, err)
		return err
	}
	g.succeeded(ctx, events.EventTypeUserStatusChanged, OpSetStatus, id, StatusChangedMessage(isActive))
	return nil
}

// ToggleStatus flips the status shown for u.
func (g *Gateway) ToggleStatus(ctx context.Context, u User) (bool, error) {
	next := !u.IsActive
	return next, g.SetActiveStatus(ctx, u.ID, next)
}

// refresh reloads the directory after a successful mutation. A failed
// reload is logged only; the mutation itself already succeeded.
func (g *Gateway) refresh(ctx context.Context, op string) {
	if g.directory == nil {
		return
	}
	g.directory.Invalidate()
	if _, err := g.directory.ListUsers(ctx); err != nil {
		g.logger.Warn("directory refresh after mutation failed", "operation", op, "error", err)
	}
}

func (g *Gateway) succeeded(ctx context.Context, eventType, op string, id int64, message string) {
	g.logger.Info("user mutation applied", "operation", op, "user_id", id, "actor", internal.ActorFromContext(ctx))
	g.refresh(ctx, op)
	g.publish(ctx, events.NewUserMutationEvent(eventType, op, id, internal.ActorFromContext(ctx), message))
}

func (g *Gateway) failed(ctx context.Context, op string, id int64, err error) {
	message := err.Error()
	if appErr, ok := internal.IsAppError(err); ok {
		message = appErr.GetDetailedMessage()
	}
	g.logger.Warn("user mutation failed", "operation", op, "user_id", id, "error", err)
	g.publish(ctx, events.NewUserMutationFailedEvent(op, id, internal.ActorFromContext(ctx), message))
}

func (g *Gateway) publish(ctx context.Context, evt events.Event) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.Publish(ctx, evt); err != nil {
		g.logger.Error("failed to publish user event", "event_type", evt.EventType(), "error", err)
	}
}
