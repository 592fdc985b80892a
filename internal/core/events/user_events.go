package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserCreated       = "user.created"
	EventTypeUserUpdated       = "user.updated"
	EventTypeUserDeactivated   = "user.deactivated"
	EventTypeUserPasswordReset = "user.password_reset"
	EventTypeUserPasswordSet   = "user.password_set"
	EventTypeUserStatusChanged = "user.status_changed"
	EventTypeUserMutationFail  = "user.mutation_failed"
)

// UserMutationEvent reports the outcome of one admin action on a user
// account. Message is the text shown to the admin.
type UserMutationEvent struct {
	BaseEvent
	Operation string `json:"operation"`
	UserID    int64  `json:"user_id"`
	Actor     string `json:"actor"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
}

func NewUserMutationEvent(eventType, operation string, userID int64, actor string, message string) *UserMutationEvent {
	return newUserEvent(eventType, operation, userID, actor, true, message)
}

// NewUserMutationFailedEvent is published when the records API rejects or
// fails a mutation, and also for local validation failures.
func NewUserMutationFailedEvent(operation string, userID int64, actor string, message string) *UserMutationEvent {
	return newUserEvent(EventTypeUserMutationFail, operation, userID, actor, false, message)
}

func newUserEvent(eventType, operation string, userID int64, actor string, success bool, message string) *UserMutationEvent {
	return &UserMutationEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"operation": operation,
				"user_id":   userID,
				"actor":     actor,
				"success":   success,
				"message":   message,
			},
		},
		Operation: operation,
		UserID:    userID,
		Actor:     actor,
		Success:   success,
		Message:   message,
	}
}
