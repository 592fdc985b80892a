// Package journal keeps a local record of the admin mutations made through
// this tool. The records API stays the source of truth for accounts.
package journal

import (
	"time"

	journalDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/journal"
)

type Entry struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Operation  string    `json:"operation"`
	Actor      string    `json:"actor,omitempty"`
	UserID     int64     `json:"user_id,omitempty"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

type RepositoryAPI interface {
	Create(entry *journalDatamodel.Entry) error
	Recent(limit int) ([]*journalDatamodel.Entry, error)
	ForUser(userID int64, limit int) ([]*journalDatamodel.Entry, error)
}

func ToDataModel(e *Entry) *journalDatamodel.Entry {
	return &journalDatamodel.Entry{
		EventID:    e.EventID,
		EventType:  e.EventType,
		Operation:  e.Operation,
		Actor:      e.Actor,
		UserID:     e.UserID,
		Success:    e.Success,
		Message:    e.Message,
		OccurredAt: e.OccurredAt,
	}
}

func FromDataModel(e *journalDatamodel.Entry) *Entry {
	return &Entry{
		EventID:    e.EventID,
		EventType:  e.EventType,
		Operation:  e.Operation,
		Actor:      e.Actor,
		UserID:     e.UserID,
		Success:    e.Success,
		Message:    e.Message,
		OccurredAt: e.OccurredAt,
	}
}

func fromRows(rows []*journalDatamodel.Entry) []*Entry {
	out := make([]*Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out
}
