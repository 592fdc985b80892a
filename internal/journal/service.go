package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/rsms-admin/internal/core/events"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

const defaultLimit = 50

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, lg *slog.Logger) *Service {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Service{repo: repo, logger: lg}
}

// Subscribe records every user event published on bus.
func (s *Service) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.AllEvents, s.HandleEvent)
}

// HandleEvent stores user mutation events and ignores anything else. A
// storage failure is logged and swallowed so the bus never sees it.
func (s *Service) HandleEvent(ctx context.Context, evt events.Event) error {
	userEvt, ok := evt.(*events.UserMutationEvent)
	if !ok {
		return nil
	}

	entry := &Entry{
		EventID:    userEvt.EventID(),
		EventType:  userEvt.EventType(),
		Operation:  userEvt.Operation,
		Actor:      userEvt.Actor,
		UserID:     userEvt.UserID,
		Success:    userEvt.Success,
		Message:    userEvt.Message,
		OccurredAt: userEvt.OccurredAt(),
	}
	if err := s.repo.Create(ToDataModel(entry)); err != nil {
		s.logger.Error("journal write failed", "event_id", entry.EventID, "operation", entry.Operation, "error", err)
		return nil
	}
	s.logger.Debug("journal entry recorded", "event_id", entry.EventID, "operation", entry.Operation)
	return nil
}

func (s *Service) Recent(limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.repo.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return fromRows(rows), nil
}

func (s *Service) ForUser(userID int64, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.repo.ForUser(userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal for user %d: %w", userID, err)
	}
	return fromRows(rows), nil
}
