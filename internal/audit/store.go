package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/fundflow/fundflow/internal/platform/db"
)

// Store writes audit records into audit_logs.
type Store struct {
	db db.DBTX
}

// NewStore returns a new Store.
func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

// Insert persists the event.
func (s *Store) Insert(ctx context.Context, event Event) error {
	if s == nil || s.db == nil {
		return errors.New("audit: store not initialised")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	meta, err := json.Marshal(event.Meta)
	if err != nil {
		return fmt.Errorf("audit: encode meta: %w", err)
	}
	var actor any
	if event.ActorID != uuid.Nil {
		actor = event.ActorID
	}
	var at any
	if !event.At.IsZero() {
		at = event.At
	}
	_, err = s.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		actor, event.Action, event.Entity, event.EntityID, meta, at)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// Inserter persists decoded events.
type Inserter interface {
	Insert(ctx context.Context, event Event) error
}

// NewRecordHandler returns the worker handler for TaskRecord. Malformed payloads
// are not retried.
func NewRecordHandler(store Inserter, observer Observer, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		event, err := decode(t.Payload())
		if err != nil {
			logger.Error("audit decode payload", slog.Any("error", err))
			return fmt.Errorf("audit: decode: %v: %w", err, asynq.SkipRetry)
		}
		if err := event.Validate(); err != nil {
			logger.Error("audit invalid event", slog.Any("error", err))
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		if err := store.Insert(ctx, event); err != nil {
			if observer != nil {
				observer.ObserveAudit(event.Action, "failed")
			}
			return err
		}
		if observer != nil {
			observer.ObserveAudit(event.Action, "stored")
		}
		return nil
	}
}
