// Package audit records state-changing actions. Events are enqueued on the
// asynq audit queue and persisted by the worker.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the services.
const (
	ActionWorkspaceCreate    = "workspace.create"
	ActionWorkspaceLock      = "workspace.lock"
	ActionWorkspaceUnlock    = "workspace.unlock"
	ActionWorkspaceDeadline  = "workspace.deadline"
	ActionWorkspaceAssign    = "workspace.assign_team"
	ActionOrganizationUpdate = "organization.update"
	ActionEntrySubmit        = "entry.submit"
	ActionEntryEdit          = "entry.edit"
	ActionEntryReview        = "entry.review"
	ActionEntryFlag          = "entry.flag"
	ActionEntryAttach        = "entry.attach"
	ActionEntryDetach        = "entry.detach"
	ActionReportExport       = "report.export"
)

// ErrInvalidEvent indicates an event missing its action, entity or entity ID.
var ErrInvalidEvent = errors.New("audit: event requires action/entity/entity_id")

// Event is a single audit record.
type Event struct {
	ActorID  uuid.UUID      `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// Validate checks the mandatory fields.
func (e Event) Validate() error {
	if e.Action == "" || e.Entity == "" || e.EntityID == "" {
		return ErrInvalidEvent
	}
	return nil
}

// Recorder accepts audit events.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// Nop discards events.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }

func decode(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}
