// Package entries manages the income, disbursement and remittance entries that
// teams submit into a workspace.
package entries

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/platform/httpx"
)

// Type classifies an entry.
type Type string

// Entry types.
const (
	TypeIncome       Type = "income"
	TypeDisbursement Type = "disbursement"
	TypeRemittance   Type = "remittance"
)

// Types lists every entry type in display order.
func Types() []Type {
	return []Type{TypeIncome, TypeDisbursement, TypeRemittance}
}

// Status tracks the review lifecycle of an entry.
type Status string

// Entry statuses.
const (
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusFlagged       Status = "flagged"
	StatusRejected      Status = "rejected"
)

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPendingReview, StatusApproved, StatusFlagged, StatusRejected}
}

// Editable reports whether submitters may still change the entry.
func (s Status) Editable() bool {
	return s == StatusPendingReview || s == StatusFlagged
}

// Reviewable reports whether a review decision may be recorded.
func (s Status) Reviewable() bool {
	return s == StatusPendingReview || s == StatusFlagged
}

// Flaggable reports whether the entry may be flagged for follow-up.
func (s Status) Flaggable() bool {
	return s == StatusPendingReview || s == StatusApproved
}

var (
	// ErrNotFound indicates a missing entry.
	ErrNotFound = fmt.Errorf("entries: %w", httpx.ErrNotFound)
	// ErrWorkspaceLocked rejects changes to a locked workspace.
	ErrWorkspaceLocked = fmt.Errorf("entries: workspace is locked: %w", httpx.ErrConflict)
	// ErrDeadlinePassed rejects submissions after the workspace deadline.
	ErrDeadlinePassed = fmt.Errorf("entries: submission deadline has passed: %w", httpx.ErrConflict)
	// ErrInvalidTransition rejects a status change not allowed from the current status.
	ErrInvalidTransition = fmt.Errorf("entries: invalid status transition: %w", httpx.ErrConflict)
	// ErrTeamNotInWorkspace rejects submissions from teams outside the workspace organization.
	ErrTeamNotInWorkspace = fmt.Errorf("entries: team is not part of the workspace organization: %w", httpx.ErrValidation)
)

// Entry is a single monetary record. Amount is expressed in minor currency units.
type Entry struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	TeamID      uuid.UUID  `json:"team_id"`
	SubmittedBy uuid.UUID  `json:"submitted_by"`
	Type        Type       `json:"type"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	ReviewedBy  *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewNote  string     `json:"review_note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Status Status
	Type   Type
	TeamID uuid.UUID
}
