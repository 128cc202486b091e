package flow

import (
	"context"
	"errors"
)

// Status is the lifecycle state of a newsletter run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusJSONError Status = "JSON_ERROR"
	StatusPublished Status = "PUBLISHED"
	StatusFailed    Status = "FAILED"
)

// DefaultFeedback is the sentinel carried into the first drafting attempt,
// before any reviewer has commented.
const DefaultFeedback = "None"

// State is the persisted record of a single newsletter run. It is created
// once per run and mutated only by the Orchestrator, which saves it after
// every transition so an interrupted run can resume where it stopped.
type State struct {
	RunID      string
	Date       string // as-of date for the drafting stage, YYYY-MM-DD
	Content    string // current best draft, markdown
	Feedback   string // reviewer feedback carried into the next attempt
	Status     Status
	RetryCount int
	FailReason string // why a FAILED run failed, empty otherwise
}

// NewState creates a fresh pending state for a run.
func NewState(runID, date string) *State {
	return &State{
		RunID:    runID,
		Date:     date,
		Feedback: DefaultFeedback,
		Status:   StatusPending,
	}
}

// Terminal reports whether the run has reached a final state.
func (s *State) Terminal() bool {
	return s.Status == StatusPublished || s.Status == StatusFailed
}

// ErrNotFound is returned by Store.Load when no state exists for a run ID.
var ErrNotFound = errors.New("run not found")

// Store persists run state. Save durably overwrites the record for the
// state's run ID; a save either fully succeeds or leaves the prior value
// readable.
type Store interface {
	Save(ctx context.Context, state *State) error
	Load(ctx context.Context, runID string) (*State, error)
}

// GenerationStage drafts a newsletter for the given date, taking the
// previous reviewer feedback into account. The returned text is expected to
// carry a fenced JSON review verdict; the adapter may retry internally
// against its own schema guardrail before returning.
type GenerationStage interface {
	Generate(ctx context.Context, date, feedback string) (string, error)
}

// PublicationStage delivers an approved newsletter to the given recipients.
// Delivery is all-or-nothing from the caller's view.
type PublicationStage interface {
	Publish(ctx context.Context, content string, recipients []string) error
}

// SubscriberSource lists current recipient addresses. It is consulted
// immediately before publication, never cached, so late subscriber changes
// are picked up.
type SubscriberSource interface {
	List(ctx context.Context) ([]string, error)
}
