package flow

import (
	"context"
	"fmt"
	"log"

	"geonews/internal/review"
)

// DefaultMaxRetry is the number of rejected drafts the flow will regenerate
// before giving up.
const DefaultMaxRetry = 3

// Failure reasons recorded in State.FailReason. Both the malformed-output
// and budget-exhausted paths end in FAILED; the reason keeps them
// distinguishable after the fact.
const (
	ReasonMalformedOutput = "malformed_output"
	ReasonBudgetExhausted = "rejected_budget_exhausted"
)

// decision is the routing outcome after a reviewed generation attempt.
type decision int

const (
	decidePublish decision = iota
	decideRetry
	decideFail
)

// Orchestrator drives a newsletter run through draft, review, retry, and
// publication. It is the sole writer of run state.
type Orchestrator struct {
	store    Store
	gen      GenerationStage
	pub      PublicationStage
	subs     SubscriberSource
	maxRetry int
}

// NewOrchestrator creates an orchestrator. A maxRetry of zero or less falls
// back to DefaultMaxRetry.
func NewOrchestrator(store Store, gen GenerationStage, pub PublicationStage, subs SubscriberSource, maxRetry int) *Orchestrator {
	if maxRetry <= 0 {
		maxRetry = DefaultMaxRetry
	}
	return &Orchestrator{
		store:    store,
		gen:      gen,
		pub:      pub,
		subs:     subs,
		maxRetry: maxRetry,
	}
}

// Run drives the state to a terminal status and returns it. A non-nil error
// means persistence failed; the run stops before any further side effect so
// a restart cannot double-publish. Stage failures do not surface as errors,
// they terminate the run with Status FAILED and a FailReason.
func (o *Orchestrator) Run(ctx context.Context, st *State) (*State, error) {
	if st.Terminal() {
		log.Printf("Run %s is already %s, nothing to do", st.RunID, st.Status)
		return st, nil
	}

	for {
		// A resumed run may already hold a reviewed draft; only spend a
		// generation call when the state is actually pending.
		if st.Status == StatusPending {
			if err := o.advanceGeneration(ctx, st); err != nil {
				return st, err
			}
			if st.Status == StatusFailed {
				return st, nil
			}
		}

		switch route(st.Status, st.RetryCount, o.maxRetry) {
		case decidePublish:
			return st, o.publish(ctx, st)

		case decideRetry:
			st.RetryCount++
			st.Status = StatusPending
			if err := o.save(ctx, st); err != nil {
				return st, err
			}
			log.Printf("Run %s: draft rejected, retry %d/%d (feedback: %s)",
				st.RunID, st.RetryCount, o.maxRetry, st.Feedback)

		case decideFail:
			if st.Status == StatusJSONError {
				st.FailReason = ReasonMalformedOutput
			} else {
				st.FailReason = ReasonBudgetExhausted
			}
			st.Status = StatusFailed
			log.Printf("Run %s failed: %s", st.RunID, st.FailReason)
			return st, o.save(ctx, st)
		}
	}
}

// advanceGeneration invokes the drafting stage and folds its reviewed
// verdict into the state. A stage error is a hard failure of the run: only
// an explicit REJECTED verdict consumes retry budget, a broken pipeline
// never does. Malformed output marks the state JSON_ERROR and leaves the
// previous content and feedback untouched.
func (o *Orchestrator) advanceGeneration(ctx context.Context, st *State) error {
	raw, err := o.gen.Generate(ctx, st.Date, st.Feedback)
	if err != nil {
		st.Status = StatusFailed
		st.FailReason = fmt.Sprintf("generation_error: %v", err)
		log.Printf("Run %s: drafting stage failed: %v", st.RunID, err)
		return o.save(ctx, st)
	}

	verdict, perr := review.Parse(raw)
	if perr != nil {
		log.Printf("Run %s: unparseable draft output: %v", st.RunID, perr)
		st.Status = StatusJSONError
		return o.save(ctx, st)
	}

	st.Content = verdict.Content
	st.Feedback = verdict.Feedback
	st.Status = Status(verdict.Status)
	return o.save(ctx, st)
}

// route decides what happens after a reviewed generation attempt. It is a
// pure function of the verdict and the remaining retry budget; the retry
// counter is incremented by the caller on the retry path.
func route(status Status, retryCount, maxRetry int) decision {
	switch {
	case status == StatusApproved:
		return decidePublish
	case status == StatusJSONError:
		return decideFail
	case status == StatusRejected && retryCount < maxRetry:
		return decideRetry
	default:
		return decideFail
	}
}

// publish resolves the recipient list and hands the approved draft to the
// publication stage. The approved state was already persisted by
// advanceGeneration, so a crash here resumes at publication rather than
// regenerating.
func (o *Orchestrator) publish(ctx context.Context, st *State) error {
	recipients, err := o.subs.List(ctx)
	if err != nil {
		st.Status = StatusFailed
		st.FailReason = fmt.Sprintf("publish_error: listing recipients: %v", err)
		return o.save(ctx, st)
	}

	if err := o.pub.Publish(ctx, st.Content, recipients); err != nil {
		st.Status = StatusFailed
		st.FailReason = fmt.Sprintf("publish_error: %v", err)
		log.Printf("Run %s: publication failed: %v", st.RunID, err)
		return o.save(ctx, st)
	}

	st.Status = StatusPublished
	log.Printf("Run %s published to %d recipients", st.RunID, len(recipients))
	return o.save(ctx, st)
}

func (o *Orchestrator) save(ctx context.Context, st *State) error {
	if err := o.store.Save(ctx, st); err != nil {
		return fmt.Errorf("persisting run %s: %w", st.RunID, err)
	}
	return nil
}
