// Package wipe drives deletion to completion: enumerate, delete, record,
// re-enumerate, until nothing pending remains or the attempt budget runs out.
package wipe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/shehryarbajwa/chatwipe/internal/chat"
	"github.com/shehryarbajwa/chatwipe/pkg/models"
)

// ErrBudgetExhausted means the global attempt budget ran out before the
// conversation list converged; the page is likely in an inconsistent state.
var ErrBudgetExhausted = errors.New("global attempt budget exhausted")

// Enumerator yields the conversations currently on the page.
type Enumerator interface {
	List(ctx context.Context) ([]models.Conversation, error)
}

// Deleter removes one conversation from the remote account. Recover resets
// the page to a known state between failed attempts.
type Deleter interface {
	Delete(ctx context.Context, conv models.Conversation) error
	Recover(ctx context.Context) error
}

// Recorder is the persisted deleted-set the loop consults and appends to.
type Recorder interface {
	Contains(id string) bool
	Record(id, runID string) error
}

// Runner owns one run of the deletion loop. Single-threaded by design: every
// browser interaction is a blocking call with a bounded wait, and the only
// shared mutable resource is the recorder.
type Runner struct {
	enum       Enumerator
	deleter    Deleter
	recorder   Recorder
	limiter    *rate.Limiter
	retryLimit int
	budget     int
	runID      string

	mu       sync.Mutex
	progress models.Progress

	// attempts and skipped survive re-enumeration so a conversation's retry
	// count is global to the run, not per enumeration pass.
	attempts map[string]int
	skipped  map[string]struct{}
}

// Options configures a Runner.
type Options struct {
	RetryLimit       int
	AttemptBudget    int
	DeletesPerMinute int
}

// NewRunner builds a runner with a fresh run ID.
func NewRunner(enum Enumerator, deleter Deleter, recorder Recorder, opts Options) *Runner {
	return &Runner{
		enum:       enum,
		deleter:    deleter,
		recorder:   recorder,
		limiter:    rate.NewLimiter(rate.Limit(float64(opts.DeletesPerMinute)/60.0), 1),
		retryLimit: opts.RetryLimit,
		budget:     opts.AttemptBudget,
		runID:      uuid.New().String(),
		attempts:   make(map[string]int),
		skipped:    make(map[string]struct{}),
	}
}

// RunID returns the identifier stamped into ledger entries for this run.
func (r *Runner) RunID() string {
	return r.runID
}

// Progress returns a snapshot safe to read while Run is in flight.
func (r *Runner) Progress() models.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Run executes the loop until convergence, budget exhaustion, or a fatal
// error. The returned report is valid even when err is non-nil.
func (r *Runner) Run(ctx context.Context) (*models.Report, error) {
	report := &models.Report{
		RunID:     r.runID,
		StartedAt: time.Now(),
	}
	defer func() {
		report.FinishedAt = time.Now()
		r.mu.Lock()
		report.Deleted = r.progress.Deleted
		report.Skipped = r.progress.Skipped
		report.Attempts = r.progress.Attempts
		r.mu.Unlock()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		pending, alreadyDone, err := r.enumerate(ctx)
		if err != nil {
			return report, err
		}
		report.AlreadyDone = alreadyDone

		if len(pending) == 0 {
			log.Printf("✓ No pending conversations remain")
			return report, nil
		}
		log.Printf("Found %d pending conversations (%d already recorded, %d skipped this run)",
			len(pending), alreadyDone, len(r.skipped))

		if err := r.drain(ctx, pending); err != nil {
			return report, err
		}
	}
}

// enumerate lists the page and partitions out conversations that are already
// recorded or skipped this run. Recorded entries are a pure skip, never a
// state transition: that is the idempotence mechanism across runs.
func (r *Runner) enumerate(ctx context.Context) ([]models.Conversation, int, error) {
	convs, err := r.enum.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("enumeration failed: %w", err)
	}

	alreadyDone := 0
	pending := make([]models.Conversation, 0, len(convs))
	for _, conv := range convs {
		if r.recorder.Contains(conv.ID) {
			alreadyDone++
			continue
		}
		if _, skip := r.skipped[conv.ID]; skip {
			continue
		}
		pending = append(pending, conv)
	}

	r.mu.Lock()
	r.progress.Pending = len(pending)
	r.mu.Unlock()

	return pending, alreadyDone, nil
}

// drain attempts the pending conversations in page order. After the first
// confirmed deletion it returns so the caller re-enumerates: deleting an
// entry shifts the live list under every remaining element reference.
func (r *Runner) drain(ctx context.Context, pending []models.Conversation) error {
	for _, conv := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		state, err := r.attempt(ctx, conv)
		if err != nil {
			return err
		}
		if state == models.StateDone {
			return nil
		}
	}
	return nil
}

// attempt moves one conversation through the per-item state machine and
// returns its resulting state. Only fatal conditions (context cancellation,
// budget exhaustion, a recorder write failure) surface as errors; a failed
// interaction is a state, not an error.
func (r *Runner) attempt(ctx context.Context, conv models.Conversation) (models.DeletionState, error) {
	r.mu.Lock()
	spent := r.progress.Attempts
	r.mu.Unlock()
	if spent >= r.budget {
		return models.StateFailed, ErrBudgetExhausted
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return models.StateFailed, err
	}

	r.attempts[conv.ID]++
	n := r.attempts[conv.ID]
	r.mu.Lock()
	r.progress.Attempts++
	r.mu.Unlock()

	log.Printf("Deleting conversation %s (attempt %d/%d)", conv.ID, n, r.retryLimit)

	err := r.deleter.Delete(ctx, conv)
	switch {
	case err == nil:
		// CONFIRMED: persist before moving on, so a crash after this point
		// never repeats the deletion.
		if recErr := r.recorder.Record(conv.ID, r.runID); recErr != nil {
			return models.StateConfirmed, fmt.Errorf("deletion confirmed but not recorded: %w", recErr)
		}
		r.mu.Lock()
		r.progress.Deleted++
		r.mu.Unlock()
		log.Printf("✓ Deleted conversation %s", conv.ID)
		return models.StateDone, nil

	case errors.Is(err, chat.ErrAlreadyGone):
		// The remote side already lost this thread. Record it so future
		// runs stop re-enumerating it.
		if recErr := r.recorder.Record(conv.ID, r.runID); recErr != nil {
			return models.StateConfirmed, fmt.Errorf("deletion confirmed but not recorded: %w", recErr)
		}
		r.mu.Lock()
		r.progress.Deleted++
		r.mu.Unlock()
		log.Printf("✓ Conversation %s was already gone", conv.ID)
		return models.StateDone, nil

	case ctx.Err() != nil:
		// The run itself was cancelled; a step timeout without
		// cancellation falls through to the retry path below.
		return models.StateFailed, ctx.Err()

	default:
		log.Printf("⚠️ Failed to delete conversation %s: %v", conv.ID, err)
		if n >= r.retryLimit {
			r.skipped[conv.ID] = struct{}{}
			r.mu.Lock()
			r.progress.Skipped++
			r.mu.Unlock()
			log.Printf("⚠️ Skipping conversation %s after %d attempts", conv.ID, n)
			return models.StateSkipped, nil
		}
		// One retry left: reload the page first so a stuck menu or
		// overlay from this attempt doesn't burn the last one too.
		if n == r.retryLimit-1 {
			log.Printf("Reloading page before final attempt on conversation %s", conv.ID)
			if recErr := r.deleter.Recover(ctx); recErr != nil {
				log.Printf("⚠️ Page reload failed: %v", recErr)
			}
		}
		return models.StateFailed, nil
	}
}
