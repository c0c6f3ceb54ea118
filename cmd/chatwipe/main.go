// Command chatwipe deletes every conversation in an authenticated chat
// account, driving a real browser over CDP and recording each deletion in a
// local append-only ledger so repeated runs are idempotent.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/shehryarbajwa/chatwipe/internal/browser"
	"github.com/shehryarbajwa/chatwipe/internal/chat"
	"github.com/shehryarbajwa/chatwipe/internal/config"
	"github.com/shehryarbajwa/chatwipe/internal/ledger"
	"github.com/shehryarbajwa/chatwipe/internal/wipe"
	"github.com/shehryarbajwa/chatwipe/pkg/models"
)

// main only translates run's result into an exit status. Everything that
// acquires a resource lives inside run so its defers fire on every exit
// path, fatal ones included.
func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Printf("❌ Invalid configuration: %v", err)
		return 1
	}

	if cfg.ProfileDir == "" {
		dir, err := browser.DefaultProfileDir()
		if err != nil {
			log.Printf("❌ Failed to locate browser profile: %v", err)
			return 1
		}
		cfg.ProfileDir = dir
	}
	log.Printf("✓ Using browser profile %s", cfg.ProfileDir)

	rec, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		log.Printf("❌ Failed to open ledger: %v", err)
		return 1
	}
	defer rec.Close()
	log.Printf("✓ Ledger loaded with %d recorded deletions", rec.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := browser.Launch(ctx, browser.Options{
		Headless:    cfg.Headless,
		ProfileDir:  cfg.ProfileDir,
		BaseURL:     cfg.BaseURL,
		WaitTimeout: cfg.WaitTimeout,
		Container:   cfg.Container,
	})
	if err != nil {
		log.Printf("❌ Failed to launch browser: %v", err)
		return 1
	}
	defer sess.Close()
	log.Printf("✓ Browser session ready (headless=%v)", cfg.Headless)

	driver := chat.NewCDPDriver(sess.Ctx, cfg.WaitTimeout)
	selectors := chat.SelectorsFromEnv()
	runner := wipe.NewRunner(
		chat.NewEnumerator(driver, selectors),
		chat.NewDeleter(driver, selectors),
		rec,
		wipe.Options{
			RetryLimit:       cfg.RetryLimit,
			AttemptBudget:    cfg.AttemptBudget,
			DeletesPerMinute: cfg.DeletesPerMinute,
		},
	)
	log.Printf("✓ Starting run %s", runner.RunID())

	g, gctx := errgroup.WithContext(ctx)

	var report *models.Report
	g.Go(func() error {
		var err error
		report, err = runner.Run(gctx)
		if report != nil {
			log.Printf("Run %s finished: deleted=%d skipped=%d alreadyDone=%d attempts=%d in %s",
				report.RunID, report.Deleted, report.Skipped, report.AlreadyDone,
				report.Attempts, report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				p := runner.Progress()
				log.Printf("Progress: deleted=%d skipped=%d attempts=%d pending=%d",
					p.Deleted, p.Skipped, p.Attempts, p.Pending)
			}
		}
	})

	return conclude(g.Wait(), report)
}

// conclude logs the run's outcome and maps it to an exit status. A run that
// converged but skipped conversations exits non-zero: those threads are
// still in the account and absent from the ledger.
func conclude(err error, report *models.Report) int {
	switch {
	case err == nil:
		if report != nil && report.Skipped > 0 {
			log.Printf("⚠️ %d conversations could not be deleted and remain in the account; re-run to retry them", report.Skipped)
			return 1
		}
		log.Println("✅ All conversations deleted")
		return 0
	case errors.Is(err, context.Canceled):
		log.Println("⚠️ Run interrupted; re-running will resume where it left off")
		return 1
	case errors.Is(err, wipe.ErrBudgetExhausted):
		log.Printf("❌ %v", err)
		return 1
	case errors.Is(err, chat.ErrStructureMismatch):
		log.Printf("❌ Page structure changed, selectors need updating: %v", err)
		return 1
	default:
		log.Printf("❌ Run failed: %v", err)
		return 1
	}
}
