package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shehryarbajwa/chatwipe/pkg/models"
)

// ErrAlreadyGone means the conversation's link was absent before any
// interaction: the thread was deleted out from under us, by a previous
// interrupted run or another client. The caller records it and moves on.
var ErrAlreadyGone = errors.New("conversation no longer present on page")

// verifyPolls bounds how long we poll for the row to disappear after
// confirming. The remote app removes the row asynchronously.
const (
	verifyPolls    = 5
	verifyInterval = time.Second
)

// Deleter drives the delete affordance for a single conversation: open the
// row, reveal its menu, click Delete, confirm, then verify the row is gone.
type Deleter struct {
	driver Driver
	sel    Selectors
}

// NewDeleter wires a deleter to a driver and selector set.
func NewDeleter(driver Driver, sel Selectors) *Deleter {
	return &Deleter{driver: driver, sel: sel}
}

// Delete removes one conversation from the remote account. Every failure is
// returned as a value; the caller owns retry policy. A nil return means the
// row was confirmed absent afterwards.
func (d *Deleter) Delete(ctx context.Context, conv models.Conversation) error {
	linkSel := fmt.Sprintf(`a[href*=%q]`, conv.ID)

	present, err := d.driver.Exists(ctx, linkSel)
	if err != nil {
		return fmt.Errorf("failed to locate conversation row: %w", err)
	}
	if !present {
		return ErrAlreadyGone
	}

	// Focus the row first so the app renders its controls.
	if err := d.driver.Click(ctx, linkSel); err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}

	// The options button only renders on hover.
	if err := d.driver.Hover(ctx, linkSel); err != nil {
		return fmt.Errorf("failed to hover conversation row: %w", err)
	}
	if err := d.driver.WaitVisible(ctx, d.sel.OptionsButton); err != nil {
		return fmt.Errorf("options button did not appear: %w", err)
	}
	if err := d.driver.Click(ctx, d.sel.OptionsButton); err != nil {
		return fmt.Errorf("failed to open row menu: %w", err)
	}

	if err := d.driver.WaitVisible(ctx, d.sel.DeleteMenuItem); err != nil {
		return fmt.Errorf("delete menu item did not appear: %w", err)
	}
	if err := d.driver.Click(ctx, d.sel.DeleteMenuItem); err != nil {
		return fmt.Errorf("failed to click delete menu item: %w", err)
	}

	if err := d.driver.WaitVisible(ctx, d.sel.ConfirmDialog); err != nil {
		return fmt.Errorf("confirmation dialog did not appear: %w", err)
	}
	if err := d.confirm(ctx); err != nil {
		return err
	}

	return d.verifyGone(ctx, linkSel)
}

// Recover reloads the page, clearing stuck menus, dialogs and overlays that
// a half-finished interaction can leave behind. The loop calls it before a
// conversation's last retry rather than spending that attempt on a page in an
// unknown state.
func (d *Deleter) Recover(ctx context.Context) error {
	if err := d.driver.Reload(ctx); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	return nil
}

// confirm clicks the destructive button in the dialog, preferring a text
// match and falling back to the positional selector.
func (d *Deleter) confirm(ctx context.Context) error {
	clicked, err := d.driver.ClickText(ctx, d.sel.ConfirmDialog, d.sel.ConfirmText)
	if err != nil {
		return fmt.Errorf("failed to click confirmation button: %w", err)
	}
	if clicked {
		return nil
	}
	if err := d.driver.Click(ctx, d.sel.ConfirmFallback); err != nil {
		return fmt.Errorf("confirmation fallback failed: %w", err)
	}
	return nil
}

// verifyGone polls for the row's absence. The deletion only counts once the
// link has actually disappeared from the sidebar.
func (d *Deleter) verifyGone(ctx context.Context, linkSel string) error {
	for i := 0; i < verifyPolls; i++ {
		present, err := d.driver.Exists(ctx, linkSel)
		if err != nil {
			return fmt.Errorf("failed to verify deletion: %w", err)
		}
		if !present {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(verifyInterval):
		}
	}
	return fmt.Errorf("conversation still present after confirmation")
}
