package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Driver is the capability surface the enumerator and deleter run against:
// query, click, wait, nothing else. The production implementation drives a
// Chrome tab over CDP; tests substitute fakes so the loop logic is testable
// without a live browser.
type Driver interface {
	// WaitVisible blocks until an element matching sel is visible.
	WaitVisible(ctx context.Context, sel string) error

	// Hrefs returns the href attribute of every element matching sel, in
	// document order.
	Hrefs(ctx context.Context, sel string) ([]string, error)

	// Click scrolls the first element matching sel into view and clicks it.
	Click(ctx context.Context, sel string) error

	// Hover dispatches pointer-over events to the first element matching
	// sel, revealing hover-only controls.
	Hover(ctx context.Context, sel string) error

	// ClickText clicks the first button inside containerSel whose text
	// content contains text. Returns false when no such button exists.
	ClickText(ctx context.Context, containerSel, text string) (bool, error)

	// Exists reports whether any element matches sel right now.
	Exists(ctx context.Context, sel string) (bool, error)

	// Reload reloads the current page, recovering from stuck overlays.
	Reload(ctx context.Context) error
}

// CDPDriver implements Driver over a chromedp browser context. Every call is
// bounded by the configured step timeout so nothing blocks indefinitely.
type CDPDriver struct {
	browserCtx  context.Context
	stepTimeout time.Duration
}

// NewCDPDriver wraps an active chromedp context.
func NewCDPDriver(browserCtx context.Context, stepTimeout time.Duration) *CDPDriver {
	return &CDPDriver{browserCtx: browserCtx, stepTimeout: stepTimeout}
}

// run executes tasks against the browser tab under the step timeout. The
// caller's ctx only gates entry; chromedp actions must run on the browser
// context chain to reach the right target.
func (d *CDPDriver) run(ctx context.Context, tasks ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stepCtx, cancel := context.WithTimeout(d.browserCtx, d.stepTimeout)
	defer cancel()
	return chromedp.Run(stepCtx, tasks...)
}

func (d *CDPDriver) WaitVisible(ctx context.Context, sel string) error {
	return d.run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

func (d *CDPDriver) Hrefs(ctx context.Context, sel string) ([]string, error) {
	js := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q)).map(el => el.getAttribute('href') || '')`,
		sel,
	)
	var hrefs []string
	if err := d.run(ctx, chromedp.Evaluate(js, &hrefs)); err != nil {
		return nil, err
	}
	return hrefs, nil
}

func (d *CDPDriver) Click(ctx context.Context, sel string) error {
	return d.run(ctx,
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	)
}

func (d *CDPDriver) Hover(ctx context.Context, sel string) error {
	js := fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return false;
		for (const type of ['pointerover', 'mouseover', 'mouseenter']) {
			el.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true, view: window}));
		}
		return true;
	})()`, sel)

	var ok bool
	if err := d.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no element matches %q", sel)
	}
	return nil
}

func (d *CDPDriver) ClickText(ctx context.Context, containerSel, text string) (bool, error) {
	js := fmt.Sprintf(`(function() {
		const root = document.querySelector(%q);
		if (!root) return false;
		const buttons = root.querySelectorAll('button');
		for (const b of buttons) {
			if ((b.textContent || '').trim().includes(%q)) {
				b.click();
				return true;
			}
		}
		return false;
	})()`, containerSel, text)

	var clicked bool
	if err := d.run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

func (d *CDPDriver) Exists(ctx context.Context, sel string) (bool, error) {
	js := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
	var found bool
	if err := d.run(ctx, chromedp.Evaluate(js, &found)); err != nil {
		return false, err
	}
	return found, nil
}

func (d *CDPDriver) Reload(ctx context.Context) error {
	return d.run(ctx,
		chromedp.Reload(),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
}
