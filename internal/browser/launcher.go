// Package browser establishes the authenticated browser session the rest of
// the tool drives. Two launch modes: exec a local Chrome against the user's
// profile, or attach to a browserless/chrome container over its CDP websocket.
package browser

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Options configures a launch.
type Options struct {
	Headless    bool
	ProfileDir  string
	BaseURL     string
	WaitTimeout time.Duration

	// Container switches from a local Chrome exec to a Docker-hosted one.
	Container bool
}

// Session is the live browser-controlled state for one run. It is owned
// exclusively by the running process and torn down at exit regardless of how
// the loop ended.
type Session struct {
	// Ctx is the chromedp browser context all page interactions run on.
	Ctx context.Context

	cancels   []context.CancelFunc
	container *Container
}

// Launch starts a browser in the requested mode, navigates to baseURL and
// waits for the page to render. Any failure here is fatal to the run; there
// is no retry at this layer.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	sess := &Session{}

	var allocCtx context.Context
	var allocCancel context.CancelFunc

	if opts.Container {
		container, err := StartContainer(ctx, opts.ProfileDir)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser container: %w", err)
		}
		sess.container = container
		log.Printf("✓ Browser container ready at %s", container.ConnectURL())

		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, container.ConnectURL())
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("no-first-run", true),
			chromedp.Flag("no-default-browser-check", true),
			chromedp.Flag("disable-sync", true),
			chromedp.Flag("mute-audio", true),
			chromedp.Flag("disable-infobars", true),
			chromedp.Flag("enable-automation", false),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserDataDir(opts.ProfileDir),
			chromedp.WindowSize(1400, 900),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, execOpts...)
	}
	sess.cancels = append(sess.cancels, allocCancel)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}),
	)
	sess.cancels = append(sess.cancels, browserCancel)
	sess.Ctx = browserCtx

	keepSingleTab(browserCtx)

	if err := sess.open(opts.BaseURL, opts.WaitTimeout); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// keepSingleTab closes any page target created after the first one. Clicking
// through menus in an unattended run can hit target=_blank links; a stray tab
// would steal the session and strand the deletion loop.
func keepSingleTab(browserCtx context.Context) {
	var mu sync.Mutex
	var mainTarget target.ID

	chromedp.ListenBrowser(browserCtx, func(ev interface{}) {
		e, ok := ev.(*target.EventTargetCreated)
		if !ok || e.TargetInfo == nil || e.TargetInfo.Type != "page" {
			return
		}
		tid := e.TargetInfo.TargetID

		mu.Lock()
		if mainTarget == "" {
			mainTarget = tid
			mu.Unlock()
			return
		}
		isMain := tid == mainTarget
		mu.Unlock()
		if isMain {
			return
		}

		closeCtx, cancel := context.WithTimeout(browserCtx, 3*time.Second)
		defer cancel()
		_ = chromedp.Run(closeCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			return target.CloseTarget(tid).Do(ctx)
		}))
	})
}

// open loads the target page and waits for it to render within the bounded
// wait.
func (s *Session) open(baseURL string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(s.Ctx, timeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(baseURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", baseURL, err)
	}
	return nil
}

// Close tears down the browser context, the allocator, and the container when
// one was used. Safe to call more than once.
func (s *Session) Close() {
	// Cancel in reverse order: tab before allocator.
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
	s.cancels = nil

	if s.container != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.container.Stop(stopCtx); err != nil {
			log.Printf("⚠️ Failed to stop browser container: %v", err)
		}
		s.container = nil
	}
}
