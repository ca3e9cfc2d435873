package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/verify/pkg/runner"
)

// Launcher owns the Playwright driver and opens sessions.
type Launcher struct {
	mu          sync.Mutex
	opts        LauncherOptions
	playwright  *playwright.Playwright
	sessions    map[*Session]struct{}
	initialized bool
}

// NewLauncher creates a launcher. Initialize must be called before Open.
func NewLauncher(opts LauncherOptions) *Launcher {
	if opts.MaxHTMLLength == 0 {
		opts.MaxHTMLLength = DefaultMaxHTMLLength
	}
	return &Launcher{
		opts:     opts,
		sessions: make(map[*Session]struct{}),
	}
}

// Initialize installs (unless skipped) and starts the Playwright driver.
// Calling it again is a no-op.
func (l *Launcher) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	out := l.opts.Output
	if out == nil {
		out = io.Discard
	}
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   out,
		Stderr:   out,
	}

	if !l.opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.playwright = pw
	l.initialized = true
	return nil
}

// Open launches a fresh Chromium and returns its only page.
func (l *Launcher) Open(ctx context.Context, opts runner.PageOptions) (runner.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, fmt.Errorf("launcher not initialized")
	}

	if opts.Viewport.Width == 0 || opts.Viewport.Height == 0 {
		opts.Viewport.Width = DefaultViewportWidth
		opts.Viewport.Height = DefaultViewportHeight
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	b, err := l.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(milliseconds(opts.Timeout))

	s := &Session{
		browser: b,
		context: bctx,
		page:    page,
		timeout: opts.Timeout,
		rawHTML: l.opts.RawHTML,
		maxHTML: l.opts.MaxHTMLLength,
		release: l.forget,
	}
	s.listen()

	l.sessions[s] = struct{}{}
	return s, nil
}

// OpenSessions returns the number of sessions not yet closed.
func (l *Launcher) OpenSessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Shutdown closes every open session and stops the driver.
func (l *Launcher) Shutdown() error {
	l.mu.Lock()
	sessions := make([]*Session, 0, len(l.sessions))
	for s := range l.sessions {
		sessions = append(sessions, s)
	}
	l.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized && l.playwright != nil {
		if err := l.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		l.initialized = false
	}
	return errors.Join(errs...)
}

func (l *Launcher) forget(s *Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, s)
}
