package browser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/verify/pkg/runner"
	"github.com/entrhq/verify/pkg/scenario"
)

// Session is one browser with a single page. It implements runner.Page.
type Session struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	timeout time.Duration
	rawHTML bool
	maxHTML int
	release func(*Session)

	mu      sync.Mutex
	console []runner.ConsoleEntry
	closed  bool
}

var _ runner.Page = (*Session)(nil)

// listen records console messages and uncaught page errors.
func (s *Session) listen() {
	s.page.OnConsole(func(msg playwright.ConsoleMessage) {
		s.record(runner.ConsoleEntry{Type: msg.Type(), Text: msg.Text()})
	})
	s.page.OnPageError(func(err error) {
		s.record(runner.ConsoleEntry{Type: runner.ConsolePageError, Text: err.Error()})
	})
}

func (s *Session) record(e runner.ConsoleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.console = append(s.console, e)
}

// Goto navigates the page and waits for the given load state.
func (s *Session) Goto(url string, waitUntil scenario.WaitPolicy, timeout time.Duration) error {
	opts := playwright.PageGotoOptions{Timeout: optionalMilliseconds(timeout)}
	if waitUntil != "" {
		state := playwright.WaitUntilState(waitUntil)
		opts.WaitUntil = &state
	}

	if _, err := s.page.Goto(url, opts); err != nil {
		return wrap("navigation failed", err)
	}
	return nil
}

// Fill types text into the located form control.
func (s *Session) Fill(target scenario.Locator, text string, timeout time.Duration) error {
	loc, err := s.locate(target)
	if err != nil {
		return err
	}
	if err := loc.Fill(text, playwright.LocatorFillOptions{Timeout: optionalMilliseconds(timeout)}); err != nil {
		return wrap(fmt.Sprintf("fill %s failed", target), err)
	}
	return nil
}

// Click clicks the located element.
func (s *Session) Click(target scenario.Locator, timeout time.Duration) error {
	loc, err := s.locate(target)
	if err != nil {
		return err
	}
	if err := loc.Click(playwright.LocatorClickOptions{Timeout: optionalMilliseconds(timeout)}); err != nil {
		return wrap(fmt.Sprintf("click %s failed", target), err)
	}
	return nil
}

// ExpectVisible waits for the located element to become visible.
func (s *Session) ExpectVisible(target scenario.Locator, timeout time.Duration) error {
	loc, err := s.locate(target)
	if err != nil {
		return err
	}
	err = s.expect(loc, timeout).ToBeVisible()
	if err != nil {
		return wrapAssertion(fmt.Sprintf("expected %s to be visible", target), err)
	}
	return nil
}

// ExpectClass waits for the located element's class attribute to equal class
// exactly.
func (s *Session) ExpectClass(target scenario.Locator, class string, timeout time.Duration) error {
	loc, err := s.locate(target)
	if err != nil {
		return err
	}
	err = s.expect(loc, timeout).ToHaveClass(class)
	if err != nil {
		return wrapAssertion(fmt.Sprintf("expected %s to have class %q", target, class), err)
	}
	return nil
}

// Screenshot writes a PNG of the viewport to path.
func (s *Session) Screenshot(path string) error {
	if _, err := s.page.Screenshot(playwright.PageScreenshotOptions{Path: &path}); err != nil {
		return wrap("screenshot failed", err)
	}
	return nil
}

// Content returns the page HTML, cleaned unless the launcher asked for raw
// markup.
func (s *Session) Content() (string, error) {
	raw, err := s.page.Content()
	if err != nil {
		return "", wrap("read page content failed", err)
	}
	if s.rawHTML {
		return raw, nil
	}

	cleaned, err := cleanHTML(raw, s.maxHTML)
	if err != nil {
		return "", err
	}
	if cleaned.Truncated {
		return cleaned.HTML + fmt.Sprintf("\n\n[HTML truncated at %d characters]", s.maxHTML), nil
	}
	return cleaned.HTML, nil
}

// Console returns every console entry captured so far.
func (s *Session) Console() []runner.ConsoleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]runner.ConsoleEntry(nil), s.console...)
}

// Close releases the page, context and browser in that order. Only the
// first call does any work.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := s.context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}

	if s.release != nil {
		s.release(s)
	}
	return errors.Join(errs...)
}

func (s *Session) locate(target scenario.Locator) (playwright.Locator, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return resolve(s.page, target), nil
}

func (s *Session) expect(loc playwright.Locator, timeout time.Duration) playwright.LocatorAssertions {
	if timeout == 0 {
		timeout = s.timeout
	}
	return playwright.NewPlaywrightAssertions(milliseconds(timeout)).Locator(loc)
}

// wrap marks Playwright timeouts with runner.ErrTimeout.
func wrap(msg string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w: %w", msg, runner.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// wrapAssertion marks every failed expectation as a timeout: assertions
// retry until their timeout elapses.
func wrapAssertion(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, runner.ErrTimeout, err)
}
