package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/entrhq/verify/pkg/scenario"
)

// fakePage simulates a rendered application. Elements are keyed by
// Locator.String().
type fakePage struct {
	mu sync.Mutex

	unreachable map[string]bool
	missing     map[string]bool
	visible     map[string]bool
	classes     map[string]string
	console     []ConsoleEntry
	content     string
	closeErr    error

	calls    []string
	timeouts map[string]time.Duration
	filled   map[string]string
	shots    []string
	closed   int
}

func newFakePage() *fakePage {
	return &fakePage{
		unreachable: make(map[string]bool),
		missing:     make(map[string]bool),
		visible:     make(map[string]bool),
		classes:     make(map[string]string),
		timeouts:    make(map[string]time.Duration),
		filled:      make(map[string]string),
	}
}

func (p *fakePage) record(call string, timeout time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	p.timeouts[call] = timeout
}

func (p *fakePage) Goto(url string, waitUntil scenario.WaitPolicy, timeout time.Duration) error {
	p.record("goto "+url+" "+string(waitUntil), timeout)
	if p.unreachable[url] {
		return fmt.Errorf("navigation failed: net::ERR_CONNECTION_REFUSED at %s", url)
	}
	return nil
}

func (p *fakePage) Fill(target scenario.Locator, text string, timeout time.Duration) error {
	p.record("fill "+target.String(), timeout)
	if p.missing[target.String()] {
		return fmt.Errorf("fill failed: %w: waiting for %s", ErrTimeout, target)
	}
	p.mu.Lock()
	p.filled[target.String()] = text
	p.mu.Unlock()
	return nil
}

func (p *fakePage) Click(target scenario.Locator, timeout time.Duration) error {
	p.record("click "+target.String(), timeout)
	if p.missing[target.String()] {
		return fmt.Errorf("click failed: %w: waiting for %s", ErrTimeout, target)
	}
	return nil
}

func (p *fakePage) ExpectVisible(target scenario.Locator, timeout time.Duration) error {
	p.record("visible "+target.String(), timeout)
	if !p.visible[target.String()] {
		return fmt.Errorf("%w: expected %s to be visible", ErrTimeout, target)
	}
	return nil
}

func (p *fakePage) ExpectClass(target scenario.Locator, class string, timeout time.Duration) error {
	p.record("class "+target.String(), timeout)
	if got := p.classes[target.String()]; got != class {
		return fmt.Errorf("%w: expected class %q, got %q", ErrTimeout, class, got)
	}
	return nil
}

func (p *fakePage) Screenshot(path string) error {
	p.mu.Lock()
	p.shots = append(p.shots, path)
	p.mu.Unlock()
	return os.WriteFile(path, []byte("\x89PNG fake"), 0600)
}

func (p *fakePage) Content() (string, error) {
	return p.content, nil
}

func (p *fakePage) Console() []ConsoleEntry {
	return append([]ConsoleEntry(nil), p.console...)
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return p.closeErr
}

type fakeBrowser struct {
	page    *fakePage
	openErr error
	opened  []PageOptions
}

func (b *fakeBrowser) Open(_ context.Context, opts PageOptions) (Page, error) {
	b.opened = append(b.opened, opts)
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.page, nil
}

var errLaunch = errors.New("executable doesn't exist")

// recordingObserver captures observer callbacks.
type recordingObserver struct {
	started []string
	steps   []StepResult
}

func (o *recordingObserver) ScenarioStarted(sc *scenario.Scenario, runID string) {
	o.started = append(o.started, sc.Name+" "+runID)
}

func (o *recordingObserver) StepFinished(_ *scenario.Scenario, step StepResult) {
	o.steps = append(o.steps, step)
}
