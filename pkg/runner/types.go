package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/verify/pkg/scenario"
)

// ErrTimeout is wrapped by Page implementations when an element or
// expected state did not appear within the timeout.
var ErrTimeout = errors.New("timed out")

// PageOptions configures the single page opened for a run.
type PageOptions struct {
	Headless bool
	Viewport scenario.Viewport

	// Timeout is the page default for actions and assertions.
	Timeout time.Duration
}

// Browser opens pages. Each run opens exactly one.
type Browser interface {
	Open(ctx context.Context, opts PageOptions) (Page, error)
}

// Page is one browser page. A zero timeout means the page default.
type Page interface {
	Goto(url string, waitUntil scenario.WaitPolicy, timeout time.Duration) error
	Fill(target scenario.Locator, text string, timeout time.Duration) error
	Click(target scenario.Locator, timeout time.Duration) error
	ExpectVisible(target scenario.Locator, timeout time.Duration) error
	ExpectClass(target scenario.Locator, class string, timeout time.Duration) error
	Screenshot(path string) error
	Content() (string, error)

	// Console returns every console entry captured since the page opened.
	Console() []ConsoleEntry

	// Close releases the page and everything it owns. It must be safe to
	// call more than once.
	Close() error
}

// Console entry types that are reported after a run.
const (
	ConsoleError     = "error"
	ConsoleWarning   = "warning"
	ConsolePageError = "pageerror"
)

// ConsoleEntry is one message emitted by the page.
type ConsoleEntry struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// String formats the entry as [TYPE] text.
func (e ConsoleEntry) String() string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(e.Type), e.Text)
}

// FilterConsole keeps warnings, errors and uncaught page errors.
func FilterConsole(entries []ConsoleEntry) []ConsoleEntry {
	var out []ConsoleEntry
	for _, e := range entries {
		switch e.Type {
		case ConsoleError, ConsoleWarning, ConsolePageError:
			out = append(out, e)
		}
	}
	return out
}

// Status is the outcome of a run.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// StepResult records one executed step.
type StepResult struct {
	Index       int               `json:"index"`
	Kind        scenario.StepKind `json:"kind"`
	Description string            `json:"description"`
	Passed      bool              `json:"passed"`
	Error       string            `json:"error,omitempty"`
	Duration    time.Duration     `json:"duration"`
}

// Result is the outcome of running one scenario.
type Result struct {
	RunID       string        `json:"run_id"`
	Scenario    string        `json:"scenario"`
	Description string        `json:"description,omitempty"`
	Status      Status        `json:"status"`
	Error       string        `json:"error,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	Steps       []StepResult  `json:"steps"`

	// Artifact is the success screenshot; empty unless Status is passed.
	Artifact string `json:"artifact,omitempty"`

	// Screenshots are intermediate captures taken by screenshot steps.
	Screenshots []string `json:"screenshots,omitempty"`

	// FailureScreenshot shows the page when the failing step gave up.
	FailureScreenshot string `json:"failure_screenshot,omitempty"`

	// Console holds the warnings and errors the page logged.
	Console []ConsoleEntry `json:"console,omitempty"`

	// HTML is the page content when the scenario asked for it.
	HTML string `json:"-"`

	Warnings []string `json:"warnings,omitempty"`
}

// Passed reports whether every step succeeded and the artifact was written.
func (r *Result) Passed() bool {
	return r.Status == StatusPassed
}

// ErrorKind classifies why a run failed.
type ErrorKind string

const (
	KindLaunch     ErrorKind = "launch"
	KindNavigation ErrorKind = "navigation"
	KindLocator    ErrorKind = "locator"
	KindAssertion  ErrorKind = "assertion"
	KindArtifact   ErrorKind = "artifact"
	KindCanceled   ErrorKind = "canceled"
)

// StepError is returned when a run fails. Index is -1 when the failure
// happened before the first step.
type StepError struct {
	Scenario string
	Index    int
	Step     scenario.Step
	Kind     ErrorKind
	Err      error
}

func (e *StepError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("scenario %q: %s failed: %v", e.Scenario, e.Kind, e.Err)
	}
	return fmt.Sprintf("scenario %q step %d (%s): %s failed: %v", e.Scenario, e.Index+1, e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a timeout.
func (e *StepError) Timeout() bool {
	return errors.Is(e.Err, ErrTimeout) || errors.Is(e.Err, context.DeadlineExceeded)
}
