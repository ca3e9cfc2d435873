// Package runner executes one scenario end to end against a single
// browser page and reports the outcome.
//
// A run opens exactly one page, executes the scenario steps in order,
// writes the success screenshot only after every step has passed, and
// closes the page on every exit path. The first failing step ends the run;
// there is no retry and no partial success.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/verify/pkg/scenario"
)

// Options configures a Runner.
type Options struct {
	// OutputDir anchors relative artifact and screenshot paths.
	OutputDir string

	Headless bool
	Viewport scenario.Viewport

	// Timeout is the default for actions and assertions. Browser calls do
	// not take a context, so cancellation is noticed only once the current
	// call returns.
	Timeout time.Duration

	// WaitUntil is used by navigate steps that do not set a policy.
	WaitUntil scenario.WaitPolicy

	// FailureScreenshots captures the page when a step fails.
	FailureScreenshots bool
}

// Logger is the subset of logging.Logger the runner writes to.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// Observer receives progress as a run executes.
type Observer interface {
	ScenarioStarted(sc *scenario.Scenario, runID string)
	StepFinished(sc *scenario.Scenario, step StepResult)
}

// Option configures optional Runner collaborators.
type Option func(*Runner)

// WithLogger sets the debug logger.
func WithLogger(l Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// Runner executes scenarios one at a time.
type Runner struct {
	browser  Browser
	opts     Options
	log      Logger
	observer Observer
}

// New creates a runner that opens pages from b.
func New(b Browser, opts Options, options ...Option) *Runner {
	r := &Runner{
		browser: b,
		opts:    opts,
		log:     nopLogger{},
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run executes sc. The returned Result is non-nil for every valid
// scenario; on failure the error is a *StepError.
func (r *Runner) Run(ctx context.Context, sc *scenario.Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	res := &Result{
		RunID:       uuid.NewString(),
		Scenario:    sc.Name,
		Description: sc.Description,
		StartTime:   time.Now(),
	}
	defer func() {
		res.EndTime = time.Now()
		res.Duration = res.EndTime.Sub(res.StartTime)
	}()

	if r.observer != nil {
		r.observer.ScenarioStarted(sc, res.RunID)
	}
	r.log.Infof("run %s: starting scenario %q (%d steps)", res.RunID, sc.Name, len(sc.Steps))

	page, err := r.browser.Open(ctx, r.pageOptions(sc))
	if err != nil {
		return res, r.fail(res, &StepError{Scenario: sc.Name, Index: -1, Kind: KindLaunch, Err: err})
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			r.log.Warnf("run %s: closing page: %v", res.RunID, cerr)
			res.Warnings = append(res.Warnings, fmt.Sprintf("close page: %v", cerr))
		}
	}()
	defer r.collect(res, page, sc)

	if err := sleep(ctx, sc.InitialWait); err != nil {
		return res, r.fail(res, &StepError{Scenario: sc.Name, Index: -1, Kind: KindCanceled, Err: err})
	}

	for i, step := range sc.Steps {
		if err := r.runStep(ctx, res, page, sc, i, step); err != nil {
			r.captureFailure(res, page, sc)
			return res, r.fail(res, err)
		}
	}

	artifact := r.resolve(sc.Artifact)
	if err := screenshot(page, artifact); err != nil {
		return res, r.fail(res, &StepError{Scenario: sc.Name, Index: -1, Kind: KindArtifact, Err: err})
	}
	res.Artifact = artifact
	res.Status = StatusPassed
	r.log.Infof("run %s: scenario %q passed, artifact %s", res.RunID, sc.Name, artifact)
	return res, nil
}

func (r *Runner) runStep(ctx context.Context, res *Result, page Page, sc *scenario.Scenario, i int, step scenario.Step) *StepError {
	sr := StepResult{Index: i, Kind: step.Kind, Description: step.String()}
	start := time.Now()

	var err error
	if err = ctx.Err(); err == nil {
		r.log.Debugf("run %s: step %d: %s", res.RunID, i+1, sr.Description)
		err = r.exec(ctx, res, page, step)
	}

	sr.Duration = time.Since(start)
	sr.Passed = err == nil
	if err != nil {
		sr.Error = err.Error()
	}
	res.Steps = append(res.Steps, sr)
	if r.observer != nil {
		r.observer.StepFinished(sc, sr)
	}

	if err == nil {
		return nil
	}
	return &StepError{Scenario: sc.Name, Index: i, Step: step, Kind: classify(ctx, step), Err: err}
}

func (r *Runner) exec(ctx context.Context, res *Result, page Page, step scenario.Step) error {
	timeout := step.Timeout
	if timeout == 0 {
		timeout = r.opts.Timeout
	}

	switch step.Kind {
	case scenario.StepNavigate:
		waitUntil := step.WaitUntil
		if waitUntil == "" {
			waitUntil = r.opts.WaitUntil
		}
		return page.Goto(step.URL, waitUntil, step.Timeout)
	case scenario.StepFill:
		return page.Fill(step.Target, step.Text, timeout)
	case scenario.StepClick:
		return page.Click(step.Target, timeout)
	case scenario.StepWait:
		return sleep(ctx, step.Duration)
	case scenario.StepScreenshot:
		path := r.resolve(step.Path)
		if err := screenshot(page, path); err != nil {
			return err
		}
		res.Screenshots = append(res.Screenshots, path)
		return nil
	case scenario.StepExpectVisible:
		return page.ExpectVisible(step.Target, timeout)
	case scenario.StepExpectClass:
		return page.ExpectClass(step.Target, step.Text, timeout)
	}
	return fmt.Errorf("unsupported step kind: %s", step.Kind)
}

// collect gathers console output and, when requested, the page HTML.
// It runs before the page is closed.
func (r *Runner) collect(res *Result, page Page, sc *scenario.Scenario) {
	res.Console = FilterConsole(page.Console())
	for _, e := range res.Console {
		r.log.Debugf("run %s: console %s", res.RunID, e)
	}

	if !sc.DumpHTML {
		return
	}
	html, err := page.Content()
	if err != nil {
		r.log.Warnf("run %s: reading page content: %v", res.RunID, err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("page content: %v", err))
		return
	}
	res.HTML = html
}

func (r *Runner) captureFailure(res *Result, page Page, sc *scenario.Scenario) {
	if !r.opts.FailureScreenshots {
		return
	}
	path := failurePath(r.resolve(sc.Artifact))
	if err := screenshot(page, path); err != nil {
		r.log.Warnf("run %s: failure screenshot: %v", res.RunID, err)
		return
	}
	res.FailureScreenshot = path
}

func (r *Runner) fail(res *Result, err *StepError) error {
	res.Status = StatusFailed
	res.Error = err.Error()
	r.log.Errorf("run %s: %v", res.RunID, err)
	return err
}

func (r *Runner) pageOptions(sc *scenario.Scenario) PageOptions {
	opts := PageOptions{
		Headless: r.opts.Headless,
		Viewport: r.opts.Viewport,
		Timeout:  r.opts.Timeout,
	}
	if sc.Viewport != nil {
		opts.Viewport = *sc.Viewport
	}
	return opts
}

func (r *Runner) resolve(path string) string {
	if filepath.IsAbs(path) || r.opts.OutputDir == "" {
		return path
	}
	return filepath.Join(r.opts.OutputDir, path)
}

func classify(ctx context.Context, step scenario.Step) ErrorKind {
	if ctx.Err() != nil {
		return KindCanceled
	}
	switch step.Kind {
	case scenario.StepNavigate:
		return KindNavigation
	case scenario.StepFill, scenario.StepClick:
		return KindLocator
	case scenario.StepExpectVisible, scenario.StepExpectClass:
		return KindAssertion
	case scenario.StepScreenshot:
		return KindArtifact
	}
	return KindCanceled
}

func screenshot(page Page, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}
	if err := page.Screenshot(path); err != nil {
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return nil
}

// failurePath turns shots/login.png into shots/login.failed.png.
func failurePath(artifact string) string {
	ext := filepath.Ext(artifact)
	return strings.TrimSuffix(artifact, ext) + ".failed" + ext
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
