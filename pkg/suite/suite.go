// Package suite loads, selects and runs scenarios one after another and
// aggregates their results.
package suite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/verify/pkg/runner"
	"github.com/entrhq/verify/pkg/scenario"
)

// ScenarioRunner runs a single scenario. *runner.Runner implements it.
type ScenarioRunner interface {
	Run(ctx context.Context, sc *scenario.Scenario) (*runner.Result, error)
}

// Observer is told when each scenario finishes.
type Observer interface {
	ScenarioFinished(res *runner.Result, err error)
}

// Logger is the subset of logging.Logger the suite writes to.
type Logger interface {
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// Options configures a Suite.
type Options struct {
	// BaseURL resolves relative navigate URLs.
	BaseURL string

	// Vars are the ${name} substitutions applied before each run.
	Vars map[string]string

	// Timeout bounds each scenario run. Zero disables it. The deadline is
	// checked between steps and during waits; a step already blocked in the
	// browser runs until its own action timeout expires.
	Timeout time.Duration
}

// Suite runs scenarios sequentially. There is no retry and no parallelism.
type Suite struct {
	runner   ScenarioRunner
	opts     Options
	observer Observer
	log      Logger
}

// New creates a suite. observer and log may be nil.
func New(r ScenarioRunner, opts Options, observer Observer, log Logger) *Suite {
	return &Suite{runner: r, opts: opts, observer: observer, log: log}
}

// Run executes every scenario in order and returns the summary. A canceled
// context stops the suite after the current scenario; the scenarios not
// started are listed in Summary.Skipped.
func (s *Suite) Run(ctx context.Context, scenarios []*scenario.Scenario) *Summary {
	sum := &Summary{StartTime: time.Now()}
	defer func() {
		sum.EndTime = time.Now()
		sum.Duration = sum.EndTime.Sub(sum.StartTime)
	}()

	for i, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			for _, rest := range scenarios[i:] {
				sum.Skipped = append(sum.Skipped, rest.Name)
			}
			s.warnf("suite interrupted, skipping %d scenario(s): %v", len(scenarios)-i, err)
			break
		}

		res, err := s.runOne(ctx, sc)
		sum.add(res)
		if s.observer != nil {
			s.observer.ScenarioFinished(res, err)
		}
	}
	return sum
}

func (s *Suite) runOne(ctx context.Context, sc *scenario.Scenario) (*runner.Result, error) {
	expanded, err := sc.Expand(s.opts.BaseURL, s.opts.Vars)
	if err != nil {
		return rejected(sc, err), err
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	s.infof("running scenario %q", sc.Name)
	res, err := s.runner.Run(ctx, expanded)
	if res == nil {
		res = rejected(sc, err)
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		s.warnf("scenario %q exceeded its %s timeout", sc.Name, s.opts.Timeout)
	}
	return res, err
}

// rejected records a scenario that never reached the browser.
func rejected(sc *scenario.Scenario, err error) *runner.Result {
	now := time.Now()
	return &runner.Result{
		Scenario:    sc.Name,
		Description: sc.Description,
		Status:      runner.StatusFailed,
		Error:       fmt.Sprintf("scenario %q: %v", sc.Name, err),
		StartTime:   now,
		EndTime:     now,
	}
}

func (s *Suite) infof(format string, v ...interface{}) {
	if s.log != nil {
		s.log.Infof(format, v...)
	}
}

func (s *Suite) warnf(format string, v ...interface{}) {
	if s.log != nil {
		s.log.Warnf(format, v...)
	}
}

// Summary aggregates the results of a suite run.
type Summary struct {
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Duration  time.Duration    `json:"duration"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Skipped   []string         `json:"skipped,omitempty"`
	Results   []*runner.Result `json:"results"`
}

func (s *Summary) add(res *runner.Result) {
	s.Results = append(s.Results, res)
	if res.Passed() {
		s.Passed++
	} else {
		s.Failed++
	}
}

// Total is the number of scenarios that ran.
func (s *Summary) Total() int {
	return len(s.Results)
}

// OK reports whether every selected scenario ran and passed.
func (s *Summary) OK() bool {
	return s.Failed == 0 && len(s.Skipped) == 0 && len(s.Results) > 0
}

// ExitCode is 0 when OK and 1 otherwise.
func (s *Summary) ExitCode() int {
	if s.OK() {
		return 0
	}
	return 1
}
