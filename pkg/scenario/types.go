package scenario

import (
	"fmt"
	"time"
)

// StepKind identifies the type of a scenario step.
type StepKind string

const (
	// StepNavigate loads a URL in the page.
	StepNavigate StepKind = "navigate"
	// StepFill types text into a form control.
	StepFill StepKind = "fill"
	// StepClick clicks an element.
	StepClick StepKind = "click"
	// StepWait pauses for a fixed duration.
	StepWait StepKind = "wait"
	// StepScreenshot captures an intermediate screenshot.
	StepScreenshot StepKind = "screenshot"
	// StepExpectVisible polls until an element is visible.
	StepExpectVisible StepKind = "expect_visible"
	// StepExpectClass polls until an element's class attribute equals a value.
	StepExpectClass StepKind = "expect_class"
)

// WaitPolicy specifies when a navigation is considered complete.
type WaitPolicy string

const (
	WaitLoad             WaitPolicy = "load"
	WaitDOMContentLoaded WaitPolicy = "domcontentloaded"
	WaitNetworkIdle      WaitPolicy = "networkidle"
	WaitCommit           WaitPolicy = "commit"
)

// Valid reports whether the policy is known. The empty policy means the
// driver default.
func (p WaitPolicy) Valid() bool {
	switch p {
	case "", WaitLoad, WaitDOMContentLoaded, WaitNetworkIdle, WaitCommit:
		return true
	}
	return false
}

// Step is one action or assertion. Steps run in slice order.
type Step struct {
	Kind StepKind `json:"kind"`

	// URL and WaitUntil apply to navigate steps.
	URL       string     `json:"url,omitempty"`
	WaitUntil WaitPolicy `json:"wait_until,omitempty"`

	// Target is the element for fill, click and assertion steps.
	Target Locator `json:"target,omitempty"`

	// Text is the fill value or, for expect_class, the expected class.
	Text string `json:"text,omitempty"`

	// Duration is the wait length for wait steps.
	Duration time.Duration `json:"duration,omitempty"`

	// Path is the output file for screenshot steps.
	Path string `json:"path,omitempty"`

	// Timeout overrides the default timeout for this step when non-zero.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// IsAssertion reports whether the step is a post-condition check.
func (s Step) IsAssertion() bool {
	return s.Kind == StepExpectVisible || s.Kind == StepExpectClass
}

// Validate checks that the step has what its kind needs.
func (s Step) Validate() error {
	if s.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	switch s.Kind {
	case StepNavigate:
		if s.URL == "" {
			return fmt.Errorf("navigate requires a url")
		}
		if !s.WaitUntil.Valid() {
			return fmt.Errorf("invalid wait_until value: %s (must be 'load', 'domcontentloaded', 'networkidle', or 'commit')", s.WaitUntil)
		}
	case StepFill:
		// empty text is allowed and clears the field
		return s.Target.Validate()
	case StepClick, StepExpectVisible:
		return s.Target.Validate()
	case StepExpectClass:
		if s.Text == "" {
			return fmt.Errorf("expect_class requires a class name")
		}
		return s.Target.Validate()
	case StepWait:
		if s.Duration < 0 {
			return fmt.Errorf("wait duration cannot be negative")
		}
	case StepScreenshot:
		if s.Path == "" {
			return fmt.Errorf("screenshot requires a path")
		}
	default:
		return fmt.Errorf("unknown step kind: %q", s.Kind)
	}
	return nil
}

// String describes the step in one line.
func (s Step) String() string {
	switch s.Kind {
	case StepNavigate:
		if s.WaitUntil != "" {
			return fmt.Sprintf("navigate to %s (wait until %s)", s.URL, s.WaitUntil)
		}
		return fmt.Sprintf("navigate to %s", s.URL)
	case StepFill:
		return fmt.Sprintf("fill %s with %d characters", s.Target, len(s.Text))
	case StepClick:
		return fmt.Sprintf("click %s", s.Target)
	case StepWait:
		return fmt.Sprintf("wait %s", s.Duration)
	case StepScreenshot:
		return fmt.Sprintf("screenshot %s", s.Path)
	case StepExpectVisible:
		return fmt.Sprintf("expect %s to be visible", s.Target)
	case StepExpectClass:
		return fmt.Sprintf("expect %s to have class %q", s.Target, s.Text)
	}
	return string(s.Kind)
}

// Viewport is the browser viewport size in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Validate keeps viewport dimensions in a sane range.
func (v Viewport) Validate() error {
	if v.Width < 100 || v.Width > 5000 {
		return fmt.Errorf("viewport width must be between 100 and 5000 pixels")
	}
	if v.Height < 100 || v.Height > 5000 {
		return fmt.Errorf("viewport height must be between 100 and 5000 pixels")
	}
	return nil
}

// Scenario is one verification run: ordered steps plus the screenshot
// written once every step has passed.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps"`

	// Artifact is the screenshot path written on success.
	Artifact string `json:"artifact"`

	// Viewport overrides the configured viewport when set.
	Viewport *Viewport `json:"viewport,omitempty"`

	// InitialWait delays the first step after the page opens.
	InitialWait time.Duration `json:"initial_wait,omitempty"`

	// DumpHTML prints the page HTML after the run.
	DumpHTML bool `json:"dump_html,omitempty"`
}

// Validate checks the scenario and every step.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	if s.Artifact == "" {
		return fmt.Errorf("scenario %q requires an artifact path", s.Name)
	}
	if s.InitialWait < 0 {
		return fmt.Errorf("scenario %q: initial wait cannot be negative", s.Name)
	}
	if s.Viewport != nil {
		if err := s.Viewport.Validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}
	for i, step := range s.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("scenario %q step %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}

// Assertions returns the assertion steps in order.
func (s *Scenario) Assertions() []Step {
	var out []Step
	for _, step := range s.Steps {
		if step.IsAssertion() {
			out = append(out, step)
		}
	}
	return out
}
