package scenario

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a scenario suite.
type File struct {
	Scenarios []*Scenario `yaml:"scenarios"`
}

// LoadFile reads and validates the scenarios declared in a YAML file.
func LoadFile(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenarios, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// Parse decodes and validates YAML scenario definitions.
func Parse(data []byte) ([]*Scenario, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	for _, sc := range f.Scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Scenarios, nil
}

type yamlScenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Artifact    string        `yaml:"artifact"`
	Viewport    *Viewport     `yaml:"viewport"`
	InitialWait time.Duration `yaml:"initial_wait"`
	DumpHTML    bool          `yaml:"dump_html"`
	Steps       []Step        `yaml:"steps"`
}

// UnmarshalYAML decodes the scenario layout used by suite files.
func (s *Scenario) UnmarshalYAML(node *yaml.Node) error {
	var raw yamlScenario
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = Scenario{
		Name:        raw.Name,
		Description: raw.Description,
		Steps:       raw.Steps,
		Artifact:    raw.Artifact,
		Viewport:    raw.Viewport,
		InitialWait: raw.InitialWait,
		DumpHTML:    raw.DumpHTML,
	}
	return nil
}

type yamlLocator struct {
	Label       string `yaml:"label"`
	Role        string `yaml:"role"`
	Name        string `yaml:"name"`
	TestID      string `yaml:"test_id"`
	Text        string `yaml:"text"`
	Placeholder string `yaml:"placeholder"`
	CSS         string `yaml:"css"`
	Exact       bool   `yaml:"exact"`
	First       bool   `yaml:"first"`
	Nth         *int   `yaml:"nth"`
}

func (y *yamlLocator) locator() (Locator, error) {
	var candidates []Locator
	if y.Label != "" {
		candidates = append(candidates, ByLabel(y.Label))
	}
	if y.Role != "" {
		candidates = append(candidates, ByRole(y.Role, y.Name))
	}
	if y.TestID != "" {
		candidates = append(candidates, ByTestID(y.TestID))
	}
	if y.Text != "" {
		candidates = append(candidates, ByText(y.Text))
	}
	if y.Placeholder != "" {
		candidates = append(candidates, ByPlaceholder(y.Placeholder))
	}
	if y.CSS != "" {
		candidates = append(candidates, CSS(y.CSS))
	}
	if len(candidates) != 1 {
		return Locator{}, fmt.Errorf("locator must set exactly one of label, role, test_id, text, placeholder, css (got %d)", len(candidates))
	}

	loc := candidates[0]
	loc.Exact = y.Exact
	switch {
	case y.Nth != nil:
		loc.Nth = *y.Nth
	case y.First:
		loc.Nth = 0
	}
	return loc, nil
}

type yamlStep struct {
	Navigate      string       `yaml:"navigate"`
	WaitUntil     WaitPolicy   `yaml:"wait_until"`
	Fill          *yamlLocator `yaml:"fill"`
	Text          string       `yaml:"text"`
	Click         *yamlLocator `yaml:"click"`
	Wait          *string      `yaml:"wait"`
	Screenshot    string       `yaml:"screenshot"`
	ExpectVisible *yamlLocator `yaml:"expect_visible"`
	ExpectClass   *yamlLocator `yaml:"expect_class"`
	Class         string       `yaml:"class"`
	Timeout       string       `yaml:"timeout"`
}

// UnmarshalYAML decodes a step written as a single-kind mapping, for
// example {click: {role: button, name: Sign In}}.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw yamlStep
	if err := node.Decode(&raw); err != nil {
		return err
	}

	var kinds []StepKind
	var step Step
	setTarget := func(kind StepKind, y *yamlLocator) error {
		kinds = append(kinds, kind)
		loc, err := y.locator()
		if err != nil {
			return fmt.Errorf("line %d: %s: %w", node.Line, kind, err)
		}
		step.Kind = kind
		step.Target = loc
		return nil
	}

	if raw.Navigate != "" {
		kinds = append(kinds, StepNavigate)
		step.Kind = StepNavigate
		step.URL = raw.Navigate
		step.WaitUntil = raw.WaitUntil
	}
	if raw.Fill != nil {
		if err := setTarget(StepFill, raw.Fill); err != nil {
			return err
		}
		step.Text = raw.Text
	}
	if raw.Click != nil {
		if err := setTarget(StepClick, raw.Click); err != nil {
			return err
		}
	}
	if raw.Wait != nil {
		kinds = append(kinds, StepWait)
		d, err := time.ParseDuration(*raw.Wait)
		if err != nil {
			return fmt.Errorf("line %d: invalid wait duration: %w", node.Line, err)
		}
		step.Kind = StepWait
		step.Duration = d
	}
	if raw.Screenshot != "" {
		kinds = append(kinds, StepScreenshot)
		step.Kind = StepScreenshot
		step.Path = raw.Screenshot
	}
	if raw.ExpectVisible != nil {
		if err := setTarget(StepExpectVisible, raw.ExpectVisible); err != nil {
			return err
		}
	}
	if raw.ExpectClass != nil {
		if err := setTarget(StepExpectClass, raw.ExpectClass); err != nil {
			return err
		}
		step.Text = raw.Class
	}

	if len(kinds) != 1 {
		return fmt.Errorf("line %d: step must have exactly one action or assertion, got %v", node.Line, kinds)
	}

	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("line %d: invalid timeout: %w", node.Line, err)
		}
		step.Timeout = d
	}

	*s = step
	return nil
}
