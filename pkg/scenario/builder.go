package scenario

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Builder assembles a Scenario step by step.
//
//	sc, err := scenario.New("login").
//	    Navigate("/auth", scenario.WaitLoad).
//	    Fill(scenario.ByLabel("Email"), "${email}").
//	    Click(scenario.ByRole("button", "Sign In").Exactly()).
//	    ExpectVisible(scenario.ByRole("heading", "${dashboard_heading}")).
//	    Artifact("verification.png").
//	    Build()
type Builder struct {
	sc Scenario
}

// New starts a scenario with the given name.
func New(name string) *Builder {
	return &Builder{sc: Scenario{Name: name}}
}

// Describe sets the scenario description.
func (b *Builder) Describe(desc string) *Builder {
	b.sc.Description = desc
	return b
}

// Navigate loads url, waiting for the given policy.
func (b *Builder) Navigate(url string, waitUntil WaitPolicy) *Builder {
	return b.add(Step{Kind: StepNavigate, URL: url, WaitUntil: waitUntil})
}

// Fill types text into the located form control.
func (b *Builder) Fill(target Locator, text string) *Builder {
	return b.add(Step{Kind: StepFill, Target: target, Text: text})
}

// Click clicks the located element.
func (b *Builder) Click(target Locator) *Builder {
	return b.add(Step{Kind: StepClick, Target: target})
}

// Wait pauses for a fixed duration.
func (b *Builder) Wait(d time.Duration) *Builder {
	return b.add(Step{Kind: StepWait, Duration: d})
}

// Screenshot captures an intermediate screenshot.
func (b *Builder) Screenshot(path string) *Builder {
	return b.add(Step{Kind: StepScreenshot, Path: path})
}

// ExpectVisible asserts the located element becomes visible.
func (b *Builder) ExpectVisible(target Locator) *Builder {
	return b.add(Step{Kind: StepExpectVisible, Target: target})
}

// ExpectClass asserts the located element's class attribute equals class.
func (b *Builder) ExpectClass(target Locator, class string) *Builder {
	return b.add(Step{Kind: StepExpectClass, Target: target, Text: class})
}

// Within sets a timeout override on the most recently added step.
func (b *Builder) Within(d time.Duration) *Builder {
	if n := len(b.sc.Steps); n > 0 {
		b.sc.Steps[n-1].Timeout = d
	}
	return b
}

// Artifact sets the final screenshot path.
func (b *Builder) Artifact(path string) *Builder {
	b.sc.Artifact = path
	return b
}

// Viewport overrides the browser viewport.
func (b *Builder) Viewport(width, height int) *Builder {
	b.sc.Viewport = &Viewport{Width: width, Height: height}
	return b
}

// InitialWait delays the first step after the page opens.
func (b *Builder) InitialWait(d time.Duration) *Builder {
	b.sc.InitialWait = d
	return b
}

// DumpHTML prints the page HTML once the run ends.
func (b *Builder) DumpHTML() *Builder {
	b.sc.DumpHTML = true
	return b
}

// Build validates and returns the scenario.
func (b *Builder) Build() (*Scenario, error) {
	sc := b.sc.clone()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// MustBuild is Build for statically known scenarios; it panics on error.
func (b *Builder) MustBuild() *Scenario {
	sc, err := b.Build()
	if err != nil {
		panic(err)
	}
	return sc
}

func (b *Builder) add(step Step) *Builder {
	b.sc.Steps = append(b.sc.Steps, step)
	return b
}

func (s *Scenario) clone() *Scenario {
	out := *s
	out.Steps = append([]Step(nil), s.Steps...)
	if s.Viewport != nil {
		vp := *s.Viewport
		out.Viewport = &vp
	}
	return &out
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandString(s string, mapping func(string) string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		return mapping(m[2 : len(m)-1])
	})
}

// Expand returns a copy of the scenario with ${name} placeholders replaced
// from vars and relative navigate URLs resolved against baseURL.
// Referencing an undefined variable is an error.
func (s *Scenario) Expand(baseURL string, vars map[string]string) (*Scenario, error) {
	var missing []string
	seen := make(map[string]bool)
	mapping := func(name string) string {
		v, ok := vars[name]
		if !ok {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			return "${" + name + "}"
		}
		return v
	}

	out := s.clone()
	out.Description = expandString(out.Description, mapping)
	out.Artifact = expandString(out.Artifact, mapping)
	for i := range out.Steps {
		st := &out.Steps[i]
		st.URL = expandString(st.URL, mapping)
		st.Text = expandString(st.Text, mapping)
		st.Path = expandString(st.Path, mapping)
		st.Target = st.Target.expand(mapping)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("scenario %q references undefined variables: %s", s.Name, strings.Join(missing, ", "))
	}

	for i := range out.Steps {
		st := &out.Steps[i]
		if st.Kind != StepNavigate {
			continue
		}
		resolved, err := ResolveURL(baseURL, st.URL)
		if err != nil {
			return nil, fmt.Errorf("scenario %q step %d: %w", s.Name, i+1, err)
		}
		st.URL = resolved
	}
	return out, nil
}

// ResolveURL resolves ref against base. Absolute refs are returned as-is.
func ResolveURL(base, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	if u.IsAbs() {
		return ref, nil
	}
	if base == "" {
		return "", errors.New("relative url " + ref + " needs a base url")
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	return b.ResolveReference(u).String(), nil
}
