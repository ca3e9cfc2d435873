// Package report renders verification progress to the terminal and writes
// run reports to the output directory.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/entrhq/verify/pkg/runner"
	"github.com/entrhq/verify/pkg/scenario"
	"github.com/entrhq/verify/pkg/suite"
)

// Level represents console verbosity.
type Level int

const (
	// LevelQuiet shows failures, warnings, console errors and the summary
	LevelQuiet Level = iota
	// LevelNormal shows scenario and step progress (default)
	LevelNormal
	// LevelVerbose adds step timings, descriptions and intermediate screenshots
	LevelVerbose
	// LevelDebug adds run IDs and other internals
	LevelDebug
)

// ParseLevel converts a verbosity name to a Level, defaulting to normal.
func ParseLevel(level string) Level {
	switch level {
	case "quiet":
		return LevelQuiet
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	default:
		return LevelNormal
	}
}

// Console reports verification progress. It implements runner.Observer and
// suite.Observer.
type Console struct {
	level Level
	w     io.Writer
	st    styles
}

var (
	_ runner.Observer = (*Console)(nil)
	_ suite.Observer  = (*Console)(nil)
)

// NewConsole creates a console writing to w.
func NewConsole(w io.Writer, level Level) *Console {
	return &Console{level: level, w: w, st: newStyles(w)}
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.w, s)
}

// Header prints a prominent banner.
func (c *Console) Header(message string) {
	if c.level < LevelNormal {
		return
	}
	rule := c.st.header.Render(strings.Repeat("=", 70))
	fmt.Fprintf(c.w, "\n%s\n%s\n%s\n", rule, c.st.header.Render("  "+message), rule)
}

// Section prints a section divider.
func (c *Console) Section(title string) {
	if c.level < LevelNormal {
		return
	}
	fmt.Fprintln(c.w)
	c.println(c.st.section.Render("▶ " + title))
	c.println(c.st.muted.Render(strings.Repeat("─", 50)))
}

// Successf prints a success message with a checkmark.
func (c *Console) Successf(format string, args ...interface{}) {
	if c.level >= LevelNormal {
		c.println(c.st.success.Render("✓ " + fmt.Sprintf(format, args...)))
	}
}

// Infof prints an informational message.
func (c *Console) Infof(format string, args ...interface{}) {
	if c.level >= LevelNormal {
		c.println(c.st.info.Render(fmt.Sprintf(format, args...)))
	}
}

// Warningf prints a warning at every level.
func (c *Console) Warningf(format string, args ...interface{}) {
	c.println(c.st.warning.Render("⚠ Warning: " + fmt.Sprintf(format, args...)))
}

// Errorf prints an error at every level.
func (c *Console) Errorf(format string, args ...interface{}) {
	c.println(c.st.failure.Render("✗ Error: " + fmt.Sprintf(format, args...)))
}

// Verbosef prints detail shown in verbose mode.
func (c *Console) Verbosef(format string, args ...interface{}) {
	if c.level >= LevelVerbose {
		c.println(c.st.muted.Render("→ " + fmt.Sprintf(format, args...)))
	}
}

// Debugf prints internals shown in debug mode.
func (c *Console) Debugf(format string, args ...interface{}) {
	if c.level >= LevelDebug {
		c.println(c.st.muted.Render("[DEBUG] " + fmt.Sprintf(format, args...)))
	}
}

// ScenarioStarted opens a section for the scenario.
func (c *Console) ScenarioStarted(sc *scenario.Scenario, runID string) {
	c.Section("Scenario: " + sc.Name)
	if sc.Description != "" {
		c.Verbosef("%s", sc.Description)
	}
	c.Debugf("run id %s", runID)
}

// StepFinished prints one numbered step with its outcome.
func (c *Console) StepFinished(_ *scenario.Scenario, step runner.StepResult) {
	if c.level < LevelNormal {
		return
	}

	line := fmt.Sprintf("[%d] %s", step.Index+1, step.Description)
	if c.level >= LevelVerbose {
		line += c.st.muted.Render(fmt.Sprintf(" (%s)", step.Duration.Round(time.Millisecond)))
	}

	if step.Passed {
		fmt.Fprintf(c.w, "  %s %s\n", c.st.success.Render("✓"), c.st.step.Render(line))
		return
	}
	fmt.Fprintf(c.w, "  %s %s\n", c.st.failure.Render("✗"), c.st.step.Render(line))
	if step.Error != "" {
		c.println(c.st.muted.Render("      " + step.Error))
	}
}

// ScenarioFinished reports the outcome, the console logs and, when
// captured, the page HTML.
func (c *Console) ScenarioFinished(res *runner.Result, err error) {
	if res.Passed() {
		for _, shot := range res.Screenshots {
			c.Verbosef("Screenshot saved to %s", shot)
		}
		c.Successf("Screenshot saved to %s", res.Artifact)
	} else {
		if c.level < LevelNormal {
			// quiet mode never printed the section header
			c.println(c.st.failure.Render("✗ " + res.Scenario))
		}
		msg := res.Error
		if msg == "" && err != nil {
			msg = err.Error()
		}
		c.Errorf("%s", msg)
		if res.FailureScreenshot != "" {
			c.Infof("Failure screenshot saved to %s", res.FailureScreenshot)
		}
	}

	for _, w := range res.Warnings {
		c.Warningf("%s", w)
	}

	c.PrintConsoleLogs(res.Console)
	if res.HTML != "" {
		c.PrintHTML(res.HTML)
	}
}

// PrintConsoleLogs prints the captured warnings and errors. Quiet mode only
// prints when there is something to show.
func (c *Console) PrintConsoleLogs(entries []runner.ConsoleEntry) {
	if len(entries) == 0 && c.level < LevelNormal {
		return
	}

	fmt.Fprintln(c.w)
	c.println(c.st.banner.Render("--- CONSOLE LOGS ---"))
	if len(entries) == 0 {
		c.println(c.st.muted.Render("No console errors or warnings found."))
		return
	}
	for _, e := range entries {
		style := c.st.warning
		if e.Type != runner.ConsoleWarning {
			style = c.st.failure
		}
		c.println(style.Render(e.String()))
	}
}

// PrintHTML prints the page HTML captured by a scenario that asked for it.
func (c *Console) PrintHTML(html string) {
	fmt.Fprintln(c.w)
	c.println(c.st.banner.Render("--- PAGE HTML ---"))
	c.println(html)
}

// List prints the available scenarios and their descriptions.
func (c *Console) List(set map[string]*scenario.Scenario) {
	width := 0
	for name := range set {
		width = max(width, len(name))
	}
	for _, name := range scenario.Names(set) {
		sc := set[name]
		fmt.Fprintf(c.w, "%s  %s\n", c.st.step.Render(fmt.Sprintf("%-*s", width, name)), c.st.muted.Render(sc.Description))
	}
}

// Summary prints the final summary at every level.
func (c *Console) Summary(sum *suite.Summary, logPath string) {
	rule := c.st.header.Render(strings.Repeat("=", 70))
	fmt.Fprintf(c.w, "\n%s\n%s\n%s\n", rule, c.st.header.Render("  VERIFICATION SUMMARY"), rule)

	fmt.Fprint(c.w, "  Status: ")
	if sum.OK() {
		c.println(c.st.success.Render("✓ PASSED"))
	} else {
		c.println(c.st.failure.Render("✗ FAILED"))
	}
	fmt.Fprintf(c.w, "  Scenarios: %d passed, %d failed", sum.Passed, sum.Failed)
	if len(sum.Skipped) > 0 {
		fmt.Fprintf(c.w, ", %d skipped", len(sum.Skipped))
	}
	fmt.Fprintln(c.w)
	fmt.Fprintf(c.w, "  Duration: %s\n", sum.Duration.Round(time.Millisecond))

	if len(sum.Results) > 0 {
		fmt.Fprintln(c.w)
	}
	for _, res := range sum.Results {
		if res.Passed() {
			fmt.Fprintf(c.w, "    %s %s  %s\n", c.st.success.Render("✓"), res.Scenario, c.st.muted.Render(res.Artifact))
			continue
		}
		fmt.Fprintf(c.w, "    %s %s\n", c.st.failure.Render("✗"), res.Scenario)
		if c.level >= LevelVerbose && res.Error != "" {
			c.println(c.st.muted.Render("      " + res.Error))
		}
	}
	for _, name := range sum.Skipped {
		fmt.Fprintf(c.w, "    %s %s\n", c.st.warning.Render("-"), name)
	}

	if logPath != "" && c.level >= LevelVerbose {
		fmt.Fprintf(c.w, "\n  Log: %s\n", logPath)
	}
	c.println(rule)
}
