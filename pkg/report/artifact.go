package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/verify/pkg/suite"
)

// Report file names inside the output directory.
const (
	RunJSONFile     = "run.json"
	SummaryMarkdown = "summary.md"
)

// ArtifactWriter writes run reports next to the screenshots.
type ArtifactWriter struct {
	outputDir string
	json      bool
	markdown  bool
}

// NewArtifactWriter creates a writer for the enabled formats.
func NewArtifactWriter(outputDir string, writeJSON, writeMarkdown bool) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
		json:      writeJSON,
		markdown:  writeMarkdown,
	}
}

// WriteAll writes every enabled report and returns the paths written.
func (w *ArtifactWriter) WriteAll(sum *suite.Summary) ([]string, error) {
	if !w.json && !w.markdown {
		return nil, nil
	}
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	if w.json {
		path, err := w.WriteRunJSON(sum)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if w.markdown {
		path, err := w.WriteSummaryMarkdown(sum)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteRunJSON writes the full summary as JSON.
func (w *ArtifactWriter) WriteRunJSON(sum *suite.Summary) (string, error) {
	path := filepath.Join(w.outputDir, RunJSONFile)

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write run JSON: %w", err)
	}
	return path, nil
}

// WriteSummaryMarkdown writes a human-readable summary.
func (w *ArtifactWriter) WriteSummaryMarkdown(sum *suite.Summary) (string, error) {
	path := filepath.Join(w.outputDir, SummaryMarkdown)

	var md strings.Builder
	md.WriteString("# Verification Summary\n\n")
	status := "✅ passed"
	if !sum.OK() {
		status = "❌ failed"
	}
	fmt.Fprintf(&md, "**Status:** %s\n\n", status)
	fmt.Fprintf(&md, "**Started:** %s\n\n", sum.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&md, "**Duration:** %s\n\n", sum.Duration.Round(time.Millisecond))
	fmt.Fprintf(&md, "**Scenarios:** %d passed, %d failed, %d skipped\n\n", sum.Passed, sum.Failed, len(sum.Skipped))

	md.WriteString("## Scenarios\n\n")
	md.WriteString("| Scenario | Status | Duration | Screenshot |\n")
	md.WriteString("| --- | --- | --- | --- |\n")
	for _, res := range sum.Results {
		shot := res.Artifact
		if shot == "" {
			shot = res.FailureScreenshot
		}
		fmt.Fprintf(&md, "| %s | %s | %s | %s |\n", res.Scenario, res.Status, res.Duration.Round(time.Millisecond), rel(w.outputDir, shot))
	}
	for _, name := range sum.Skipped {
		fmt.Fprintf(&md, "| %s | skipped | | |\n", name)
	}
	md.WriteString("\n")

	var failures bool
	for _, res := range sum.Results {
		if res.Passed() {
			continue
		}
		if !failures {
			md.WriteString("## Failures\n\n")
			failures = true
		}
		fmt.Fprintf(&md, "### %s\n\n", res.Scenario)
		fmt.Fprintf(&md, "```\n%s\n```\n\n", res.Error)
	}

	var logs bool
	for _, res := range sum.Results {
		if len(res.Console) == 0 {
			continue
		}
		if !logs {
			md.WriteString("## Console Logs\n\n")
			logs = true
		}
		fmt.Fprintf(&md, "**%s**\n\n", res.Scenario)
		for _, e := range res.Console {
			fmt.Fprintf(&md, "- `%s`\n", e)
		}
		md.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(md.String()), 0600); err != nil {
		return "", fmt.Errorf("failed to write summary markdown: %w", err)
	}
	return path, nil
}

// rel makes screenshot links relative to the report.
func rel(base, path string) string {
	if path == "" {
		return ""
	}
	if r, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}
