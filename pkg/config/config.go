// Package config holds the settings shared by every verification run:
// where the target application lives, which credentials to sign in with,
// how the browser is launched, and where artifacts and logs go.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/verify/pkg/scenario"
)

// Config represents the configuration for a verification session.
type Config struct {
	// BaseURL is the target application; relative scenario URLs resolve against it.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Credentials used by the sign-in scenarios
	Credentials Credentials `yaml:"credentials" json:"credentials"`

	// DashboardHeading is the heading expected after signing in.
	DashboardHeading string `yaml:"dashboard_heading" json:"dashboard_heading"`

	// Variables are extra ${name} substitutions for scenario files.
	Variables map[string]string `yaml:"variables" json:"variables,omitempty"`

	// Browser launch settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// ScenarioFiles are YAML suites loaded next to the built-in scenarios.
	ScenarioFiles []string `yaml:"scenario_files" json:"scenario_files,omitempty"`

	// Timeout bounds a single scenario run end to end. Zero disables it.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Credentials for the test account.
type Credentials struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"-"`
}

// BrowserConfig controls how Chromium is launched.
type BrowserConfig struct {
	Headless bool              `yaml:"headless" json:"headless"`
	Viewport scenario.Viewport `yaml:"viewport" json:"viewport"`

	// Timeout is the default for locator actions and assertions.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// WaitUntil is the navigation wait policy when a step does not set one.
	WaitUntil scenario.WaitPolicy `yaml:"wait_until" json:"wait_until"`

	// SkipInstall skips downloading the driver and browsers on startup.
	SkipInstall bool `yaml:"skip_install" json:"skip_install"`

	// RawHTML dumps page HTML as served instead of the cleaned outline.
	RawHTML bool `yaml:"raw_html" json:"raw_html"`
}

// ArtifactConfig defines where screenshots and reports are written.
type ArtifactConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Report formats
	JSON     bool `yaml:"json" json:"json"`
	Markdown bool `yaml:"markdown" json:"markdown"`

	// FailureScreenshots captures the page state when a step fails.
	FailureScreenshots bool `yaml:"failure_screenshots" json:"failure_screenshots"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`

	// File enables the per-session debug log under <output_dir>/logs.
	File bool `yaml:"file" json:"file"`
}

// DefaultConfig returns settings for a dev server on port 8080 with the
// seeded test account.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://127.0.0.1:8080",
		Credentials: Credentials{
			Email:    "testuser@cozi.com",
			Password: "password123",
		},
		DashboardHeading: "Welcome to ConnectSphere",
		Browser: BrowserConfig{
			Headless: true,
			Viewport: scenario.Viewport{Width: 1280, Height: 720},
			Timeout:  5 * time.Second,
		},
		Artifacts: ArtifactConfig{
			OutputDir:          "verification",
			JSON:               true,
			Markdown:           true,
			FailureScreenshots: true,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
			File:      true,
		},
		Timeout: 2 * time.Minute,
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https, got %q", c.BaseURL)
	}

	if err := c.Browser.Viewport.Validate(); err != nil {
		return err
	}
	if c.Browser.Timeout < 0 {
		return fmt.Errorf("browser timeout cannot be negative")
	}
	if !c.Browser.WaitUntil.Valid() {
		return fmt.Errorf("invalid browser wait_until: %s", c.Browser.WaitUntil)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts output_dir is required")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// Vars returns the ${name} substitutions available to scenarios.
// Explicit Variables take precedence over the named settings.
func (c *Config) Vars() map[string]string {
	vars := map[string]string{
		"base_url":                   c.BaseURL,
		scenario.VarEmail:            c.Credentials.Email,
		scenario.VarPassword:         c.Credentials.Password,
		scenario.VarDashboardHeading: c.DashboardHeading,
	}
	for k, v := range c.Variables {
		vars[k] = v
	}
	return vars
}
