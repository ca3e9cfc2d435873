// Package main provides verify, a command that drives a headless browser
// through scripted scenarios against a locally running web application and
// captures a screenshot for each one.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/entrhq/verify/pkg/browser"
	"github.com/entrhq/verify/pkg/config"
	"github.com/entrhq/verify/pkg/logging"
	"github.com/entrhq/verify/pkg/report"
	"github.com/entrhq/verify/pkg/runner"
	"github.com/entrhq/verify/pkg/suite"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Run         string
	BaseURL     string
	Email       string
	Password    string
	Headless    bool
	OutputDir   string
	Timeout     time.Duration
	Verbosity   string
	SkipInstall bool
	List        bool
	ShowVersion bool

	// set records which flags were given explicitly
	set map[string]bool
}

func main() {
	cli := parseFlags(flag.CommandLine, os.Args[1:])

	if cli.ShowVersion {
		fmt.Printf("verify v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	code, err := run(ctx, cli, os.Stdout)
	cancel()
	if err != nil {
		log.Printf("Verification failed: %v", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// parseFlags parses command line flags. Environment variables supply
// defaults for the target application and credentials.
func parseFlags(fs *flag.FlagSet, args []string) *CLIConfig {
	cli := &CLIConfig{set: make(map[string]bool)}

	fs.StringVar(&cli.ConfigFile, "config", os.Getenv("VERIFY_CONFIG"), "Path to configuration file (YAML)")
	fs.StringVar(&cli.Run, "run", "", "Scenario name glob(s), comma separated; prefix with ! to exclude (default: all)")
	fs.StringVar(&cli.BaseURL, "base-url", os.Getenv("VERIFY_BASE_URL"), "Base URL of the application under test")
	fs.StringVar(&cli.Email, "email", os.Getenv("VERIFY_EMAIL"), "Sign-in email")
	fs.StringVar(&cli.Password, "password", os.Getenv("VERIFY_PASSWORD"), "Sign-in password")
	fs.BoolVar(&cli.Headless, "headless", true, "Run the browser without a window")
	fs.StringVar(&cli.OutputDir, "output", "", "Directory for screenshots, reports and logs")
	fs.DurationVar(&cli.Timeout, "timeout", 0, "Per-scenario timeout (default from config)")
	fs.StringVar(&cli.Verbosity, "verbosity", "", "Console output: quiet, normal, verbose or debug")
	fs.BoolVar(&cli.SkipInstall, "skip-install", false, "Assume the Playwright driver and Chromium are installed")
	fs.BoolVar(&cli.List, "list", false, "List available scenarios and exit")
	fs.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "verify - scripted browser verification\n\n")
		fmt.Fprintf(out, "Usage: verify [options]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  # Run every scenario against the default dev server\n")
		fmt.Fprintf(out, "  verify\n\n")
		fmt.Fprintf(out, "  # Run the dark mode scenarios in a visible browser\n")
		fmt.Fprintf(out, "  verify -run 'dark-mode-*' -headless=false\n\n")
		fmt.Fprintf(out, "  # Use a config file with extra scenario suites\n")
		fmt.Fprintf(out, "  verify -config verify.yaml -verbosity verbose\n\n")
	}

	_ = fs.Parse(args)
	fs.Visit(func(f *flag.Flag) { cli.set[f.Name] = true })
	return cli
}

// loadConfig loads the file configuration, or the defaults, and applies
// command line overrides.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if cli.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(cli.ConfigFile); err != nil {
			return nil, err
		}
	}

	if cli.BaseURL != "" {
		cfg.BaseURL = cli.BaseURL
	}
	if cli.Email != "" {
		cfg.Credentials.Email = cli.Email
	}
	if cli.Password != "" {
		cfg.Credentials.Password = cli.Password
	}
	if cli.set["headless"] {
		cfg.Browser.Headless = cli.Headless
	}
	if cli.OutputDir != "" {
		cfg.Artifacts.OutputDir = cli.OutputDir
	}
	if cli.set["timeout"] {
		cfg.Timeout = cli.Timeout
	}
	if cli.Verbosity != "" {
		cfg.Logging.Verbosity = cli.Verbosity
	}
	if cli.SkipInstall {
		cfg.Browser.SkipInstall = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// run executes the selected scenarios and returns the process exit code.
func run(ctx context.Context, cli *CLIConfig, stdout io.Writer) (int, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return 1, err
	}

	console := report.NewConsole(stdout, report.ParseLevel(cfg.Logging.Verbosity))

	catalog, err := suite.Catalog(cfg.ScenarioFiles...)
	if err != nil {
		return 1, fmt.Errorf("failed to load scenarios: %w", err)
	}
	if cli.List {
		console.List(catalog)
		return 0, nil
	}

	selector, err := suite.NewSelector(cli.Run)
	if err != nil {
		return 1, err
	}
	selected, err := selector.Select(catalog)
	if err != nil {
		return 1, err
	}

	runLog, suiteLog, browserLog := newLoggers(cfg, console)
	defer runLog.Close()
	defer suiteLog.Close()
	defer browserLog.Close()

	console.Header(fmt.Sprintf("verify v%s: %d scenario(s) against %s", version, len(selected), cfg.BaseURL))

	launcher := browser.NewLauncher(browser.LauncherOptions{
		SkipInstall: cfg.Browser.SkipInstall,
		RawHTML:     cfg.Browser.RawHTML,
		Output:      browserLog.Writer(),
	})
	console.Infof("Starting browser...")
	if err := launcher.Initialize(); err != nil {
		return 1, err
	}
	defer func() {
		if err := launcher.Shutdown(); err != nil {
			browserLog.Warnf("shutdown: %v", err)
			console.Warningf("browser shutdown: %v", err)
		}
	}()

	r := runner.New(launcher, runner.Options{
		OutputDir:          cfg.Artifacts.OutputDir,
		Headless:           cfg.Browser.Headless,
		Viewport:           cfg.Browser.Viewport,
		Timeout:            cfg.Browser.Timeout,
		WaitUntil:          cfg.Browser.WaitUntil,
		FailureScreenshots: cfg.Artifacts.FailureScreenshots,
	}, runner.WithLogger(runLog), runner.WithObserver(console))

	s := suite.New(r, suite.Options{
		BaseURL: cfg.BaseURL,
		Vars:    cfg.Vars(),
		Timeout: cfg.Timeout,
	}, console, suiteLog)

	sum := s.Run(ctx, selected)

	writer := report.NewArtifactWriter(cfg.Artifacts.OutputDir, cfg.Artifacts.JSON, cfg.Artifacts.Markdown)
	paths, err := writer.WriteAll(sum)
	if err != nil {
		console.Warningf("failed to write reports: %v", err)
	}
	for _, p := range paths {
		console.Verbosef("Report written to %s", p)
	}

	console.Summary(sum, runLog.LogPath())
	return sum.ExitCode(), nil
}

// newLoggers opens the session log under <output>/logs, or discards
// entries when file logging is disabled.
func newLoggers(cfg *config.Config, console *report.Console) (runLog, suiteLog, browserLog *logging.Logger) {
	if !cfg.Logging.File {
		return logging.Discard("runner"), logging.Discard("suite"), logging.Discard("browser")
	}

	logging.SetDirectory(filepath.Join(cfg.Artifacts.OutputDir, "logs"))
	runLog, err := logging.NewLogger("runner")
	if err != nil {
		console.Warningf("file logging unavailable: %v", err)
	}
	suiteLog, _ = logging.NewLogger("suite")
	browserLog, _ = logging.NewLogger("browser")
	return runLog, suiteLog, browserLog
}
