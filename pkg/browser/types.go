package browser

import (
	"io"
	"time"
)

const (
	// DefaultTimeout is used when PageOptions.Timeout is zero.
	DefaultTimeout = 5 * time.Second

	// DefaultViewportWidth and DefaultViewportHeight apply when the
	// requested viewport is empty.
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720

	// DefaultMaxHTMLLength caps the cleaned page HTML returned by Content.
	DefaultMaxHTMLLength = 50000
)

// LauncherOptions configures a Launcher.
type LauncherOptions struct {
	// SkipInstall assumes the driver and Chromium are already installed.
	SkipInstall bool

	// RawHTML makes Session.Content return the page HTML untouched instead
	// of the cleaned markup.
	RawHTML bool

	// MaxHTMLLength caps cleaned HTML. Zero means DefaultMaxHTMLLength.
	MaxHTMLLength int

	// Output receives driver install output. Nil discards it.
	Output io.Writer
}
