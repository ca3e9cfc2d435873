package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by every console style.
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // accent, info
	mintGreen   = lipgloss.Color("#A8E6CF") // success
	softRed     = lipgloss.Color("#FF6B6B") // failure
	amber       = lipgloss.Color("#FFD580") // warnings
	skyBlue     = lipgloss.Color("#9AD1F5") // sections, steps
	mutedGray   = lipgloss.Color("#6B7280") // secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // headers
)

// styles are bound to a renderer so color detection follows the writer;
// output to a file or buffer stays plain text.
type styles struct {
	header  lipgloss.Style
	section lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
	muted   lipgloss.Style
	banner  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header: r.NewStyle().
			Foreground(brightWhite).
			Bold(true),
		section: r.NewStyle().
			Foreground(skyBlue).
			Bold(true),
		step: r.NewStyle().
			Foreground(skyBlue),
		success: r.NewStyle().
			Foreground(mintGreen).
			Bold(true),
		failure: r.NewStyle().
			Foreground(softRed).
			Bold(true),
		warning: r.NewStyle().
			Foreground(amber),
		info: r.NewStyle().
			Foreground(salmonPink),
		muted: r.NewStyle().
			Foreground(mutedGray),
		banner: r.NewStyle().
			Foreground(salmonPink).
			Bold(true),
	}
}
