package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	banner lipgloss.Style
	title  lipgloss.Style
	offer  lipgloss.Style
	body   lipgloss.Style
	error  lipgloss.Style
	warn   lipgloss.Style
	dim    lipgloss.Style
	prompt lipgloss.Style
}

// newStyles binds the palette to out so colour is only emitted on terminals.
func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		banner: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1),
		offer:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Background(lipgloss.Color("28")).Padding(0, 1),
		body:   r.NewStyle().PaddingLeft(2),
		error:  r.NewStyle().Foreground(lipgloss.Color("196")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("214")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("242")),
		prompt: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	}
}
