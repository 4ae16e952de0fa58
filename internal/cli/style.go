package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	dim   lipgloss.Style
	ok    lipgloss.Style
}

// newStyles binds styles to w, so output to pipes and files stays plain.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")),
		label: r.NewStyle().Foreground(lipgloss.Color("#565f89")).Width(13),
		dim:   r.NewStyle().Foreground(lipgloss.Color("#565f89")),
		ok:    r.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
	}
}
