package ui

import (
	"github.com/charmbracelet/lipgloss"

	"scrollwatch/internal/scroll"
)

// Styles contains the style definitions for the UI
type Styles struct {
	Title      lipgloss.Style
	Document   lipgloss.Style
	Panel      lipgloss.Style
	Label      lipgloss.Style
	Value      lipgloss.Style
	Unknown    lipgloss.Style
	Status     lipgloss.Style
	StatusErr  lipgloss.Style
	Help       lipgloss.Style
	Directions map[scroll.Direction]lipgloss.Style
}

// NewStyles creates a Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Document: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Value:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Unknown:   lipgloss.NewStyle().Faint(true),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusErr: lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Help:      lipgloss.NewStyle().Faint(true),
		Directions: map[scroll.Direction]lipgloss.Style{
			scroll.Up:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
			scroll.Down:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
			scroll.Left:  lipgloss.NewStyle().Foreground(lipgloss.Color("51")),  // cyan
			scroll.Right: lipgloss.NewStyle().Foreground(lipgloss.Color("213")), // pink
			scroll.None:  lipgloss.NewStyle().Faint(true),
		},
	}
}

// Direction renders d in its own color
func (s *Styles) Direction(d scroll.Direction) string {
	if style, ok := s.Directions[d]; ok {
		return style.Render(string(d))
	}
	return string(d)
}
