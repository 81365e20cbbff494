package ui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the menu screen.
type Styles struct {
	Header         lipgloss.Style
	Banner         lipgloss.Style
	CategoryActive lipgloss.Style
	CategoryIdle   lipgloss.Style
	GroupTitle     lipgloss.Style
	ItemName       lipgloss.Style
	ItemDesc       lipgloss.Style
	Price          lipgloss.Style
	Error          lipgloss.Style
	Muted          lipgloss.Style
	Help           lipgloss.Style
}

// DefaultStyles returns the standard color scheme.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1),
		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		CategoryActive: lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("63")).
			Padding(0, 1),
		CategoryIdle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Padding(0, 1),
		GroupTitle: lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("114")).
			MarginTop(1),
		ItemName: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		ItemDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		Price: lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")),
		Error: lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("203")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			MarginTop(1),
	}
}
