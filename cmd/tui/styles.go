package main

import "github.com/charmbracelet/lipgloss"

var (
	primary     = lipgloss.Color("#3b82f6")
	muted       = lipgloss.Color("#94a3b8")
	destructive = lipgloss.Color("#ef4444")
	accent      = lipgloss.Color("#22d3ee")
)

type Styles struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Counter  lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Selected lipgloss.Style
	Label    lipgloss.Style
	Control  lipgloss.Style
	Footer   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(primary).
			Foreground(lipgloss.Color("#ffffff")).
			Bold(true).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),

		Counter: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(muted),

		Error: lipgloss.NewStyle().
			Foreground(destructive).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#1e3a8a")),

		Label: lipgloss.NewStyle().
			Foreground(muted),

		Control: lipgloss.NewStyle().
			Foreground(accent).
			Underline(true),

		Footer: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
	}
}
