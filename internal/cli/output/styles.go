package output

import "github.com/charmbracelet/lipgloss"

// Styles is the lipgloss style set used by text-mode rendering.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	RulePath lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Header1: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: lipgloss.NewStyle().Bold(true),
		Bold:    lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),

		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),

		RulePath: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),

		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
	}
}

// PlainStyles returns styles with no color or emphasis, for non-terminal
// output.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header1: plain,
		Header2: plain,
		Bold:    plain,
		Muted:   plain,

		Success: plain,
		Warning: plain,
		Error:   plain,
		Info:    plain,

		RulePath: plain,

		StatusSuccess: plain.SetString("OK"),
		StatusFailed:  plain.SetString("FAIL"),
	}
}
