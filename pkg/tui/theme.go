package tui

import "github.com/charmbracelet/lipgloss"

// Theme is a set of styles for one background.
type Theme struct {
	Dark bool

	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Thinking  lipgloss.Style
	Empty     lipgloss.Style
	Status    lipgloss.Style
}

// glamourStyle picks the markdown style matching the theme.
func (t Theme) glamourStyle() string {
	if t.Dark {
		return "dark"
	}
	return "light"
}

func NewTheme(dark bool) Theme {
	if dark {
		return Theme{
			Dark:      true,
			Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22d3ee")),
			User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#34d399")),
			Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a78bfa")),
			Thinking:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#9ca3af")),
			Empty:     lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
			Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24")),
		}
	}

	return Theme{
		Dark:      false,
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0e7490")),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#047857")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4338ca")),
		Thinking:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#6b7280")),
		Empty:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#b45309")),
	}
}

// Toggle returns the theme for the opposite background.
func (t Theme) Toggle() Theme {
	return NewTheme(!t.Dark)
}
