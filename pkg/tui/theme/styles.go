package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Base16 palette with warm orange, brown and yellow tones
var (
	ColorBase00 = lipgloss.Color("#1a1816") // Dark background
	ColorBase01 = lipgloss.Color("#282420") // Lighter background
	ColorBase02 = lipgloss.Color("#36302a") // Selection background
	ColorBase03 = lipgloss.Color("#5c5044") // Comments, invisibles
	ColorBase04 = lipgloss.Color("#83715f") // Dark foreground
	ColorBase05 = lipgloss.Color("#ab937b") // Default foreground
	ColorBase06 = lipgloss.Color("#d3b597") // Light foreground
	ColorBase07 = lipgloss.Color("#f5d7b9") // Lightest foreground

	ColorRed    = lipgloss.Color("#d95f5f")
	ColorOrange = lipgloss.Color("#eb8755")
	ColorYellow = lipgloss.Color("#f5b761")
	ColorGreen  = lipgloss.Color("#93b56b")
	ColorCyan   = lipgloss.Color("#61afaf")
	ColorBlue   = lipgloss.Color("#6b93b5")
	ColorPurple = lipgloss.Color("#976bb5")
	ColorViolet = lipgloss.Color("#6c71c4")

	ColorFocus = ColorOrange
	ColorError = ColorRed
	ColorMuted = ColorBase03
)

// Styles defines the Lipgloss styles for the chat view
type Styles struct {
	Title lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style

	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	SystemMessage    lipgloss.Style
	ErrorMessage     lipgloss.Style

	InputFocused  lipgloss.Style
	InputDisabled lipgloss.Style
	Placeholder   lipgloss.Style
}

// DefaultStyles returns the default Lipgloss styles
func DefaultStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(ColorOrange).
			Bold(true).
			Padding(0, 1),

		UserLabel: lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true),

		AssistantLabel: lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true),

		UserMessage: lipgloss.NewStyle().
			Foreground(ColorBase06),

		AssistantMessage: lipgloss.NewStyle().
			Foreground(ColorBlue),

		SystemMessage: lipgloss.NewStyle().
			Foreground(ColorPurple).
			Italic(true),

		ErrorMessage: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		InputFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFocus),

		InputDisabled: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted),

		Placeholder: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true),
	}
}
