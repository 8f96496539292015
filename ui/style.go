package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// ANSI 256 palette indexes shared by the CLI and the TUIs.
const (
	ColorAccent  = "12"
	ColorSuccess = "10"
	ColorWarning = "11"
	ColorError   = "9"
	ColorMuted   = "8"
	ColorSpinner = "205"
)

var (
	Title   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent))
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	Muted   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted)).Italic(true)
	Bold    = lipgloss.NewStyle().Bold(true)
)

// Colorize renders text in the given palette color.
func Colorize(text string, color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// Score renders a rating score colored by how well the mod is rated.
func Score(rating int64) string {
	color := ColorMuted
	switch {
	case rating >= 100:
		color = ColorSuccess
	case rating >= 10:
		color = ColorWarning
	}
	return Colorize(strconv.FormatInt(rating, 10), color)
}

func Check() string { return Success.Render("✓") }

func Cross() string { return Error.Render("✗") }
