// Package ui provides consistent styling and terminal views for the keytap CLI
package ui

import (
	"fmt"
	"strings"

	"github.com/bnema/keytap/internal/input"
	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	ColorPrimary   = lipgloss.Color("39")  // Bright blue
	ColorSecondary = lipgloss.Color("205") // Pink/magenta
	ColorSuccess   = lipgloss.Color("82")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorInfo      = lipgloss.Color("86")  // Cyan

	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
	ColorMuted  = lipgloss.Color("238") // Dark gray
)

// Base styles - building blocks for other styles
var (
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorMuted).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	ControlKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary).
				Padding(0, 1)

	TableCellStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)
)

// Status icons
var (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconActive  = "●"
	IconIdle    = "○"
)

// SpinnerDot is the frame set of the monitor spinner
var SpinnerDot = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// FormatControl renders a key binding hint
func FormatControl(key, desc string) string {
	return ControlKeyStyle.Render(key) + " " + SubtleStyle.Render(desc)
}

// FormatStatus prefixes status with an active or idle indicator
func FormatStatus(active bool, status string) string {
	if active {
		return SuccessStyle.Render(IconActive) + " " + status
	}
	return SubtleStyle.Render(IconIdle) + " " + status
}

// FormatResult renders a one-line outcome with a success or error icon
func FormatResult(ok bool, msg string) string {
	if ok {
		return SuccessStyle.Render(IconSuccess) + " " + msg
	}
	return ErrorStyle.Render(IconError) + " " + msg
}

// FormatKV renders an aligned key/value line
func FormatKV(key string, value any) string {
	return SubtleStyle.Render(padRight(key+":", 16)) + TextStyle.Render(fmt.Sprint(value))
}

// KindStyle colors events by kind
func KindStyle(kind input.EventKind) lipgloss.Style {
	switch kind {
	case input.KindKeyPress, input.KindKeyRelease:
		return InfoStyle
	case input.KindButtonPress, input.KindButtonRelease:
		return WarningStyle
	case input.KindWheel:
		return lipgloss.NewStyle().Foreground(ColorSecondary)
	default:
		return SubtleStyle
	}
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}
	return SubtleStyle.Render(strings.Repeat(char, width))
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s + " "
}
