// Package tui renders the terminal chat client over the session
// controller's event stream.
package tui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// Participant colors, assigned by name hash so a sender keeps its color
// across sessions and clients.
var participantColors = []lipgloss.Color{
	lipgloss.Color("#a855f7"),
	lipgloss.Color("#3b82f6"),
	lipgloss.Color("#06b6d4"),
	lipgloss.Color("#22c55e"),
	lipgloss.Color("#f59e0b"),
	lipgloss.Color("#ec4899"),
	lipgloss.Color("#10b981"),
	lipgloss.Color("#ef4444"),
}

// UI chrome colors.
var (
	colorBorder = lipgloss.Color("#4b5563")
	colorDimmed = lipgloss.Color("#6b7280")
	colorBright = lipgloss.Color("#f9fafb")
	colorOnline = lipgloss.Color("#22c55e")
	colorRetry  = lipgloss.Color("#d97706")
	colorDown   = lipgloss.Color("#dc2626")
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorBright)
	styleDimmed = lipgloss.NewStyle().Foreground(colorDimmed)
	styleSystem = lipgloss.NewStyle().Foreground(colorDimmed).Italic(true)
	styleTyping = lipgloss.NewStyle().Foreground(colorDimmed).Italic(true)

	styleStatusOnline = lipgloss.NewStyle().Foreground(colorOnline)
	styleStatusRetry  = lipgloss.NewStyle().Foreground(colorRetry)
	styleStatusDown   = lipgloss.NewStyle().Foreground(colorDown)

	styleInput = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(colorBorder)
)

// senderColor maps a display name onto the participant palette.
func senderColor(name string) lipgloss.Color {
	h := fnv.New32a()
	h.Write([]byte(name))
	return participantColors[h.Sum32()%uint32(len(participantColors))]
}

func senderStyle(name string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(senderColor(name))
}
