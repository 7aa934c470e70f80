package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette, adaptive for light and dark terminals.
var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary     = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo        = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess     = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning     = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger      = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

var (
	// TimeStyle renders the timestamp gutter.
	TimeStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	// RailStyle renders the tree indentation rail.
	RailStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	// ContentStyle renders message bodies.
	ContentStyle = lipgloss.NewStyle().Foreground(ColorText)

	// UnseenStyle marks messages not yet seen.
	UnseenStyle = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)

	// CursorRowStyle highlights the row under the cursor.
	CursorRowStyle = lipgloss.NewStyle().Background(ColorBgHighlight)

	// FoldStyle renders collapsed-subtree markers.
	FoldStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	// PseudoStyle renders a sent-but-unconfirmed message placeholder.
	PseudoStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)

	// StatusBarStyle renders the bottom status line.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext).
			Background(ColorBg)

	// TitleStyle renders screen titles.
	TitleStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	// ErrStyle renders transient error notices in the status bar.
	ErrStyle = lipgloss.NewStyle().Foreground(ColorDanger)

	// RoomStyle renders room names in the rooms list.
	RoomStyle = lipgloss.NewStyle().Foreground(ColorInfo)

	// SelectedRoomStyle highlights the selected room.
	SelectedRoomStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Background(ColorBgHighlight).
				Bold(true)
)
