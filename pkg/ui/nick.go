package ui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// nickPalette holds the colors nicks are mapped onto. The mapping is
// stable across sessions so a nick keeps its color.
var nickPalette = []lipgloss.AdaptiveColor{
	{Light: "#CC0000", Dark: "#FF5555"},
	{Light: "#B06800", Dark: "#FFB86C"},
	{Light: "#808000", Dark: "#F1FA8C"},
	{Light: "#007700", Dark: "#50FA7B"},
	{Light: "#008080", Dark: "#00CED1"},
	{Light: "#006080", Dark: "#8BE9FD"},
	{Light: "#0066CC", Dark: "#6699FF"},
	{Light: "#6B47D9", Dark: "#BD93F9"},
}

// NickColor returns the palette color for a nick, derived from an FNV-1a
// hash of its bytes.
func NickColor(nick string) lipgloss.AdaptiveColor {
	h := fnv.New32a()
	h.Write([]byte(nick))
	return nickPalette[h.Sum32()%uint32(len(nickPalette))]
}

// NickStyle returns a style rendering a nick in its stable color.
func NickStyle(nick string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(NickColor(nick)).Bold(true)
}
