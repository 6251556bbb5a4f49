package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ptscraper/pkg/models"
)

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonOrange  = lipgloss.Color("#FF6700")
	dimWhite    = lipgloss.Color("#B0B0B0")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	incompatibleStyle = lipgloss.NewStyle().
				Foreground(neonOrange)

	vanityStyle = lipgloss.NewStyle().
			Foreground(dimWhite)
)

const (
	maxNameWidth   = 28
	maxVanityWidth = 15
	notSupported   = "⚠ [NOT SUPPORTED]"
)

// RenderCreatorList renders the numbered creator list in a box. Creators
// whose compatibility check failed are marked.
func RenderCreatorList(creators []models.Creator) string {
	lines := []string{titleStyle.Render("Subscribed Creators"), ""}
	anyIncompatible := false

	for i, c := range creators {
		line := fmt.Sprintf("%2d. %-*s %s",
			i+1,
			maxNameWidth, truncate(c.DisplayName(), maxNameWidth),
			vanityStyle.Render("(@"+truncate(c.Vanity, maxVanityWidth)+")"))
		if c.IsIncompatible() {
			anyIncompatible = true
			line += " " + incompatibleStyle.Render(notSupported)
		}
		lines = append(lines, line)
	}

	out := boxStyle.Render(strings.Join(lines, "\n"))
	if anyIncompatible {
		out += "\n" + incompatibleStyle.Render("  ⚠ = Creator Website format (Patreon-hosted videos, not supported)")
	}
	return out
}

// PrintCreatorList prints the creator list box
func PrintCreatorList(creators []models.Creator) {
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, RenderCreatorList(creators))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
