package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// UI styles and layout settings
// Color palette "Blue Moon" from https://gogh-co.github.io/Gogh/
const (
	colorGray     = "#353b52"
	colorWhite    = "#ffffff"
	colorGreen    = "#acfab4"
	colorGreenDim = "#b4c4b4"
	colorRed      = "#e61f44"
	colorRedDim   = "#d06178"
	colorPurple   = "#b9a3eb"
	colorBlue     = "#89ddff"

	marqueeTickDuration = time.Duration(time.Second / 20)

	bordersAndPaddingWidth = 4
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue)).
			Background(lipgloss.Color(colorGray)).
			Padding(0, 2).Align(lipgloss.Center)
	subtitleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray)).
			Background(lipgloss.Color(colorGreen))
	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWhite))
	buttonStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorGray)).
			Background(lipgloss.Color(colorGreen)).
			Padding(0, 2)
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite))
	textRedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed))
	linkStyle    = lipgloss.NewStyle().Underline(true).
			Foreground(lipgloss.Color(colorBlue))
	mediaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorPurple))

	revealCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorPurple)).
			Padding(1, 3)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))
)

// Function to colorize text based on its status
// 0 (default) - unknown, 1 - green, 2 - red
func TextStatusColorize(text string, status int) string {
	switch status {
	case 1:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreenDim)).Render(text)
	case 2:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorRedDim)).Render(text)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)).Render(text)
	}
}

// Generates pointer symbol when line in focus
func generateLinePointer(isPoint bool, length int) string {
	if isPoint {
		return ">" + strings.Repeat(" ", length-1)
	}
	return strings.Repeat(" ", length)
}

// truncate shortens text to width runes, marking the cut with "..".
func truncate(text string, width int) string {
	r := []rune(text)
	if width <= 3 || len(r) <= width {
		return text
	}
	return string(r[:width-2]) + ".."
}

// Create a padded version marquee text for scrolling
func marqueeText(text string, offset, availableWidth int) string {
	r := []rune(text)
	if availableWidth <= 0 || len(r) <= availableWidth {
		return text
	}
	padded := append(append(append([]rune{}, r...), []rune("    ")...), r...)
	offset %= len(r) + 4
	return string(padded[offset : offset+availableWidth])
}

// iconGlyphs maps stop icon names to terminal glyphs.
var iconGlyphs = map[string]string{
	"gift":       "🎁",
	"cake":       "🎂",
	"coffee":     "☕",
	"restaurant": "🍽",
	"heart":      "❤",
	"star":       "★",
	"music":      "♫",
	"movie":      "🎬",
	"camera":     "📷",
	"map":        "🗺",
	"flight":     "✈",
	"beach":      "🏖",
	"book":       "📖",
	"flower":     "✿",
	"home":       "⌂",
}

// iconGlyph returns the glyph for an icon name, or a bullet for unknown names.
func iconGlyph(name string) string {
	if g, ok := iconGlyphs[strings.ToLower(strings.TrimSpace(name))]; ok {
		return g
	}
	return "•"
}

func (m studioModel) dynamicColumnWidth() (int, int, int) {
	var leftWidth, middleWidth, rightWidth int
	switch m.columnFocus {
	case 0: // Journeys column focused
		leftWidth = (m.width * 30) / 100
		middleWidth = (m.width * 35) / 100
	case 1: // Stops column focused
		leftWidth = (m.width * 20) / 100
		middleWidth = (m.width * 40) / 100
	default:
		leftWidth = (m.width * 20) / 100
		middleWidth = (m.width * 25) / 100
	}
	rightWidth = m.width - leftWidth - middleWidth
	return leftWidth, middleWidth, rightWidth
}
