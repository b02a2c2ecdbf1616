package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine draws a prompt and a text input view as one line of exactly
// width columns.
func renderInputLine(width int, prompt, inputView string) string {
	if width < 10 {
		width = 10
	}
	// A newline in the view would wrap and look like inserted text while typing.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	label := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(prompt)
	line := lipgloss.PlaceHorizontal(
		width,
		lipgloss.Left,
		" "+label+" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > width {
		line = xansi.Cut(line, 0, width) + "\x1b[0m"
	}
	return line
}
