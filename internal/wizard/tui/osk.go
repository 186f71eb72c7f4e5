package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/muurk/bhkiosk/internal/validation"
)

// Layouts of the on-screen keyboard. Each label is passed to
// keyboard.ParseKey when pressed.
var (
	alphaRows = [][]string{
		{"1", "2", "3", "4", "5", "6", "7", "8", "9", "0"},
		{"Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P"},
		{"A", "S", "D", "F", "G", "H", "J", "K", "L", "."},
		{"Z", "X", "C", "V", "B", "N", "M", ",", "-", "#"},
		{"Space", "Bksp", "Enter", "Close"},
	}

	numericRows = [][]string{
		{"1", "2", "3"},
		{"4", "5", "6"},
		{"7", "8", "9"},
		{"0"},
		{"Bksp", "Enter", "Close"},
	}
)

const keyZonePrefix = "osk:"

func keyZoneID(label string) string {
	return keyZonePrefix + label
}

// layoutFor picks the keypad for a field kind: digits only fields get the
// numeric pad
func layoutFor(kind validation.Kind) [][]string {
	switch kind {
	case validation.Phone, validation.Numeric, validation.Digits:
		return numericRows
	default:
		return alphaRows
	}
}

// keyLabels returns every label of a layout, for hit testing
func keyLabels(rows [][]string) []string {
	var labels []string
	for _, row := range rows {
		labels = append(labels, row...)
	}
	return labels
}

// renderKeyboard draws the layout with a click zone around every key
func renderKeyboard(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for _, label := range row {
			style := KeyStyle
			if len(label) > 1 {
				style = WideKeyStyle
			}
			keys = append(keys, zone.Mark(keyZoneID(label), style.Render(label)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, keys...))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

// keyboardHeight is the number of terminal rows renderKeyboard uses
func keyboardHeight(rows [][]string) int {
	return strings.Count(renderKeyboard(rows), "\n") + 1
}
