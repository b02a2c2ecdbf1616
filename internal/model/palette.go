package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ContainerPalette holds the column/entry background colors offered by the pickers.
var ContainerPalette = []Color{
	{Light: "#f5f5f5", Dark: "#262626"},
	{Light: "#fee2e2", Dark: "#7f1d1d"},
	{Light: "#ffedd5", Dark: "#7c2d12"},
	{Light: "#fef9c3", Dark: "#713f12"},
	{Light: "#dcfce7", Dark: "#14532d"},
	{Light: "#e0f2fe", Dark: "#0c4a6e"},
	{Light: "#dbeafe", Dark: "#1e3a8a"},
	{Light: "#f3e8ff", Dark: "#581c87"},
}

// ItemPalette holds the card colors offered by the pickers.
var ItemPalette = []Color{
	{Light: "#fecaca", Dark: "#b91c1c"},
	{Light: "#fed7aa", Dark: "#c2410c"},
	{Light: "#fef08a", Dark: "#a16207"},
	{Light: "#bbf7d0", Dark: "#15803d"},
	{Light: "#bae6fd", Dark: "#0369a1"},
	{Light: "#bfdbfe", Dark: "#1d4ed8"},
	{Light: "#e9d5ff", Dark: "#7e22ce"},
}

// PriorityColors is indexed by Priority-1.
var PriorityColors = []string{
	"#d1453b",
	"#eb8909",
	"#246fe0",
}

func (p Priority) Color() string {
	if p < PriorityHigh || p > PriorityLow {
		return ""
	}
	return PriorityColors[int(p)-1]
}

// ParseColor accepts a palette index ("3") or an explicit "light:dark" pair.
// An empty string or "none" yields nil.
func ParseColor(s string, palette []Color) (*Color, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(palette) {
			return nil, fmt.Errorf("color index out of range: %d (0-%d)", n, len(palette)-1)
		}
		c := palette[n]
		return &c, nil
	}
	light, dark, ok := strings.Cut(s, ":")
	if !ok || !isHexColor(light) || !isHexColor(dark) {
		return nil, fmt.Errorf("invalid color %q (want palette index or #light:#dark)", s)
	}
	return &Color{Light: strings.ToLower(light), Dark: strings.ToLower(dark)}, nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
