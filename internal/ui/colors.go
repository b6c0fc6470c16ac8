package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// The shared stylesheet for all views. Titles pick up the source catalog's
// green; ok/err/warn follow the usual terminal conventions.
var styles = NewPalette("#1DB954", "#43B581", "#E74C3C", "#E67E22", "#8A8A8A")

// Palette groups the named [lipgloss.Style] values the views render with.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

// NewPalette builds a Palette from foreground hex colors, in the order
// title, ok, err, warn, help.
func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

// NewStyle returns a plain foreground-colored style.
func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

// NewBold returns a bold foreground-colored style.
func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

// NewEm returns an italic foreground-colored style.
func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
