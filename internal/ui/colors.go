package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/daylist/internal/curation"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

// outcome picks the style a generation outcome is rendered with.
func (p *Palette) outcome(o curation.Outcome) lipgloss.Style {
	switch o {
	case curation.OutcomeComplete:
		return p.ok
	case curation.OutcomePartial:
		return p.warn
	default:
		return p.err
	}
}

// score colors a 0-100 quality score: green from 75, orange from 50, red below.
func (p *Palette) score(s float64) lipgloss.Style {
	switch {
	case s >= 75:
		return p.ok
	case s >= 50:
		return p.warn
	default:
		return p.err
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
