package tui

import "github.com/charmbracelet/lipgloss"

var (
	brandNavy  = lipgloss.Color("#101F38")
	brandLime  = lipgloss.Color("#8BC34A")
	errorRed   = lipgloss.Color("#e53935")
	warnYellow = lipgloss.Color("#FFC107")
	mutedGray  = lipgloss.Color("#8a94a6")
)

// Styles groups the lipgloss styles shared by all models.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Focused lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Box     lipgloss.Style
	Card    lipgloss.Style
}

// DefaultStyles returns the Trio brand styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(brandLime).MarginBottom(1),
		Label:   lipgloss.NewStyle().Width(12),
		Focused: lipgloss.NewStyle().Width(12).Bold(true).Foreground(brandLime),
		Error:   lipgloss.NewStyle().Foreground(errorRed),
		Success: lipgloss.NewStyle().Foreground(brandLime),
		Warning: lipgloss.NewStyle().Foreground(warnYellow),
		Muted:   lipgloss.NewStyle().Foreground(mutedGray),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brandNavy).
			Padding(1, 2),
		Card: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1).
			Width(26),
	}
}

// status is the one-line feedback shown under a form.
type status struct {
	text string
	kind statusKind
}

type statusKind int

const (
	statusNone statusKind = iota
	statusInfo
	statusOK
	statusErr
)

func (s Styles) renderStatus(st status) string {
	switch st.kind {
	case statusOK:
		return s.Success.Render(st.text)
	case statusErr:
		return s.Error.Render(st.text)
	case statusInfo:
		return s.Muted.Render(st.text)
	}
	return ""
}

func (s Styles) field(label string, focused bool, input string) string {
	l := s.Label
	if focused {
		l = s.Focused
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, l.Render(label), input)
}
