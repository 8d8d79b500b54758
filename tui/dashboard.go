package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/triovision/erpauth/kpi"
)

const (
	barWidth      = 20
	maxTrendRows  = 7
	maxSearchHits = 8
)

// DashboardModel shows the KPI cards, module tiles and efficiency trend for a
// manpower dataset. l and s cycle the line and shift filters; / searches the
// KPI catalog.
type DashboardModel struct {
	user      string
	rows      []kpi.Row
	lines     []string
	shifts    []string
	lineIdx   int
	shiftIdx  int
	search    textinput.Model
	searching bool
	styles    Styles
}

// NewDashboardModel creates a dashboard over rows for the signed-in user.
func NewDashboardModel(user string, rows []kpi.Row) DashboardModel {
	search := newInput("search KPIs", false)
	return DashboardModel{
		user:   user,
		rows:   rows,
		lines:  append([]string{kpi.All}, kpi.Lines(rows)...),
		shifts: append([]string{kpi.All}, kpi.Shifts(rows)...),
		search: search,
		styles: DefaultStyles(),
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return nil
}

// Filter returns the active line and shift filters.
func (m DashboardModel) Filter() (line, shift string) {
	return m.lines[m.lineIdx], m.shifts[m.shiftIdx]
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.searching {
		switch key.String() {
		case "esc", "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "l":
		m.lineIdx = (m.lineIdx + 1) % len(m.lines)
	case "s":
		m.shiftIdx = (m.shiftIdx + 1) % len(m.shifts)
	case "/":
		m.searching = true
		return m, m.search.Focus()
	}
	return m, nil
}

func (m DashboardModel) View() string {
	line, shift := m.Filter()
	rows := kpi.Filter(m.rows, line, shift)

	var b strings.Builder
	title := "Trio ERP · Dashboard"
	if m.user != "" {
		title += " · " + m.user
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("line: %s   shift: %s   rows: %d", line, shift, len(rows))))
	b.WriteString("\n\n")
	b.WriteString(RenderSummary(kpi.Summarize(rows), m.styles))
	b.WriteString("\n\n")
	b.WriteString(renderTrend(kpi.Trend(rows), m.styles))
	b.WriteString("\n")
	b.WriteString(renderModules(kpi.Modules, m.styles))
	b.WriteString("\n")
	if m.searching || m.search.Value() != "" {
		b.WriteString(m.styles.field("Search", m.searching, m.search.View()))
		b.WriteString("\n")
		hits := kpi.SearchCatalog(m.search.Value())
		if len(hits) > maxSearchHits {
			hits = hits[:maxSearchHits]
		}
		for _, h := range hits {
			b.WriteString("  " + h + "\n")
		}
	}
	b.WriteString(m.styles.Muted.Render("l line · s shift · / search · q quit"))
	return b.String()
}

// RenderSummary renders the KPI cards for s.
func RenderSummary(s kpi.Summary, styles Styles) string {
	cards := []string{
		card(styles, "Efficiency", fmt.Sprintf("%.1f%%", s.Efficiency)),
		card(styles, "Output", fmt.Sprintf("%.0f units", s.TotalOutput)),
		card(styles, "Defect rate", fmt.Sprintf("%.2f%%", s.DefectRate)),
		card(styles, "Productivity", fmt.Sprintf("%.1f / head", s.Productivity)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func card(styles Styles, label, value string) string {
	return styles.Card.Render(styles.Muted.Render(label) + "\n" + lipgloss.NewStyle().Bold(true).Render(value))
}

func bar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func renderTrend(points []kpi.TrendPoint, styles Styles) string {
	if len(points) == 0 {
		return styles.Muted.Render("No data for this filter.") + "\n"
	}
	if len(points) > maxTrendRows {
		points = points[len(points)-maxTrendRows:]
	}
	var b strings.Builder
	b.WriteString(styles.Label.Render("Trend") + "\n")
	for _, p := range points {
		b.WriteString(fmt.Sprintf("%-12s %6.1f  %8.0f\n", p.Date, p.Efficiency, p.Output))
	}
	return b.String()
}

func renderModules(mods []kpi.Module, styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.Label.Render("Modules") + "\n")
	for _, mod := range mods {
		b.WriteString(fmt.Sprintf("%-26s %s %3d%%\n", mod.Title, styles.Success.Render(bar(float64(mod.Progress))), mod.Progress))
	}
	return b.String()
}
