package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pthomas-44/nextbus/pkg/board"
)

var severityColors = map[board.Severity]lipgloss.Color{
	board.SeverityCritical: lipgloss.Color("#ff6347"), // tomato
	board.SeverityWarning:  lipgloss.Color("#ffd700"), // gold
	board.SeverityNormal:   lipgloss.Color("#90ee90"), // lightgreen
	board.SeverityLoading:  lipgloss.Color("#d3d3d3"), // lightgray
}

// tagStyle mimics the TCL line badge.
var tagStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#ec1c24")).
	Background(lipgloss.Color("#ffffff")).
	Bold(true).
	Padding(0, 1)

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// SeverityStyle returns the text style for an urgency bucket.
func SeverityStyle(s board.Severity) lipgloss.Style {
	c, ok := severityColors[s]
	if !ok {
		c = severityColors[board.SeverityLoading]
	}
	st := lipgloss.NewStyle().Foreground(c)
	if s == board.SeverityCritical {
		st = st.Bold(true)
	}
	return st
}

// RenderEntry styles one arrival.
func RenderEntry(e board.Entry) string {
	return SeverityStyle(e.Severity).Render(e.Text)
}

// RenderPreview is the compact one-line panel: every trip's badge followed by
// its next arrival.
func RenderPreview(rows []board.Row) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, tagStyle.Render(r.Trip.Tag)+" "+RenderEntry(r.Preview()))
	}
	return strings.Join(parts, "  ")
}

// RenderRows lists every trip with all of its entries.
func RenderRows(rows []board.Row) string {
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		header := r.Trip.Name
		if header == "" {
			header = string(r.Trip.ID)
		}
		b.WriteString(tagStyle.Render(r.Trip.Tag) + " " + accentStyle.Render(header) + "\n")
		for _, e := range r.Entries {
			b.WriteString("   " + dimStyle.Render("•") + " " + RenderEntry(e) + "\n")
		}
	}
	return b.String()
}

// RenderBoard is what the one-shot command prints.
func RenderBoard(rows []board.Row, mode board.Mode) string {
	if mode == board.ModePreview {
		return RenderPreview(rows) + "\n"
	}
	return RenderRows(rows)
}
