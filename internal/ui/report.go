package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
)

const (
	labelSuccess = "✅ success"
	labelFailure = "❌ fail"
)

var (
	colorGreen = lipgloss.Color("42")
	colorRed   = lipgloss.Color("196")

	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailure = lipgloss.NewStyle().Foreground(colorRed)
)

var reportHeader = [3]string{"Description", "URL", "Result"}

// Report turns probe outcomes into printable text.
type Report interface {
	Render(outcomes []domain.ProbeOutcome) string
}

// TableReport renders outcomes as a bordered, column-aligned text table.
type TableReport struct {
	successStyle lipgloss.Style
	failureStyle lipgloss.Style
}

// NewTableReport returns a table renderer. With styled set, status cells are
// coloured; widths are measured on visible text either way.
func NewTableReport(styled bool) *TableReport {
	if !styled {
		return &TableReport{successStyle: lipgloss.NewStyle(), failureStyle: lipgloss.NewStyle()}
	}
	return &TableReport{successStyle: styleSuccess, failureStyle: styleFailure}
}

func (r *TableReport) Render(outcomes []domain.ProbeOutcome) string {
	rows := make([][3]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, [3]string{o.Description, o.Target, r.label(o.Status)})
	}

	var widths [3]int
	for i, h := range reportHeader {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	dashes := make([]string, len(widths))
	for i, w := range widths {
		dashes[i] = strings.Repeat("-", w)
	}
	border := "+-" + strings.Join(dashes, "-+-") + "-+"

	lines := make([]string, 0, len(rows)+4)
	lines = append(lines, border, formatRow(reportHeader, widths), border)
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths))
	}
	lines = append(lines, border)

	return strings.Join(lines, "\n")
}

func (r *TableReport) label(status domain.ProbeStatus) string {
	if status == domain.StatusSuccess {
		return r.successStyle.Render(labelSuccess)
	}
	return r.failureStyle.Render(labelFailure)
}

func formatRow(cells [3]string, widths [3]int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = padRight(cell, widths[i])
	}
	return "| " + strings.Join(padded, " | ") + " |"
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
