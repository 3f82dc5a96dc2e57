package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typefast/internal/model"
)

// column is one fixed history table column. Cells never shrink below
// minWidth so tables of different sessions line up.
type column struct {
	title    string
	right    bool
	minWidth int
	cell     func(i int, e model.HistoryEntry) string
}

var recentColumns = []column{
	{title: "#", right: true, minWidth: 1, cell: func(i int, _ model.HistoryEntry) string { return strconv.Itoa(i + 1) }},
	{title: "Date", minWidth: len("2006-01-02 15:04"), cell: func(_ int, e model.HistoryEntry) string { return e.Date }},
	{title: "WPM", right: true, minWidth: 3, cell: func(_ int, e model.HistoryEntry) string { return strconv.Itoa(e.Speed) }},
	{title: "Acc", right: true, minWidth: 4, cell: func(_ int, e model.HistoryEntry) string { return fmt.Sprintf("%d%%", e.Accuracy) }},
}

// RecentTable lays out entries as a header, a rule and one row per entry,
// oldest first.
func RecentTable(entries []model.HistoryEntry) []string {
	return renderTable(recentColumns, entries)
}

func renderTable(cols []column, entries []model.HistoryEntry) []string {
	if len(cols) == 0 {
		return nil
	}
	cells := make([][]string, len(entries))
	widths := make([]int, len(cols))
	for j, c := range cols {
		widths[j] = max(c.minWidth, displayWidth(c.title))
	}
	for i, e := range entries {
		cells[i] = make([]string, len(cols))
		for j, c := range cols {
			cells[i][j] = c.cell(i, e)
			widths[j] = max(widths[j], displayWidth(cells[i][j]))
		}
	}

	lines := make([]string, 0, len(entries)+2)
	titles := make([]string, len(cols))
	rules := make([]string, len(cols))
	for j, c := range cols {
		titles[j] = c.title
		rules[j] = strings.Repeat("-", widths[j])
	}
	lines = append(lines, joinRow(cols, widths, titles), strings.Join(rules, "  "))
	for _, row := range cells {
		lines = append(lines, joinRow(cols, widths, row))
	}
	return lines
}

func joinRow(cols []column, widths []int, row []string) string {
	parts := make([]string, len(cols))
	for j, c := range cols {
		parts[j] = padCell(row[j], widths[j], c.right)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	padding := width - displayWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
