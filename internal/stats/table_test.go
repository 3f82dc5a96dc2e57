package stats

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typefast/internal/model"
)

func TestRecentTableFixedColumns(t *testing.T) {
	lines := RecentTable([]model.HistoryEntry{
		{Date: "2026-01-02 10:00", Speed: 42, Accuracy: 90},
		{Date: "2026-01-03 09:30", Speed: 7, Accuracy: 100},
	})
	require.Len(t, lines, 4)
	assert.Equal(t, "#  Date              WPM   Acc", lines[0])
	assert.Equal(t, "-  ----------------  ---  ----", lines[1])
	assert.Equal(t, "1  2026-01-02 10:00   42   90%", lines[2])
	assert.Equal(t, "2  2026-01-03 09:30    7  100%", lines[3])
}

func TestRecentTableWithoutEntriesKeepsHeader(t *testing.T) {
	lines := RecentTable(nil)
	require.Len(t, lines, 2)
	assert.Equal(t, "#  Date              WPM   Acc", lines[0])
}

func TestRenderTableWideRunes(t *testing.T) {
	cols := []column{
		{title: "Name", cell: func(_ int, e model.HistoryEntry) string { return e.Date }},
		{title: "N", right: true, cell: func(_ int, e model.HistoryEntry) string { return strconv.Itoa(e.Speed) }},
	}
	lines := renderTable(cols, []model.HistoryEntry{{Date: "日本語", Speed: 5}})
	require.Len(t, lines, 3)
	assert.Equal(t, "Name    N", lines[0])
	assert.Equal(t, "------  -", lines[1])
	assert.Equal(t, "日本語  5", lines[2])
}
