package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/typefast/internal/model"
)

const trendWindow = 3

// RenderHistory prints the history aggregate followed by the recent sessions table.
func RenderHistory(w io.Writer, agg model.HistoryAggregate) error {
	if agg.TotalGames == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Games: %d\n", agg.TotalGames); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg WPM: %.0f\n", agg.AverageSpeed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Accuracy: %.0f%%\n", agg.AverageAccuracy); err != nil {
		return err
	}
	if len(agg.RecentEntries) == 0 {
		return nil
	}
	speeds := make([]float64, len(agg.RecentEntries))
	for i, e := range agg.RecentEntries {
		speeds[i] = float64(e.Speed)
	}
	smoothed := MovingAverage(speeds, trendWindow)
	if _, err := fmt.Fprintf(w, "Recent WPM (%d-game avg): %.0f\n", trendWindow, smoothed[len(smoothed)-1]); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trend: [%s]\n\n", Sparkline(speeds)); err != nil {
		return err
	}
	for _, line := range RecentTable(agg.RecentEntries) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatDiff renders a signed delta such as "+5" or "-3".
func FormatDiff(d int) string {
	if d > 0 {
		return "+" + strconv.Itoa(d)
	}
	return strconv.Itoa(d)
}
