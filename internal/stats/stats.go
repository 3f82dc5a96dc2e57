// Package stats contains scoring calculations and history reporting.
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/typefast/internal/model"
)

const (
	sparkChars = " .:-=+*#%@"
	// charsPerWord is the standard convention of five correct characters per word.
	charsPerWord = 5.0
)

// Score computes words per minute and accuracy for a session.
// Both are rounded half-up to integers; a zero elapsed time or zero total yields 0.
func Score(correct, total int, elapsed time.Duration) model.Score {
	var s model.Score
	minutes := float64(elapsed) / float64(time.Minute)
	if minutes > 0 {
		s.WPM = RoundHalfUp(float64(correct) / charsPerWord / minutes)
	}
	if total > 0 {
		s.Accuracy = RoundHalfUp(float64(correct) / float64(total) * 100)
	}
	return s
}

// RoundHalfUp rounds to the nearest integer, with halves rounded toward +Inf.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
