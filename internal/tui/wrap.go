package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typefast/internal/session"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

func newStyledRune(r rune, style lipgloss.Style) styledRune {
	return styledRune{
		s:       style.Render(string(r)),
		width:   runewidth.RuneWidth(r),
		isSpace: r == ' ',
	}
}

// buildPassage styles the words of the current concept: committed words by
// what was typed for them, the current word letter by letter with a cursor,
// and the rest as pending.
func buildPassage(snap session.Snapshot) []styledRune {
	out := make([]styledRune, 0, 64)
	// Once the current word is fully typed the cursor sits on the space after it.
	cursorAfter := snap.WordIndex < len(snap.Words) &&
		len([]rune(snap.Typed)) >= len([]rune(snap.Words[snap.WordIndex]))
	for i, word := range snap.Words {
		if i > 0 {
			style := pendingStyle
			if cursorAfter && i-1 == snap.WordIndex {
				style = cursorStyle
			}
			out = append(out, newStyledRune(' ', style))
		}
		target := []rune(word)
		switch {
		case i < snap.WordIndex:
			var typed []rune
			if i < len(snap.Committed) {
				typed = []rune(snap.Committed[i])
			}
			out = appendCommitted(out, target, typed)
		case i == snap.WordIndex:
			out = appendCurrent(out, target, []rune(snap.Typed))
		default:
			for _, r := range target {
				out = append(out, newStyledRune(r, pendingStyle))
			}
		}
	}
	if cursorAfter && snap.WordIndex == len(snap.Words)-1 {
		out = append(out, newStyledRune(' ', cursorStyle))
	}
	return out
}

func appendCommitted(out []styledRune, target, typed []rune) []styledRune {
	exact := string(target) == string(typed)
	for j, r := range target {
		style := committedStyle
		if !exact && (j >= len(typed) || typed[j] != r) {
			style = committedWrongStyle
		}
		out = append(out, newStyledRune(r, style))
	}
	if len(typed) > len(target) {
		for _, r := range typed[len(target):] {
			out = append(out, newStyledRune(r, committedWrongStyle))
		}
	}
	return out
}

func appendCurrent(out []styledRune, target, typed []rune) []styledRune {
	for j, r := range target {
		var style lipgloss.Style
		switch {
		case j < len(typed) && typed[j] == r:
			style = correctStyle
		case j < len(typed):
			style = incorrectStyle
		case j == len(typed):
			style = cursorStyle
		default:
			style = currentWordStyle
		}
		out = append(out, newStyledRune(r, style))
	}
	if len(typed) > len(target) {
		for _, r := range typed[len(target):] {
			out = append(out, newStyledRune(r, overflowStyle))
		}
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
