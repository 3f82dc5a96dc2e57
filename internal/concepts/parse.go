package concepts

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/typefast/internal/model"
)

const (
	minTitleLen      = 2
	minDefinitionLen = 10
)

var (
	toonHeader = regexp.MustCompile(`(?is)concept:\s*(.+?)\s*\n\s*definition:\s*`)
	toonStop   = regexp.MustCompile(`(?i)---|concept:`)

	skipHeaders = []string{"version", "abstract", "introduction", "conclusion", "references", "acknowledg"}
	skipWords   = []string{"pass", "minutes", "hours"}
)

// ParseTOON reads blocks of the form
//
//	concept: Name
//	definition: Description
//	---
//
// Short titles or definitions are dropped. When no block parses, the
// heuristic ExtractFromText runs instead.
func ParseTOON(text string) []model.Concept {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []model.Concept
	pos := 0
	for pos < len(text) {
		loc := toonHeader.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		title := collapse(text[pos+loc[2] : pos+loc[3]])
		defStart := pos + loc[1]
		defEnd := len(text)
		if stop := toonStop.FindStringIndex(text[defStart:]); stop != nil {
			defEnd = defStart + stop[0]
		}
		def := collapse(text[defStart:defEnd])
		pos = defEnd

		if utf8.RuneCountInString(title) >= minTitleLen && utf8.RuneCountInString(def) >= minDefinitionLen {
			out = append(out, model.Concept{Title: title, Text: Sanitize(def)})
		}
	}

	if len(out) == 0 {
		return ExtractFromText(text)
	}
	return out
}

// ExtractFromText guesses concepts from free text: a short line that looks
// like a heading starts a concept and the lines after it form its definition.
func ExtractFromText(text string) []model.Concept {
	var (
		out     []model.Concept
		title   string
		defined []string
	)
	flush := func() {
		if title == "" || len(defined) == 0 {
			return
		}
		def := strings.Join(defined, " ")
		if utf8.RuneCountInString(def) >= minDefinitionLen {
			out = append(out, model.Concept{Title: title, Text: Sanitize(def)})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if containsAny(lower, skipHeaders) {
			continue
		}
		if looksLikeHeading(line, lower) {
			flush()
			title = line
			defined = nil
			continue
		}
		if title != "" && !strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "[") {
			defined = append(defined, line)
		}
	}
	flush()
	return out
}

func looksLikeHeading(line, lower string) bool {
	n := utf8.RuneCountInString(line)
	return n > 10 && n < 150 &&
		!strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "-") &&
		!strings.HasSuffix(line, "**") &&
		!isUpper(line) &&
		!strings.Contains(line, ":") &&
		!containsAny(lower, skipWords)
}

// isUpper reports whether s has cased letters and all of them are upper case.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
