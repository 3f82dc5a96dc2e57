package session

import (
	"strings"
	"time"

	"github.com/verte-zerg/typefast/internal/model"
)

// DefaultOverrunGuard is how many characters past the target word the buffer may grow.
const DefaultOverrunGuard = 10

// Tokenize splits text into words on whitespace runs, dropping empty tokens.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// State is the mutable record of one typing session.
type State struct {
	ConceptIndex int
	WordIndex    int
	Typed        []rune
	// Committed holds the words committed within the current concept only.
	Committed    []string
	CorrectChars int
	TotalChars   int
	StartedAt    time.Time
	EndedAt      time.Time
	Active       bool
	Finalized    bool

	words    []string
	wordsFor int
}

func newState(now time.Time) *State {
	return &State{
		StartedAt: now,
		Active:    true,
		wordsFor:  -1,
	}
}

// Words returns the tokenized words of the current concept, or nil when
// the concept index is out of range.
func (s *State) Words(concepts []model.Concept) []string {
	if s.ConceptIndex < 0 || s.ConceptIndex >= len(concepts) {
		return nil
	}
	if s.wordsFor != s.ConceptIndex {
		s.words = Tokenize(concepts[s.ConceptIndex].Text)
		s.wordsFor = s.ConceptIndex
	}
	return s.words
}

// Apply runs one key event against the state and reports whether anything changed.
// Events are ignored when the session is inactive or no current word exists.
func Apply(s *State, concepts []model.Concept, key Key, overrunGuard int) bool {
	if !s.Active || len(concepts) == 0 {
		return false
	}
	words := s.Words(concepts)
	if s.WordIndex < 0 || s.WordIndex >= len(words) {
		return false
	}
	target := words[s.WordIndex]

	switch key.Kind {
	case KeyCommit:
		return commit(s, words, target)
	case KeyErase:
		if len(s.Typed) == 0 {
			return false
		}
		s.Typed = s.Typed[:len(s.Typed)-1]
		return true
	case KeyChar:
		return typeRune(s, target, key.Rune, overrunGuard)
	default:
		return false
	}
}

func commit(s *State, words []string, target string) bool {
	if len(s.Typed) == 0 {
		return false
	}
	typed := string(s.Typed)
	// The commit keystroke itself counts toward accuracy.
	s.TotalChars++
	if typed == target {
		s.CorrectChars++
	}
	s.Committed = append(s.Committed, typed)
	s.WordIndex++
	if s.WordIndex >= len(words) {
		s.ConceptIndex++
		s.WordIndex = 0
		s.Committed = nil
	}
	s.Typed = nil
	return true
}

func typeRune(s *State, target string, r rune, overrunGuard int) bool {
	targetRunes := []rune(target)
	if len(s.Typed) > len(targetRunes)+overrunGuard {
		return false
	}
	s.TotalChars++
	pos := len(s.Typed)
	if pos < len(targetRunes) && targetRunes[pos] == r {
		s.CorrectChars++
	}
	s.Typed = append(s.Typed, r)
	return true
}
