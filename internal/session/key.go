// Package session implements the typing session state machine.
package session

import (
	"unicode"
	"unicode/utf8"
)

// KeyKind classifies a key event.
type KeyKind int

const (
	// KeyNone is any key the session does not react to.
	KeyNone KeyKind = iota
	// KeyChar types a single printable character.
	KeyChar
	// KeyCommit finalizes the current word (space or enter).
	KeyCommit
	// KeyErase removes the last typed character (backspace).
	KeyErase
)

// Key is one discrete key press.
type Key struct {
	Kind KeyKind
	Rune rune
}

// Predefined keys.
var (
	CommitKey = Key{Kind: KeyCommit}
	EraseKey  = Key{Kind: KeyErase}
)

// CharKey returns a character key for r.
func CharKey(r rune) Key {
	return Key{Kind: KeyChar, Rune: r}
}

// ParseKey maps a key name to a Key. Recognized names are " ", "Enter",
// "Backspace" and any single printable character; everything else is inert.
func ParseKey(name string) Key {
	switch name {
	case " ", "Enter":
		return CommitKey
	case "Backspace":
		return EraseKey
	}
	if utf8.RuneCountInString(name) != 1 {
		return Key{}
	}
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return Key{}
	}
	return CharKey(r)
}
