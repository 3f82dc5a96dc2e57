// Package model defines shared data structures.
package model

import "time"

// Concept is one title and text unit typed in sequence.
type Concept struct {
	Title string `json:"titulo"`
	Text  string `json:"definicion"`
}

// Score holds the metrics computed for a finished session.
type Score struct {
	WPM      int `json:"wpm"`
	Accuracy int `json:"accuracy"`
}

// HistoryEntry records one finished session.
type HistoryEntry struct {
	Date     string `json:"date" yaml:"date"`
	Speed    int    `json:"speed" yaml:"speed"`
	Accuracy int    `json:"accuracy" yaml:"accuracy"`
}

// HistoryAggregate carries running statistics across sessions.
type HistoryAggregate struct {
	TotalGames      int            `json:"totalGames" yaml:"totalGames"`
	AverageSpeed    float64        `json:"averageSpeed" yaml:"averageSpeed"`
	AverageAccuracy float64        `json:"averageAccuracy" yaml:"averageAccuracy"`
	RecentEntries   []HistoryEntry `json:"recentEntries" yaml:"recentEntries"`
}

// HistoryUpdate is the outcome of recording a session into the history.
type HistoryUpdate struct {
	SpeedDiff    int
	AccuracyDiff int
	Previous     HistoryAggregate
	Aggregate    HistoryAggregate
}

// Result is surfaced once a session is finalized.
type Result struct {
	SessionID    string
	StartedAt    time.Time
	EndedAt      time.Time
	Score        Score
	SpeedDiff    int
	AccuracyDiff int
	Aggregate    HistoryAggregate
	// Recorded is false when the history could not be updated.
	Recorded bool
}
