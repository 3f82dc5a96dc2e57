// Package history keeps the running aggregate of finished typing sessions.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/typefast/internal/model"
	"github.com/verte-zerg/typefast/internal/stats"
)

const (
	// SlotKey is the fixed key the aggregate is stored under.
	SlotKey = "typefast_history"
	// MaxRecentEntries bounds the recent entries FIFO.
	MaxRecentEntries = 5
)

// Store persists one opaque blob per key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Update folds entry into prev. Diffs compare the entry with the averages
// before the update.
func Update(prev model.HistoryAggregate, entry model.HistoryEntry) model.HistoryUpdate {
	next := model.HistoryAggregate{TotalGames: prev.TotalGames + 1}
	n := float64(next.TotalGames)
	next.AverageSpeed = float64(stats.RoundHalfUp(prev.AverageSpeed + (float64(entry.Speed)-prev.AverageSpeed)/n))
	next.AverageAccuracy = float64(stats.RoundHalfUp(prev.AverageAccuracy + (float64(entry.Accuracy)-prev.AverageAccuracy)/n))

	recent := make([]model.HistoryEntry, 0, len(prev.RecentEntries)+1)
	recent = append(recent, prev.RecentEntries...)
	recent = append(recent, entry)
	if len(recent) > MaxRecentEntries {
		recent = recent[len(recent)-MaxRecentEntries:]
	}
	next.RecentEntries = recent

	return model.HistoryUpdate{
		SpeedDiff:    stats.RoundHalfUp(float64(entry.Speed) - prev.AverageSpeed),
		AccuracyDiff: stats.RoundHalfUp(float64(entry.Accuracy) - prev.AverageAccuracy),
		Previous:     prev,
		Aggregate:    next,
	}
}

// Ledger reads and writes the aggregate through a Store.
type Ledger struct {
	store     Store
	retention time.Duration
	log       zerolog.Logger
}

// NewLedger creates a ledger. A zero retention keeps the slot forever.
func NewLedger(store Store, retention time.Duration, log zerolog.Logger) *Ledger {
	return &Ledger{store: store, retention: retention, log: log}
}

// Load returns the stored aggregate. A missing or unreadable blob yields
// the zero aggregate; only storage failures are returned.
func (l *Ledger) Load(ctx context.Context) (model.HistoryAggregate, error) {
	raw, ok, err := l.store.Get(ctx, SlotKey)
	if err != nil {
		return model.HistoryAggregate{}, fmt.Errorf("failed to read history: %w", err)
	}
	if !ok {
		return model.HistoryAggregate{}, nil
	}
	agg, err := decode(raw)
	if err != nil {
		l.log.Warn().Err(err).Msg("discarding unreadable history")
		return model.HistoryAggregate{}, nil
	}
	return agg, nil
}

// Record folds entry into the stored aggregate and writes it back.
func (l *Ledger) Record(ctx context.Context, entry model.HistoryEntry) (model.HistoryUpdate, error) {
	prev, err := l.Load(ctx)
	if err != nil {
		return model.HistoryUpdate{}, err
	}
	update := Update(prev, entry)
	raw, err := json.Marshal(update.Aggregate)
	if err != nil {
		return model.HistoryUpdate{}, fmt.Errorf("failed to encode history: %w", err)
	}
	if err := l.store.Set(ctx, SlotKey, raw, l.retention); err != nil {
		return model.HistoryUpdate{}, fmt.Errorf("failed to write history: %w", err)
	}
	l.log.Debug().Int("games", update.Aggregate.TotalGames).Msg("history updated")
	return update, nil
}

// Reset removes the stored aggregate.
func (l *Ledger) Reset(ctx context.Context) error {
	if err := l.store.Delete(ctx, SlotKey); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	return nil
}

var errCorrupt = errors.New("corrupt history aggregate")

func decode(raw []byte) (model.HistoryAggregate, error) {
	var agg model.HistoryAggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return model.HistoryAggregate{}, err
	}
	if agg.TotalGames < 0 || agg.AverageSpeed < 0 || agg.AverageAccuracy < 0 {
		return model.HistoryAggregate{}, errCorrupt
	}
	if len(agg.RecentEntries) > MaxRecentEntries {
		agg.RecentEntries = agg.RecentEntries[len(agg.RecentEntries)-MaxRecentEntries:]
	}
	return agg, nil
}
