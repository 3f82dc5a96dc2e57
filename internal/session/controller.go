package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/typefast/internal/metrics"
	"github.com/verte-zerg/typefast/internal/model"
	"github.com/verte-zerg/typefast/internal/stats"
)

// HistoryDateLayout formats the date of a recorded session.
const HistoryDateLayout = "2006-01-02 15:04"

var (
	// ErrNoConcepts is returned by Start when no concept has any words to type.
	ErrNoConcepts = errors.New("no concepts to practice")
	// ErrNotComplete is returned by Finalize while the session is still running.
	ErrNotComplete = errors.New("session is not complete")
	// ErrRecordPending is returned by Finalize while a sealed session's history
	// write has not been resolved yet.
	ErrRecordPending = errors.New("history write still pending")
	// ErrStaleSession is returned by Resolve for a Pending from another session.
	ErrStaleSession = errors.New("pending result belongs to another session")
)

// Recorder stores a finished session and returns the history comparison.
type Recorder interface {
	Record(ctx context.Context, entry model.HistoryEntry) (model.HistoryUpdate, error)
}

// Options configures a Controller.
type Options struct {
	// OverrunGuard caps how far the buffer may grow past the target word.
	// nil means DefaultOverrunGuard; Guard(0) allows no slack.
	OverrunGuard *int
	Now          func() time.Time
	Logger       zerolog.Logger
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	SessionID    string
	Concept      model.Concept
	HasConcept   bool
	ConceptIndex int
	ConceptCount int
	Words        []string
	WordIndex    int
	Typed        string
	Committed    []string
	CorrectChars int
	TotalChars   int
	Active       bool
	Complete     bool
	Finalized    bool
}

// Controller owns the session lifecycle: start, key handling, completion and
// a single finalization. It is not safe for concurrent use; key events must
// be delivered one at a time in arrival order.
type Controller struct {
	recorder  Recorder
	opts      Options
	guard     int
	concepts  []model.Concept
	state     *State
	id        string
	log       zerolog.Logger
	pending   Pending
	result    *model.Result
	resultErr error
	listeners []func()
}

// NewController creates a controller. recorder may be nil, in which case
// finalized sessions are scored but not recorded.
func NewController(recorder Recorder, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	guard := DefaultOverrunGuard
	if opts.OverrunGuard != nil && *opts.OverrunGuard >= 0 {
		guard = *opts.OverrunGuard
	}
	return &Controller{
		recorder: recorder,
		opts:     opts,
		guard:    guard,
		log:      opts.Logger,
	}
}

// Guard returns an OverrunGuard option value.
func Guard(n int) *int { return &n }

// Subscribe registers fn to be called after every state change.
func (c *Controller) Subscribe(fn func()) {
	c.listeners = append(c.listeners, fn)
}

// Start begins a new session, discarding any previous one. Concepts without
// words are skipped.
func (c *Controller) Start(concepts []model.Concept) error {
	usable := make([]model.Concept, 0, len(concepts))
	for _, concept := range concepts {
		if len(Tokenize(concept.Text)) > 0 {
			usable = append(usable, concept)
		}
	}
	if len(usable) == 0 {
		return ErrNoConcepts
	}
	c.concepts = usable
	c.state = newState(c.opts.Now())
	c.id = uuid.NewString()
	c.log = c.opts.Logger.With().Str("session_id", c.id).Logger()
	c.pending = Pending{}
	c.result = nil
	c.resultErr = nil
	c.log.Info().Int("concepts", len(usable)).Int("skipped", len(concepts)-len(usable)).Msg("session started")
	c.notify()
	return nil
}

// Concepts returns the concepts of the current session.
func (c *Controller) Concepts() []model.Concept {
	return c.concepts
}

// HandleKey applies one key event and reports whether the state changed.
func (c *Controller) HandleKey(key Key) bool {
	if c.state == nil {
		return false
	}
	changed := Apply(c.state, c.concepts, key, c.guard)
	if !changed {
		return false
	}
	c.Complete()
	c.notify()
	return true
}

// Complete reports whether every concept has been typed. The first
// observation of completion stamps the end time and deactivates the session.
func (c *Controller) Complete() bool {
	if c.state == nil {
		return false
	}
	if c.state.ConceptIndex < len(c.concepts) {
		return false
	}
	if c.state.Active {
		c.state.Active = false
		c.state.EndedAt = c.opts.Now()
		c.log.Debug().Int("correct", c.state.CorrectChars).Int("total", c.state.TotalChars).Msg("session complete")
	}
	return true
}

// Pending is a scored session waiting for its history write. Record touches
// no controller state, so it may run off the goroutine that owns the
// controller.
type Pending struct {
	Result   model.Result
	Entry    model.HistoryEntry
	recorder Recorder
}

// Record writes the entry. Without a recorder it is a no-op.
func (p Pending) Record(ctx context.Context) (model.HistoryUpdate, error) {
	if p.recorder == nil {
		return model.HistoryUpdate{}, nil
	}
	return p.recorder.Record(ctx, p.Entry)
}

// Seal scores a completed session exactly once. fresh is false when the
// session was already sealed, in which case the first Pending is returned.
func (c *Controller) Seal() (p Pending, fresh bool, err error) {
	if !c.Complete() {
		return Pending{}, false, ErrNotComplete
	}
	if c.state.Finalized {
		return c.pending, false, nil
	}
	c.state.Finalized = true

	score := stats.Score(c.state.CorrectChars, c.state.TotalChars, c.state.EndedAt.Sub(c.state.StartedAt))
	metrics.ObserveSession(score.WPM, score.Accuracy)
	c.pending = Pending{
		Result: model.Result{
			SessionID: c.id,
			StartedAt: c.state.StartedAt,
			EndedAt:   c.state.EndedAt,
			Score:     score,
		},
		Entry: model.HistoryEntry{
			Date:     c.state.EndedAt.Format(HistoryDateLayout),
			Speed:    score.WPM,
			Accuracy: score.Accuracy,
		},
		recorder: c.recorder,
	}
	c.log.Info().Int("wpm", score.WPM).Int("accuracy", score.Accuracy).Msg("session scored")
	c.notify()
	return c.pending, true, nil
}

// Resolve folds the outcome of p.Record into the session result. Only the
// first outcome for the current session is kept.
func (c *Controller) Resolve(p Pending, update model.HistoryUpdate, recordErr error) (model.Result, error) {
	if c.state == nil || !c.state.Finalized || p.Result.SessionID != c.id {
		return p.Result, ErrStaleSession
	}
	if c.result != nil {
		return *c.result, c.resultErr
	}
	result := p.Result
	var err error
	switch {
	case recordErr != nil:
		err = fmt.Errorf("failed to record session: %w", recordErr)
		c.log.Error().Err(recordErr).Msg("failed to record session")
	case c.recorder != nil:
		result.SpeedDiff = update.SpeedDiff
		result.AccuracyDiff = update.AccuracyDiff
		result.Aggregate = update.Aggregate
		result.Recorded = true
	}
	c.result = &result
	c.resultErr = err
	c.log.Info().Bool("recorded", result.Recorded).Msg("session finalized")
	c.notify()
	return result, err
}

// Finalize seals, records and resolves in one call. Later calls return the
// first result without recomputing.
func (c *Controller) Finalize(ctx context.Context) (model.Result, error) {
	p, fresh, err := c.Seal()
	if err != nil {
		return model.Result{}, err
	}
	if !fresh {
		if c.result == nil {
			return p.Result, ErrRecordPending
		}
		return *c.result, c.resultErr
	}
	update, rerr := p.Record(ctx)
	return c.Resolve(p, update, rerr)
}

// Snapshot returns a copy of the state for rendering.
func (c *Controller) Snapshot() Snapshot {
	if c.state == nil {
		return Snapshot{}
	}
	s := c.state
	snap := Snapshot{
		SessionID:    c.id,
		ConceptIndex: s.ConceptIndex,
		ConceptCount: len(c.concepts),
		WordIndex:    s.WordIndex,
		Typed:        string(s.Typed),
		Committed:    append([]string(nil), s.Committed...),
		CorrectChars: s.CorrectChars,
		TotalChars:   s.TotalChars,
		Active:       s.Active,
		Complete:     s.ConceptIndex >= len(c.concepts),
		Finalized:    s.Finalized,
	}
	if s.ConceptIndex < len(c.concepts) {
		snap.Concept = c.concepts[s.ConceptIndex]
		snap.HasConcept = true
		snap.Words = append([]string(nil), s.Words(c.concepts)...)
	}
	return snap
}

func (c *Controller) notify() {
	for _, fn := range c.listeners {
		fn()
	}
}
