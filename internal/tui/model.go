// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/typefast/internal/concepts"
	"github.com/verte-zerg/typefast/internal/model"
	"github.com/verte-zerg/typefast/internal/session"
	"github.com/verte-zerg/typefast/internal/stats"
)

// User-visible failure messages.
const (
	MsgNoConcepts   = "No concepts found. The AI returned an empty list."
	MsgBackendError = "Error connecting to backend."
)

type phase int

const (
	phaseLoading phase = iota
	phaseError
	phasePlaying
	phaseDone
)

// LoadFunc fetches the concepts to practice.
type LoadFunc func(ctx context.Context) ([]model.Concept, error)

// HistoryReader loads the prior history aggregate.
type HistoryReader interface {
	Load(ctx context.Context) (model.HistoryAggregate, error)
}

// Options configures a Model.
type Options struct {
	Path    string
	Load    LoadFunc
	History HistoryReader
	Logger  zerolog.Logger
}

type conceptsLoadedMsg struct {
	concepts []model.Concept
	err      error
}

type historyLoadedMsg struct {
	agg model.HistoryAggregate
	err error
}

// finalizedMsg carries the history write for a sealed session back to Update.
type finalizedMsg struct {
	pending session.Pending
	update  model.HistoryUpdate
	err     error
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	ctrl *session.Controller
	opts Options
	log  zerolog.Logger

	phase    phase
	spinner  spinner.Model
	progress progress.Model
	errMsg   string

	width  int
	height int

	concepts   []model.Concept
	prior      model.HistoryAggregate
	finalizing bool
	result     model.Result
	resultErr  error

	passage string
	dirty   bool
}

var (
	correctStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle         = currentWordStyle.Underline(true)
	overflowStyle       = incorrectStyle.Underline(true)
	committedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A9A7A"))
	committedWrongStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9A5A5A"))
	titleStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	footerStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle           = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6E6E6E")).Padding(1, 3)
)

// NewModel constructs a typing TUI model around ctrl.
func NewModel(ctrl *session.Controller, opts Options) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = currentWordStyle
	m := &Model{
		ctrl:     ctrl,
		opts:     opts,
		log:      opts.Logger,
		phase:    phaseLoading,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	ctrl.Subscribe(func() { m.dirty = true })
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadConcepts, m.loadHistory)
}

func (m *Model) loadConcepts() tea.Msg {
	found, err := m.opts.Load(context.Background())
	return conceptsLoadedMsg{concepts: found, err: err}
}

func (m *Model) loadHistory() tea.Msg {
	if m.opts.History == nil {
		return historyLoadedMsg{}
	}
	agg, err := m.opts.History.Load(context.Background())
	return historyLoadedMsg{agg: agg, err: err}
}

// recordCmd runs only the history write; the controller is never touched
// off the Update goroutine.
func recordCmd(p session.Pending) tea.Cmd {
	return func() tea.Msg {
		update, err := p.Record(context.Background())
		return finalizedMsg{pending: p, update: update, err: err}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, m.contentWidth()-12)
		m.dirty = true
		return m, nil
	case spinner.TickMsg:
		if m.phase != phaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case conceptsLoadedMsg:
		m.handleLoaded(msg)
		return m, nil
	case historyLoadedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("failed to load history")
		}
		if !m.finalizing {
			m.prior = msg.agg
		}
		return m, nil
	case finalizedMsg:
		res, err := m.ctrl.Resolve(msg.pending, msg.update, msg.err)
		if errors.Is(err, session.ErrStaleSession) {
			m.log.Warn().Str("session_id", msg.pending.Result.SessionID).Msg("dropping result of a replaced session")
			return m, nil
		}
		m.result = res
		m.resultErr = err
		if res.Recorded {
			m.prior = res.Aggregate
		}
		m.phase = phaseDone
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleLoaded(msg conceptsLoadedMsg) {
	if msg.err == nil {
		msg.err = m.ctrl.Start(msg.concepts)
	}
	switch {
	case msg.err == nil:
		m.concepts = msg.concepts
		m.finalizing = false
		m.result = model.Result{}
		m.resultErr = nil
		m.phase = phasePlaying
	case errors.Is(msg.err, concepts.ErrNoConcepts), errors.Is(msg.err, session.ErrNoConcepts):
		m.log.Warn().Err(msg.err).Msg("no concepts to practice")
		m.phase = phaseError
		m.errMsg = MsgNoConcepts
	default:
		m.log.Error().Err(msg.err).Msg("failed to load concepts")
		m.phase = phaseError
		m.errMsg = MsgBackendError + " " + msg.err.Error()
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.phase {
	case phasePlaying:
		if msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		for _, key := range keysFromMsg(msg) {
			m.ctrl.HandleKey(key)
		}
		if !m.finalizing && m.ctrl.Complete() {
			m.finalizing = true
			p, _, err := m.ctrl.Seal()
			if err != nil {
				m.log.Error().Err(err).Msg("failed to score session")
				return m, nil
			}
			return m, recordCmd(p)
		}
		return m, nil
	case phaseDone:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "r":
			if err := m.ctrl.Start(m.concepts); err != nil {
				m.phase = phaseError
				m.errMsg = MsgNoConcepts
				return m, nil
			}
			m.finalizing = false
			m.result = model.Result{}
			m.resultErr = nil
			m.phase = phasePlaying
		}
		return m, nil
	case phaseError:
		if s := msg.String(); s == "q" || s == "esc" {
			return m, tea.Quit
		}
	}
	return m, nil
}

// keysFromMsg maps a terminal key event to session keys. Pasted runes
// arrive in one message and are replayed in order.
func keysFromMsg(msg tea.KeyMsg) []session.Key {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		return []session.Key{session.EraseKey}
	case tea.KeySpace, tea.KeyEnter:
		return []session.Key{session.CommitKey}
	case tea.KeyRunes:
		keys := make([]session.Key, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if r == ' ' {
				keys = append(keys, session.CommitKey)
				continue
			}
			keys = append(keys, session.CharKey(r))
		}
		return keys
	}
	return nil
}

func (m *Model) contentWidth() int {
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.phase {
	case phaseLoading:
		content = fmt.Sprintf("%s Extracting concepts from %s...", m.spinner.View(), filepath.Base(m.opts.Path))
	case phaseError:
		content = incorrectStyle.Render(m.errMsg) + "\n\n" + footerStyle.Render("press q to quit")
	case phasePlaying:
		content = m.renderPlaying()
	case phaseDone:
		content = m.renderDone()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderPlaying() string {
	snap := m.ctrl.Snapshot()
	if !snap.HasConcept {
		return m.spinner.View() + " Saving results..."
	}
	if m.dirty || m.passage == "" {
		runes := buildPassage(snap)
		if m.width > 0 {
			m.passage = lipgloss.NewStyle().Width(m.contentWidth()).Render(wrapStyledRunes(runes, m.contentWidth()))
		} else {
			m.passage = renderStyledRunes(runes)
		}
		m.dirty = false
	}
	ratio := float64(snap.ConceptIndex) / float64(snap.ConceptCount)
	progressLine := fmt.Sprintf("%s  %d / %d", m.progress.ViewAs(ratio), snap.ConceptIndex+1, snap.ConceptCount)
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(snap.Concept.Title),
		"",
		m.passage,
		"",
		progressLine,
	)
}

func (m *Model) renderDone() string {
	res := m.result
	lines := []string{
		titleStyle.Render("All Done!"),
		"",
		fmt.Sprintf("Speed     %d WPM", res.Score.WPM),
		fmt.Sprintf("Accuracy  %d%%", res.Score.Accuracy),
	}
	if res.Recorded {
		lines = append(lines,
			"",
			fmt.Sprintf("vs. average  %s WPM  %s%%", stats.FormatDiff(res.SpeedDiff), stats.FormatDiff(res.AccuracyDiff)),
			fmt.Sprintf("Games played %d", res.Aggregate.TotalGames),
		)
		if len(res.Aggregate.RecentEntries) > 0 {
			lines = append(lines, "", footerStyle.Render("Recent sessions"))
			lines = append(lines, stats.RecentTable(res.Aggregate.RecentEntries)...)
		}
	} else if m.resultErr != nil {
		lines = append(lines, "", incorrectStyle.Render("History not saved: "+m.resultErr.Error()))
	}
	lines = append(lines, "", footerStyle.Render("r restart · q quit"))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	if m.prior.TotalGames == 0 {
		return ""
	}
	return footerStyle.Render(fmt.Sprintf("Average %.0f WPM · %.0f%% over %d games",
		m.prior.AverageSpeed, m.prior.AverageAccuracy, m.prior.TotalGames))
}
