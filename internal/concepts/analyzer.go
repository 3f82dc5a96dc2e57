package concepts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/typefast/internal/model"
)

const (
	// MaxTextRunes caps how much of a file is analyzed.
	MaxTextRunes = 5000
	ChunkSize    = 6000
	ChunkOverlap = 500

	defaultAttempts = 3
	maxFileBytes    = 8 << 20
)

var strategies = []string{
	`OUTPUT MUST BE:
concept: [Name]
definition: [Description]
---
concept: [Name]
definition: [Description]
---
NO OTHER TEXT. START NOW:`,
	`Extract 10 key concepts in this format:
concept: name
definition: description
---`,
	`List main concepts as:
concept: Concept Name
definition: Explanation here
---`,
}

// Completer answers a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Analyzer extracts concepts from plain text files with an LLM, falling
// back to a heading heuristic.
type Analyzer struct {
	llm      Completer
	attempts int
	log      zerolog.Logger
}

// NewAnalyzer creates an analyzer. A nil llm uses only the heuristic.
func NewAnalyzer(llm Completer, attempts int, log zerolog.Logger) *Analyzer {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	return &Analyzer{llm: llm, attempts: attempts, log: log}
}

// Supported reports whether name has an extension the analyzer reads.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// Load analyzes the file at path.
func (a *Analyzer) Load(ctx context.Context, path string) ([]model.Concept, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()
	return a.AnalyzeFile(ctx, filepath.Base(path), f)
}

// AnalyzeFile reads r, named name, and analyzes its text.
func (a *Analyzer) AnalyzeFile(ctx context.Context, name string, r io.Reader) ([]model.Concept, error) {
	if !Supported(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(name))
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxFileBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(raw) {
		raw = []byte(strings.ToValidUTF8(string(raw), ""))
	}
	return a.AnalyzeText(ctx, string(raw))
}

// AnalyzeText extracts deduplicated concepts from text.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) ([]model.Concept, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if runes := []rune(text); len(runes) > MaxTextRunes {
		text = string(runes[:MaxTextRunes])
	}

	var found []model.Concept
	if a.llm != nil {
		chunks := Chunk(text, ChunkSize, ChunkOverlap)
		for i, chunk := range chunks {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			got, err := a.analyzeChunk(ctx, chunk)
			if err != nil {
				return nil, err
			}
			a.log.Debug().Int("chunk", i+1).Int("chunks", len(chunks)).Int("concepts", len(got)).Msg("chunk analyzed")
			found = append(found, got...)
		}
	}
	if len(found) == 0 {
		a.log.Info().Msg("using fallback extraction")
		found = ExtractFromText(text)
	}

	found = Dedupe(found)
	if len(found) == 0 {
		return nil, ErrNoConcepts
	}
	return found, nil
}

// analyzeChunk tries each prompt strategy in turn. LLM failures are logged
// and retried; only cancellation stops the loop early.
func (a *Analyzer) analyzeChunk(ctx context.Context, chunk string) ([]model.Concept, error) {
	for attempt := 0; attempt < a.attempts; attempt++ {
		prompt := fmt.Sprintf("EXTRACT KEY CONCEPTS FROM THIS TEXT. %s\n\nTEXT:\n%s", strategies[attempt%len(strategies)], chunk)
		reply, err := a.llm.Complete(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.log.Warn().Err(err).Int("attempt", attempt+1).Msg("llm call failed")
			continue
		}
		if got := ParseTOON(reply); len(got) > 0 {
			return got, nil
		}
		a.log.Debug().Int("attempt", attempt+1).Msg("llm reply had no concepts")
	}
	return nil, nil
}
