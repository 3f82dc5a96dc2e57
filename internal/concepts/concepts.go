// Package concepts turns study material into the ordered concepts a
// session is typed from.
package concepts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/typefast/internal/model"
)

var (
	// ErrNoConcepts reports a valid response that contained no concepts.
	ErrNoConcepts = errors.New("no concepts extracted from file")
	// ErrUnsupportedFile reports a file type the analyzer cannot read.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrEmptyText reports a file without any text.
	ErrEmptyText = errors.New("empty text extracted")
)

// UpstreamError is a failure reported by the analysis service.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("analysis service returned status %d: %s", e.StatusCode, e.Message)
}

// Response is the wire shape of the analysis endpoint.
type Response struct {
	Concepts []model.Concept `json:"concepts,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Source produces concepts for a file.
type Source interface {
	Load(ctx context.Context, path string) ([]model.Concept, error)
}

// Load reads .json concept files directly and hands every other path to src.
func Load(ctx context.Context, src Source, path string) ([]model.Concept, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSONFile(path)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(path))
	}
	return src.Load(ctx, path)
}

// LoadJSONFile decodes a file holding a Response.
func LoadJSONFile(path string) ([]model.Concept, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read concepts file: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse concepts file: %w", err)
	}
	if len(resp.Concepts) == 0 {
		return nil, ErrNoConcepts
	}
	return resp.Concepts, nil
}

// Dedupe keeps the first concept for each title.
func Dedupe(in []model.Concept) []model.Concept {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Concept, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c.Title]; ok {
			continue
		}
		seen[c.Title] = struct{}{}
		out = append(out, c)
	}
	return out
}
