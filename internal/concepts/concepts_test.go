package concepts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typefast/internal/model"
)

func TestParseTOON(t *testing.T) {
	reply := `Here you go:
concept: Photosynthesis
definition: Process by which plants
   turn light into chemical energy.
---
CONCEPT: Osmosis
Definition: Diffusion of water across a membrane.
concept: X
definition: too short title is dropped here
---
concept: Enzyme
definition: short`

	got := ParseTOON(reply)
	assert.Equal(t, []model.Concept{
		{Title: "Photosynthesis", Text: "Process by which plants turn light into chemical energy."},
		{Title: "Osmosis", Text: "Diffusion of water across a membrane."},
	}, got)
}

func TestParseTOONSanitizesDefinitions(t *testing.T) {
	got := ParseTOON("concept: Circle area\ndefinition: A = π × r² for every circle ✓")
	require.Len(t, got, 1)
	assert.Equal(t, "A = pi times r squared for every circle", got[0].Text)
}

func TestParseTOONFallsBackToHeuristic(t *testing.T) {
	reply := `Cell membrane structure
Membrane: a lipid bilayer with embedded proteins.
Mitochondria overview
Powerhouse: produces most chemical energy of the cell.`
	got := ParseTOON(reply)
	assert.Equal(t, []model.Concept{
		{Title: "Cell membrane structure", Text: "Membrane: a lipid bilayer with embedded proteins."},
		{Title: "Mitochondria overview", Text: "Powerhouse: produces most chemical energy of the cell."},
	}, got)
	assert.Nil(t, ParseTOON("   "))
}

func TestExtractFromTextSkipsNoise(t *testing.T) {
	text := `INTRODUCTION TO BIOLOGY
Abstract thoughts on biology
Newton laws of motion
- bullet ignored
[1] cite
Inertia: an object stays at rest.
Exam takes 90 minutes long
Short one
tiny`
	got := ExtractFromText(text)
	require.Len(t, got, 1)
	assert.Equal(t, "Newton laws of motion", got[0].Title)
	// Lines that cannot start a concept are folded into the current definition.
	assert.Equal(t, "Inertia: an object stays at rest. Exam takes 90 minutes long Short one tiny", got[0].Text)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "x greater or equal 5 percent", Sanitize("x ≥ 5%"))
	assert.Equal(t, "café ñandú", Sanitize("café  ñandú ★"))
	assert.Equal(t, "alpha beta", Sanitize("αβ"))
}

func TestChunk(t *testing.T) {
	assert.Nil(t, Chunk("", 10, 2))
	assert.Equal(t, []string{"short"}, Chunk("short", 10, 2))

	text := strings.Repeat("a", 25)
	chunks := Chunk(text, 10, 2)
	assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 9)}, chunks)

	// The break snaps to a space only when it lies beyond 80% of the chunk.
	snapped := Chunk("aaaaaaaaa bbbbbbbbbbbb", 10, 0)
	assert.Equal(t, "aaaaaaaaa", snapped[0])
	notSnapped := Chunk("aa bbbbbbbbbbbbbbbbbbb", 10, 0)
	assert.Equal(t, "aa bbbbbbb", notSnapped[0])
}

func TestDedupe(t *testing.T) {
	in := []model.Concept{{Title: "A", Text: "1"}, {Title: "B", Text: "2"}, {Title: "A", Text: "3"}}
	assert.Equal(t, []model.Concept{{Title: "A", Text: "1"}, {Title: "B", Text: "2"}}, Dedupe(in))
}

type scriptedLLM struct {
	replies []string
	errs    []error
	prompts []string
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], err
	}
	return "", err
}

func TestAnalyzerRotatesStrategies(t *testing.T) {
	llm := &scriptedLLM{
		replies: []string{"", "nothing useful", "concept: Gravity\ndefinition: Attraction between masses.\n---\nconcept: Gravity\ndefinition: Duplicate title ignored.\n"},
		errs:    []error{errors.New("boom")},
	}
	a := NewAnalyzer(llm, 3, zerolog.Nop())

	got, err := a.AnalyzeText(context.Background(), "Gravity pulls things together.")
	require.NoError(t, err)
	assert.Equal(t, []model.Concept{{Title: "Gravity", Text: "Attraction between masses."}}, got)
	require.Len(t, llm.prompts, 3)
	assert.Contains(t, llm.prompts[0], "NO OTHER TEXT")
	assert.Contains(t, llm.prompts[1], "Extract 10 key concepts")
	assert.Contains(t, llm.prompts[2], "List main concepts")
	assert.Contains(t, llm.prompts[2], "TEXT:\nGravity pulls things together.")
}

func TestAnalyzerFallbackWithoutLLM(t *testing.T) {
	a := NewAnalyzer(nil, 0, zerolog.Nop())
	got, err := a.AnalyzeText(context.Background(), "Plate tectonics basics\nCrust: split into moving plates.")
	require.NoError(t, err)
	assert.Equal(t, []model.Concept{{Title: "Plate tectonics basics", Text: "Crust: split into moving plates."}}, got)
}

func TestAnalyzerErrors(t *testing.T) {
	a := NewAnalyzer(nil, 0, zerolog.Nop())
	_, err := a.AnalyzeText(context.Background(), " \n ")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = a.AnalyzeText(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoConcepts)

	_, err = a.AnalyzeFile(context.Background(), "notes.pdf", strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestAnalyzerTruncatesText(t *testing.T) {
	llm := &scriptedLLM{}
	a := NewAnalyzer(llm, 1, zerolog.Nop())
	_, _ = a.AnalyzeText(context.Background(), strings.Repeat("é", MaxTextRunes+100))
	require.Len(t, llm.prompts, 1)
	assert.Equal(t, MaxTextRunes, strings.Count(llm.prompts[0], "é"))
}

func TestAnalyzerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := &scriptedLLM{errs: []error{context.Canceled}}
	a := NewAnalyzer(llm, 3, zerolog.Nop())
	_, err := a.AnalyzeText(ctx, "Some text that is long enough")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, llm.prompts, 1)
}

func TestLoadJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"concepts":[{"titulo":"T","definicion":"some words"}]}`), 0o644))

	got, err := Load(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Equal(t, []model.Concept{{Title: "T", Text: "some words"}}, got)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"concepts":[]}`), 0o644))
	_, err = Load(context.Background(), nil, empty)
	assert.ErrorIs(t, err, ErrNoConcepts)

	_, err = Load(context.Background(), nil, filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestClientUploadsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AnalyzePath, r.URL.Path)
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		body, _ := io.ReadAll(f)
		assert.Equal(t, "notes.txt", hdr.Filename)
		assert.Equal(t, "hello", string(body))
		_ = json.NewEncoder(w).Encode(Response{Concepts: []model.Concept{{Title: "A", Text: "b c"}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", nil)
	got, err := c.Load(context.Background(), writeTemp(t, "notes.txt", "hello"))
	require.NoError(t, err)
	assert.Equal(t, []model.Concept{{Title: "A", Text: "b c"}}, got)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"empty list", http.StatusOK, `{"concepts":[]}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrNoConcepts)
		}},
		{"no concepts message", http.StatusBadRequest, `{"error":"No concepts extracted from file"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrNoConcepts)
		}},
		{"bad request", http.StatusBadRequest, `{"error":"No file"}`, func(t *testing.T, err error) {
			var up *UpstreamError
			require.ErrorAs(t, err, &up)
			assert.Equal(t, http.StatusBadRequest, up.StatusCode)
			assert.Equal(t, "No file", up.Message)
		}},
		{"server error without body", http.StatusInternalServerError, ``, func(t *testing.T, err error) {
			var up *UpstreamError
			require.ErrorAs(t, err, &up)
			assert.Equal(t, http.StatusInternalServerError, up.StatusCode)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			_, err := NewClient(srv.URL, nil).Upload(context.Background(), "a.txt", strings.NewReader("x"))
			tt.check(t, err)
		})
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := NewClient(url, nil).Upload(context.Background(), "a.txt", strings.NewReader("x"))
	require.Error(t, err)
	var up *UpstreamError
	assert.False(t, errors.As(err, &up))
}
