// Package server exposes concept extraction over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/typefast/internal/concepts"
	"github.com/verte-zerg/typefast/internal/metrics"
	"github.com/verte-zerg/typefast/internal/model"
)

const maxUploadBytes = 32 << 20

// Analyzer extracts concepts from an uploaded file.
type Analyzer interface {
	AnalyzeFile(ctx context.Context, name string, r io.Reader) ([]model.Concept, error)
}

// Options configures the HTTP surface.
type Options struct {
	Addr          string
	AllowedOrigin string
	Logger        zerolog.Logger
}

// Server serves the analysis API.
type Server struct {
	analyzer Analyzer
	opts     Options
	log      zerolog.Logger
	srv      *http.Server
}

// New creates a server. Metrics collectors are registered on first use.
func New(analyzer Analyzer, opts Options) *Server {
	metrics.MustRegister()
	s := &Server{analyzer: analyzer, opts: opts, log: opts.Logger}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Use(cors(s.opts.AllowedOrigin))
		r.Post("/analizar", s.handleAnalyze)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("analysis service listening")
		errc <- s.srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down analysis service")
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		metrics.IncExtract("no_file")
		writeJSON(w, http.StatusBadRequest, concepts.Response{Error: "No file"})
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			_ = cerr
		}
	}()

	log := s.log.With().Str("file", hdr.Filename).Str("request_id", middleware.GetReqID(r.Context())).Logger()
	log.Info().Int64("bytes", hdr.Size).Msg("file received")

	found, err := s.analyzer.AnalyzeFile(r.Context(), hdr.Filename, file)
	switch {
	case err == nil:
	case errors.Is(err, concepts.ErrUnsupportedFile):
		metrics.IncExtract("unsupported")
		writeJSON(w, http.StatusBadRequest, concepts.Response{Error: "Unsupported file type"})
		return
	case errors.Is(err, concepts.ErrEmptyText):
		metrics.IncExtract("empty_text")
		writeJSON(w, http.StatusBadRequest, concepts.Response{Error: "Empty text extracted"})
		return
	case errors.Is(err, concepts.ErrNoConcepts):
		metrics.IncExtract("no_concepts")
		writeJSON(w, http.StatusBadRequest, concepts.Response{Error: "No concepts extracted from file"})
		return
	default:
		metrics.IncExtract("error")
		log.Error().Err(err).Msg("analysis failed")
		writeJSON(w, http.StatusInternalServerError, concepts.Response{Error: err.Error()})
		return
	}

	metrics.IncExtract("ok")
	metrics.AddConcepts(len(found))
	log.Info().Int("concepts", len(found)).Msg("analysis finished")
	writeJSON(w, http.StatusOK, concepts.Response{Concepts: found})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// cors allows a single origin and answers preflight requests.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
