package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elonfeng/reciperadar/internal/scheduler"
	"github.com/elonfeng/reciperadar/internal/store"
	"github.com/elonfeng/reciperadar/pkg/capture"
	"github.com/elonfeng/reciperadar/pkg/recipe"
	"github.com/elonfeng/reciperadar/pkg/source"
)

const maxBodyBytes = 1 << 20

// Store is the part of the store the API reads.
type Store interface {
	ListCaptures(ctx context.Context, opts store.ListOpts) ([]store.Capture, error)
	CountBySource(ctx context.Context) (map[source.SourceType]int, error)
}

// Collector runs an on-demand collection pass.
type Collector interface {
	RunOnce(ctx context.Context, only source.SourceType) scheduler.Report
}

// Server provides the HTTP API.
type Server struct {
	store     Store
	engine    *capture.Engine
	collector Collector
	sources   []source.Source
	port      int
}

// New creates a new HTTP server.
func New(s Store, engine *capture.Engine, collector Collector, sources []source.Source, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:     s,
		engine:    engine,
		collector: collector,
		sources:   sources,
		port:      port,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/v1/score", s.handleScore)
	mux.HandleFunc("/api/v1/comments/rank", s.handleRankComments)
	mux.HandleFunc("/api/v1/captures", s.handleCaptures)
	mux.HandleFunc("/api/v1/sources", s.handleSources)
	mux.HandleFunc("/api/v1/collect", s.handleCollect)
	return mux
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("reciperadar server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var src recipe.Sources
	if !decode(w, r, &src) {
		return
	}

	res := s.engine.Select(src)
	writeJSON(w, http.StatusOK, map[string]any{
		"result":       res,
		"top_comments": nonNil(s.engine.RankComments(src.Comments)),
		"detected":     res.Score >= s.engine.Threshold(),
	})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}

	scorer := s.engine.Scorer()
	signals := scorer.Explain(req.Text)
	if signals == nil {
		signals = []recipe.Contribution{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"score":   scorer.Score(req.Text),
		"signals": signals,
	})
}

func (s *Server) handleRankComments(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Comments []string `json:"comments"`
	}
	if !decode(w, r, &req) {
		return
	}

	ranked := nonNil(s.engine.RankComments(req.Comments))
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  ranked,
		"count": len(ranked),
	})
}

func (s *Server) handleCaptures(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	opts := store.ListOpts{Limit: 50, Source: source.SourceType(q.Get("source"))}
	if v := q.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_score")
			return
		}
		opts.MinScore = recipe.Score(f)
	}
	if v := q.Get("detected"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid detected")
			return
		}
		opts.Detected = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = n
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since")
			return
		}
		opts.Since = t
	}

	captures, err := s.store.ListCaptures(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if captures == nil {
		captures = []store.Capture{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  captures,
		"count": len(captures),
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	counts, err := s.store.CountBySource(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type sourceInfo struct {
		Name     string `json:"name"`
		Enabled  bool   `json:"enabled"`
		Captures int    `json:"captures"`
	}

	enabled := make(map[source.SourceType]bool)
	for _, src := range s.sources {
		enabled[src.Name()] = true
	}

	infos := make([]sourceInfo, 0, len(source.AllSourceTypes()))
	for _, t := range source.AllSourceTypes() {
		infos = append(infos, sourceInfo{
			Name:     string(t),
			Enabled:  enabled[t],
			Captures: counts[t],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if s.collector == nil {
		writeError(w, http.StatusServiceUnavailable, "collection not configured")
		return
	}

	report := s.collector.RunOnce(r.Context(), source.SourceType(r.URL.Query().Get("source")))
	writeJSON(w, http.StatusOK, report)
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
