// Package handler serves ranked search and result-cache administration
// over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/tracing"
)

// MessageSearchFailed is the only detail a client gets for a ranking fault.
const MessageSearchFailed = "search failed"

const maxBodyBytes = 1 << 20

type SearchExecutor interface {
	Execute(ctx context.Context, query string, debug bool) (*executor.Outcome, error)
}

// CacheAdmin exposes result-cache counters and flushing.
type CacheAdmin interface {
	Stats() (hits, misses int64)
	Invalidate(ctx context.Context) (int64, error)
}

// Tracker receives one event per answered search.
type Tracker interface {
	Track(event analytics.SearchEvent)
}

type Handler struct {
	executor SearchExecutor
	parser   *parser.Parser
	cache    CacheAdmin
	tracker  Tracker
	tracer   *tracing.Tracer
	logger   *slog.Logger
}

// Option configures optional collaborators of a Handler.
type Option func(*Handler)

func WithCache(c CacheAdmin) Option {
	return func(h *Handler) { h.cache = c }
}

func WithTracker(t Tracker) Option {
	return func(h *Handler) { h.tracker = t }
}

func WithTracer(t *tracing.Tracer) Option {
	return func(h *Handler) { h.tracer = t }
}

func New(exec SearchExecutor, p *parser.Parser, opts ...Option) *Handler {
	h := &Handler{
		executor: exec,
		parser:   p,
		logger:   slog.Default().With("component", "search-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Search serves POST /api/search and POST /api/v1/search with a
// {query, debugMode} body.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := h.parser.Decode(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), apperrors.PublicMessage(err, parser.MessageQueryRequired))
		return
	}
	h.serve(w, r, req)
}

// SearchGet serves GET /api/v1/search?q=...&debug=true.
func (h *Handler) SearchGet(w http.ResponseWriter, r *http.Request) {
	req, err := h.parser.FromValues(r.URL.Query())
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), apperrors.PublicMessage(err, parser.MessageQueryRequired))
		return
	}
	h.serve(w, r, req)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, req *parser.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ctx, span := h.tracer.Start(r.Context(), "search", requestID)
	defer span.End()
	log := logger.FromContext(ctx)

	out, err := h.executor.Execute(ctx, req.Query, req.Debug)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("search execution failed", "query", req.Query, "status_code", status, "error", err)
		h.writeError(w, status, MessageSearchFailed)
		return
	}

	res := out.Result
	var originalTerms, fuzzy []string
	expanded := 0
	if res.QueryInfo != nil {
		originalTerms = res.QueryInfo.OriginalTerms
		fuzzy = res.QueryInfo.FuzzyMatches
		expanded = len(res.QueryInfo.ExpandedTerms)
	}
	span.SetAttr("outcome", out.Status)
	span.SetAttr("cache_hit", out.CacheHit)

	log.Info("search completed",
		"query", req.Query,
		"original_terms", len(out.Terms),
		"expanded_terms", expanded,
		"total_found", res.TotalFound,
		"returned", len(res.Results),
		"outcome", out.Status,
		"cache_hit", out.CacheHit,
		"latency_ms", out.Latency.Milliseconds(),
	)
	if h.tracker != nil {
		h.tracker.Track(analytics.SearchEvent{
			Query:         req.Query,
			OriginalTerms: originalTerms,
			FuzzyMatches:  fuzzy,
			TotalFound:    res.TotalFound,
			Returned:      len(res.Results),
			CorpusSize:    out.CorpusSize,
			LatencyMs:     out.Latency.Milliseconds(),
			CacheHit:      out.CacheHit,
			Debug:         req.Debug,
			Outcome:       out.Status,
			RequestID:     requestID,
			Timestamp:     time.Now().UTC(),
		})
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": true, "message": "caching is disabled"})
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": true, "message": "cache invalidation failed"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError keeps the search response shape: an empty results array
// accompanies every error.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{
		"error":   true,
		"message": message,
		"results": []ranker.Hit{},
	})
}
