// Package executor runs one search: it snapshots the corpus from the
// document store, consults the optional result cache, ranks and records
// metrics and trace spans.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/documents"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/tracing"
)

// CorpusProvider yields every stored document in a stable order.
type CorpusProvider interface {
	Corpus(ctx context.Context) ([]documents.Document, error)
}

// ResultCache memoizes ranking output for an unchanged corpus. compute runs
// on a miss; hit reports whether the result came from the cache.
type ResultCache interface {
	GetOrCompute(ctx context.Context, checksum uint64, query string, debug bool,
		compute func() (*ranker.Result, error)) (result *ranker.Result, hit bool, err error)
}

// Outcome is a ranking result plus what the caller needs for logging and
// analytics.
type Outcome struct {
	Result     *ranker.Result
	Terms      []string
	CacheHit   bool
	CorpusSize int
	Status     string
	Latency    time.Duration
}

type Executor struct {
	corpus  CorpusProvider
	cache   ResultCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New returns an Executor. cache and m may be nil.
func New(corpus CorpusProvider, cache ResultCache, m *metrics.Metrics) *Executor {
	return &Executor{
		corpus:  corpus,
		cache:   cache,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

// Execute ranks the stored corpus against query. The empty query is
// detected before the store is touched. Contract violations from the ranker
// are returned wrapped; callers must not show partial results.
func (e *Executor) Execute(ctx context.Context, query string, debug bool) (*Outcome, error) {
	start := time.Now()
	out, err := e.execute(ctx, query, debug)
	if err != nil {
		e.observe(&Outcome{Status: metrics.OutcomeError, Latency: time.Since(start)})
		return nil, err
	}
	out.Latency = time.Since(start)
	e.observe(out)
	return out, nil
}

func (e *Executor) execute(ctx context.Context, query string, debug bool) (*Outcome, error) {
	terms := tokenizer.Normalize(query)
	if len(terms) == 0 {
		return &Outcome{Result: ranker.Empty(ranker.MessageEmptyQuery), Status: metrics.OutcomeEmptyQuery}, nil
	}

	corpus, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if corpus.Len() == 0 {
		return &Outcome{Result: ranker.Empty(ranker.MessageEmptyCorpus), Terms: terms, Status: metrics.OutcomeEmptyCorpus}, nil
	}

	rank := func() (*ranker.Result, error) {
		_, span := tracing.StartChild(ctx, "rank")
		defer span.End()
		res, err := ranker.RankCorpus(query, terms, corpus, debug)
		if err == nil {
			span.SetAttr("total_found", res.TotalFound)
			span.SetAttr("expanded_terms", len(res.QueryInfo.ExpandedTerms))
		}
		return res, err
	}

	var (
		res *ranker.Result
		hit bool
	)
	if e.cache != nil {
		res, hit, err = e.cache.GetOrCompute(ctx, corpus.Checksum(), query, debug, rank)
	} else {
		res, err = rank()
	}
	if err != nil {
		return nil, fmt.Errorf("ranking %q: %w", query, err)
	}

	status := metrics.OutcomeOK
	if res.TotalFound == 0 {
		status = metrics.OutcomeZeroResult
	}
	return &Outcome{
		Result:     res,
		Terms:      terms,
		CacheHit:   hit,
		CorpusSize: corpus.Len(),
		Status:     status,
	}, nil
}

// snapshot reads the store and validates the stored token streams.
func (e *Executor) snapshot(ctx context.Context) (*ranker.Corpus, error) {
	ctx, span := tracing.StartChild(ctx, "fetch_corpus")
	defer span.End()

	stored, err := e.corpus.Corpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching corpus: %w: %w", apperrors.ErrStoreUnavailable, err)
	}
	span.SetAttr("documents", len(stored))
	return ranker.NewCorpus(ToRankerDocuments(stored))
}

// ToRankerDocuments converts stored documents to ranking input. Content is
// split on single spaces, the format the ingestion analyzer writes.
func ToRankerDocuments(stored []documents.Document) []ranker.Document {
	docs := make([]ranker.Document, len(stored))
	for i, d := range stored {
		docs[i] = ranker.Document{
			ID:       d.ID,
			Filename: d.Filename,
			Tokens:   tokenizer.Split(d.Content),
			RawText:  d.ContentRaw,
		}
	}
	return docs
}

func (e *Executor) observe(out *Outcome) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(out.Status).Inc()
	cacheStatus := "miss"
	switch {
	case e.cache == nil:
		cacheStatus = "disabled"
	case out.CacheHit:
		cacheStatus = "hit"
	}
	e.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(out.Latency.Seconds())
	if out.Result == nil {
		return
	}
	e.metrics.SearchResultsCount.Observe(float64(len(out.Result.Results)))
	if info := out.Result.QueryInfo; info != nil {
		e.metrics.FuzzyExpansions.Observe(float64(len(info.FuzzyMatches)))
	}
	if out.Status != metrics.OutcomeEmptyQuery {
		e.metrics.CorpusDocuments.Set(float64(out.CorpusSize))
	}
}
