package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/metrics"
)

const (
	maxLatencySamples = 10000
	topListSize       = 10
)

type AggregatedStats struct {
	TotalSearches       int64        `json:"total_searches"`
	CacheHits           int64        `json:"cache_hits"`
	CacheMisses         int64        `json:"cache_misses"`
	ZeroResultCount     int64        `json:"zero_result_count"`
	EmptyQueryCount     int64        `json:"empty_query_count"`
	DocumentsIngested   int64        `json:"documents_ingested"`
	DocumentsDeleted    int64        `json:"documents_deleted"`
	AvgLatencyMs        float64      `json:"avg_latency_ms"`
	P50LatencyMs        int64        `json:"p50_latency_ms"`
	P95LatencyMs        int64        `json:"p95_latency_ms"`
	P99LatencyMs        int64        `json:"p99_latency_ms"`
	TopQueries          []QueryCount `json:"top_queries"`
	ZeroResultQueries   []QueryCount `json:"zero_result_queries"`
	TopFuzzyCorrections []QueryCount `json:"top_fuzzy_corrections"`
	QueriesPerMinute    float64      `json:"queries_per_minute"`
}

// Snapshot is a persisted copy of AggregatedStats.
type Snapshot struct {
	Stats      AggregatedStats `json:"stats"`
	CapturedAt time.Time       `json:"captured_at"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator keeps running statistics over search and document events.
// Latency percentiles cover the most recent maxLatencySamples searches.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	emptyQueries      int64
	docsIngested      int64
	docsDeleted       int64
	latencies         []int64
	latencyNext       int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	fuzzyCounts       map[string]int64
	startTime         time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		fuzzyCounts:       make(map[string]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleMessage is a kafka.MessageHandler for both the analytics and the
// document-events topics. Events are routed by their type header.
// Undecodable messages are logged and skipped.
func (a *Aggregator) HandleMessage(ctx context.Context, msg kafka.Message) error {
	switch msg.Type {
	case EventSearchCompleted, "":
		event, err := kafka.DecodeJSON[SearchEvent](msg.Value)
		if err != nil {
			a.logger.Error("failed to decode search event", "error", err, "key", string(msg.Key))
			return nil
		}
		a.RecordSearch(event)
	case ingestion.EventDocumentCreated, ingestion.EventDocumentDeleted:
		event, err := kafka.DecodeJSON[ingestion.DocumentEvent](msg.Value)
		if err != nil {
			a.logger.Error("failed to decode document event", "error", err, "key", string(msg.Key))
			return nil
		}
		a.RecordDocument(event)
	default:
		a.logger.Debug("ignoring event", "type", msg.Type)
	}
	return nil
}

// PublishBatch records events in-process. It lets a Collector feed the
// aggregator directly when Kafka is disabled.
func (a *Aggregator) PublishBatch(ctx context.Context, events []kafka.Event) error {
	for _, e := range events {
		if err := a.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Publish records a single event in-process, the counterpart of
// PublishBatch for the ingestion publisher.
func (a *Aggregator) Publish(ctx context.Context, e kafka.Event) error {
	switch v := e.Value.(type) {
	case SearchEvent:
		a.RecordSearch(v)
	case ingestion.DocumentEvent:
		a.RecordDocument(v)
	default:
		return fmt.Errorf("unsupported analytics event %T", e.Value)
	}
	return nil
}

func (a *Aggregator) RecordSearch(event SearchEvent) {
	query := strings.ToLower(strings.TrimSpace(event.Query))

	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	switch event.Outcome {
	case metrics.OutcomeEmptyQuery:
		a.emptyQueries++
	case metrics.OutcomeZeroResult:
		a.zeroResults++
		a.zeroResultQueries[query]++
	}
	if query != "" {
		a.queryCounts[query]++
	}
	for _, term := range event.FuzzyMatches {
		a.fuzzyCounts[term]++
	}

	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.latencyNext] = event.LatencyMs
		a.latencyNext = (a.latencyNext + 1) % maxLatencySamples
	}
}

func (a *Aggregator) RecordDocument(event ingestion.DocumentEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch event.Type {
	case ingestion.EventDocumentCreated:
		a.docsIngested++
	case ingestion.EventDocumentDeleted:
		a.docsDeleted++
	}
}

// Restore seeds the counters from a persisted snapshot. Latency samples
// are not restored.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches += s.TotalSearches
	a.cacheHits += s.CacheHits
	a.cacheMisses += s.CacheMisses
	a.zeroResults += s.ZeroResultCount
	a.emptyQueries += s.EmptyQueryCount
	a.docsIngested += s.DocumentsIngested
	a.docsDeleted += s.DocumentsDeleted
	for _, q := range s.TopQueries {
		a.queryCounts[q.Query] += q.Count
	}
	for _, q := range s.ZeroResultQueries {
		a.zeroResultQueries[q.Query] += q.Count
	}
	for _, q := range s.TopFuzzyCorrections {
		a.fuzzyCounts[q.Query] += q.Count
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:     a.totalSearches,
		CacheHits:         a.cacheHits,
		CacheMisses:       a.cacheMisses,
		ZeroResultCount:   a.zeroResults,
		EmptyQueryCount:   a.emptyQueries,
		DocumentsIngested: a.docsIngested,
		DocumentsDeleted:  a.docsDeleted,
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, topListSize)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, topListSize)
	stats.TopFuzzyCorrections = topN(a.fuzzyCounts, topListSize)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then query ascending.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
