// Package service implements the document lifecycle: validate, extract,
// analyze and store uploads; list, fetch and delete stored documents; and
// bulk ingestion through a worker pool.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/documents"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/extractor"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/metrics"
)

// Service coordinates the document store with extraction, analysis and
// event publishing.
type Service struct {
	store       documents.Store
	validator   *validator.Validator
	analyzer    *tokenizer.Analyzer
	publisher   *publisher.Publisher
	metrics     *metrics.Metrics
	bulkWorkers int
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher announces created and deleted documents.
func WithPublisher(p *publisher.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records ingestion counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBulkWorkers sets the BulkIngest pool size. Default is
// runtime.NumCPU(), minimum 1.
func WithBulkWorkers(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = 1
		}
		s.bulkWorkers = n
	}
}

// New creates a Service. A nil analyzer selects the default English and
// Indonesian pipeline.
func New(store documents.Store, v *validator.Validator, analyzer *tokenizer.Analyzer, opts ...Option) *Service {
	if analyzer == nil {
		analyzer = tokenizer.NewAnalyzer(nil)
	}
	s := &Service{
		store:       store,
		validator:   v,
		analyzer:    analyzer,
		bulkWorkers: max(runtime.NumCPU(), 1),
		logger:      slog.Default().With("component", "ingestion-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stores one upload. The stored filename is the cleaned display name
// and the stored content is the analyzed term stream.
func (s *Service) Ingest(ctx context.Context, up *ingestion.Upload) (*documents.Document, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if up != nil && up.Filename == "" {
		named := *up
		named.Filename = ingestion.DefaultFilename
		up = &named
	}
	format, err := s.validator.Validate(up)
	if err != nil {
		return nil, err
	}
	name := up.Filename
	text, err := extractor.Extract(format, up.Data)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", name, err)
	}
	terms := s.analyzer.Analyze(text)

	doc, err := s.store.Create(ctx, documents.NewDocument{
		Filename:   ingestion.CleanFilename(name),
		Content:    tokenizer.Join(terms),
		ContentRaw: text,
	})
	if err != nil {
		return nil, fmt.Errorf("storing %s: %w", name, err)
	}

	latency := time.Since(start)
	if s.metrics != nil {
		s.metrics.DocumentsIngested.WithLabelValues(string(format)).Inc()
	}
	s.publisher.Created(ctx, doc, format, len(terms), len(up.Data), latency)
	log.Info("document ingested",
		"doc_id", doc.ID,
		"filename", doc.Filename,
		"format", format,
		"terms", len(terms),
		"latency_ms", latency.Milliseconds(),
	)
	return doc, nil
}

// Delete removes a document and returns it.
func (s *Service) Delete(ctx context.Context, id int64) (*documents.Document, error) {
	doc, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.DocumentsDeleted.Inc()
	}
	s.publisher.Deleted(ctx, doc)
	logger.FromContext(ctx).Info("document deleted", "doc_id", doc.ID, "filename", doc.Filename)
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*documents.Document, error) {
	return s.store.Get(ctx, id)
}

// List returns every document, newest first.
func (s *Service) List(ctx context.Context) ([]documents.Document, error) {
	return s.store.List(ctx)
}

// BulkResult is the outcome for one file of a BulkIngest call.
type BulkResult struct {
	Filename string
	Document *documents.Document
	Err      error
}

// BulkIngest ingests uploads concurrently. Results are in input order; a
// failed file does not stop the others.
func (s *Service) BulkIngest(ctx context.Context, uploads []ingestion.Upload) ([]BulkResult, error) {
	pool, err := ants.NewPool(s.bulkWorkers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]BulkResult, len(uploads))
	var wg sync.WaitGroup
	for i := range uploads {
		results[i].Filename = uploads[i].Filename
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i].Document, results[i].Err = s.Ingest(ctx, &uploads[i])
		})
		if err != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("submitting %s: %w", uploads[i].Filename, err)
		}
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("bulk ingest finished", "files", len(uploads), "failed", failed, "workers", s.bulkWorkers)
	return results, nil
}
