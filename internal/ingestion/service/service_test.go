package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/documents"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/metrics"
)

type recordingProducer struct {
	mu    sync.Mutex
	types []string
}

func (r *recordingProducer) Publish(ctx context.Context, event kafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, event.Type)
	return nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, documents.Store) {
	t.Helper()
	store, err := documents.OpenBadgerStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	v := validator.New(1<<20, []string{".pdf", ".txt"})
	return New(store, v, nil, opts...), store
}

func TestIngestText(t *testing.T) {
	prod := &recordingProducer{}
	m := metrics.New(prometheus.NewRegistry())
	svc, _ := newTestService(t, WithPublisher(publisher.New(prod)), WithMetrics(m))

	doc, err := svc.Ingest(context.Background(), &ingestion.Upload{
		Filename: "Budget_Report.txt",
		Data:     []byte("The budget reports are final."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Budget Report", doc.Filename)
	assert.Equal(t, "budget report final", doc.Content)
	assert.Equal(t, "The budget reports are final.", doc.ContentRaw)

	assert.Equal(t, []string{ingestion.EventDocumentCreated}, prod.types)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsIngested.WithLabelValues("txt")))
}

func TestIngestRejectsUnsupported(t *testing.T) {
	svc, store := newTestService(t)
	_, err := svc.Ingest(context.Background(), &ingestion.Upload{Filename: "photo.png", Data: []byte{1, 2}})
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFile)

	docs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngestBrokenPDF(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Ingest(context.Background(), &ingestion.Upload{Filename: "scan.pdf", Data: []byte("garbage")})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
}

func TestDelete(t *testing.T) {
	prod := &recordingProducer{}
	svc, _ := newTestService(t, WithPublisher(publisher.New(prod)))
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, &ingestion.Upload{Filename: "notes.txt", Data: []byte("meeting notes")})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes", deleted.Filename)

	_, err = svc.Delete(ctx, doc.ID)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
	assert.Equal(t, []string{ingestion.EventDocumentCreated, ingestion.EventDocumentDeleted}, prod.types)
}

func TestBulkIngest(t *testing.T) {
	svc, store := newTestService(t, WithBulkWorkers(3))
	uploads := make([]ingestion.Upload, 0, 10)
	for i := 0; i < 9; i++ {
		uploads = append(uploads, ingestion.Upload{
			Filename: fmt.Sprintf("doc_%d.txt", i),
			Data:     []byte("searchable content"),
		})
	}
	uploads = append(uploads, ingestion.Upload{Filename: "bad.docx"})

	results, err := svc.BulkIngest(context.Background(), uploads)
	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, r := range results[:9] {
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("doc %d", i), r.Document.Filename)
	}
	assert.ErrorIs(t, results[9].Err, apperrors.ErrUnsupportedFile)

	docs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 9)
}

func TestBulkIngestCancelled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := svc.BulkIngest(ctx, []ingestion.Upload{{Filename: "a.txt", Data: []byte("a")}})
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestIngestDefaultsMissingFilename(t *testing.T) {
	svc, _ := newTestService(t)
	doc, err := svc.Ingest(context.Background(), &ingestion.Upload{Data: []byte("untitled text")})
	require.NoError(t, err)
	assert.Equal(t, "DocumentUnknown", doc.Filename)
}
