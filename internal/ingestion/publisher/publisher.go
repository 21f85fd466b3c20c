// Package publisher announces corpus changes on the document-events topic.
// Publishing is best-effort: the document store is the source of truth and
// a lost event only delays cache cleanup and analytics.
package publisher

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/documents"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/kafka"
)

const publishTimeout = 2 * time.Second

// EventProducer is satisfied by *kafka.Producer.
type EventProducer interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Publisher turns store changes into DocumentEvents.
type Publisher struct {
	producer EventProducer
	logger   *slog.Logger
}

// New creates a Publisher. A nil producer makes every call a no-op.
func New(producer EventProducer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "document-publisher"),
	}
}

// Created announces a stored document.
func (p *Publisher) Created(ctx context.Context, doc *documents.Document, format ingestion.Format, termCount, sizeBytes int, latency time.Duration) {
	p.publish(ctx, ingestion.DocumentEvent{
		Type:       ingestion.EventDocumentCreated,
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Format:     format,
		TermCount:  termCount,
		SizeBytes:  sizeBytes,
		LatencyMs:  latency.Milliseconds(),
		OccurredAt: time.Now().UTC(),
	})
}

// Deleted announces a removed document.
func (p *Publisher) Deleted(ctx context.Context, doc *documents.Document) {
	p.publish(ctx, ingestion.DocumentEvent{
		Type:       ingestion.EventDocumentDeleted,
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, event ingestion.DocumentEvent) {
	if p == nil || p.producer == nil {
		return
	}
	// the request may already be finishing; the event should still go out
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := p.producer.Publish(ctx, kafka.Event{
		Key:   strconv.FormatInt(event.DocumentID, 10),
		Type:  event.Type,
		Value: event,
	})
	if err != nil {
		p.logger.Warn("document event not published",
			"type", event.Type,
			"doc_id", event.DocumentID,
			"error", err,
		)
	}
}
