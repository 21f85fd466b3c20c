package cache

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/kafka"
)

// Invalidator flushes the query cache whenever a document event arrives.
type Invalidator struct {
	cache  *QueryCache
	logger *slog.Logger
}

func NewInvalidator(c *QueryCache) *Invalidator {
	return &Invalidator{
		cache:  c,
		logger: slog.Default().With("component", "cache-invalidator"),
	}
}

// HandleMessage is a kafka.MessageHandler for the document-events topic.
// Undecodable messages are logged and skipped; a failed flush is returned
// so the message is redelivered.
func (inv *Invalidator) HandleMessage(ctx context.Context, msg kafka.Message) error {
	event, err := kafka.DecodeJSON[ingestion.DocumentEvent](msg.Value)
	if err != nil {
		inv.logger.Error("failed to decode document event", "error", err, "key", string(msg.Key))
		return nil
	}
	switch event.Type {
	case ingestion.EventDocumentCreated, ingestion.EventDocumentDeleted:
	default:
		inv.logger.Debug("ignoring event", "type", event.Type)
		return nil
	}

	deleted, err := inv.cache.Invalidate(ctx)
	if err != nil {
		return err
	}
	inv.logger.Debug("cache flushed for document event",
		"type", event.Type,
		"doc_id", event.DocumentID,
		"keys_deleted", deleted,
	)
	return nil
}
