// Package documents persists uploaded documents. Two backends implement
// Store: PostgreSQL for the server and an embedded BadgerDB for the CLI and
// local development.
package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/postgres"
)

// Document is one stored upload. Content holds the analyzed terms joined by
// single spaces; ContentRaw is the extracted text before analysis.
type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
	ContentRaw string    `json:"content_raw"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewDocument is the input of Store.Create.
type NewDocument struct {
	Filename   string
	Content    string
	ContentRaw string
}

// Store is the document repository. Get and Delete return an error wrapping
// apperrors.ErrDocumentNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, doc NewDocument) (*Document, error)
	Get(ctx context.Context, id int64) (*Document, error)
	// List returns every document, newest first.
	List(ctx context.Context) ([]Document, error)
	// Corpus returns every document newest first (created_at, then id,
	// descending). Ranking ties keep this order.
	Corpus(ctx context.Context) ([]Document, error)
	// Delete removes the document and returns what was removed.
	Delete(ctx context.Context, id int64) (*Document, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the Store selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(client)
		if err := store.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return store, nil
	case config.DriverBadger:
		return OpenBadgerStore(cfg.Storage.BadgerDir, cfg.Storage.InMemory)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
