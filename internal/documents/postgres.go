package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          BIGSERIAL PRIMARY KEY,
	filename    TEXT        NOT NULL,
	content     TEXT        NOT NULL,
	content_raw TEXT        NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS documents_created_at_idx ON documents (created_at DESC);
`

const documentColumns = `id, filename, content, content_raw, created_at`

// PostgresStore keeps documents in a single PostgreSQL table.
type PostgresStore struct {
	client *postgres.Client
	logger *slog.Logger
}

func NewPostgresStore(client *postgres.Client) *PostgresStore {
	return &PostgresStore{
		client: client,
		logger: slog.Default().With("component", "document-store", "driver", "postgres"),
	}
}

// EnsureSchema creates the documents table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating documents schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, doc NewDocument) (*Document, error) {
	out := &Document{Filename: doc.Filename, Content: doc.Content, ContentRaw: doc.ContentRaw}
	err := s.client.DB.QueryRowContext(ctx,
		`INSERT INTO documents (filename, content, content_raw) VALUES ($1, $2, $3) RETURNING id, created_at`,
		doc.Filename, doc.Content, doc.ContentRaw,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	s.logger.Debug("document created", "id", out.ID, "filename", out.Filename)
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Document, error) {
	row := s.client.DB.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, apperrors.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %d: %w", id, err)
	}
	return doc, nil
}

const selectNewestFirst = `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id DESC`

func (s *PostgresStore) List(ctx context.Context) ([]Document, error) {
	return s.query(ctx, selectNewestFirst)
}

func (s *PostgresStore) Corpus(ctx context.Context) ([]Document, error) {
	return s.query(ctx, selectNewestFirst)
}

// Delete locks the row before removing it so the returned filename is the
// one that was deleted.
func (s *PostgresStore) Delete(ctx context.Context, id int64) (*Document, error) {
	var deleted *Document
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE`, id)
		doc, err := scanDocument(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("document %d: %w", id, apperrors.ErrDocumentNotFound)
		}
		if err != nil {
			return fmt.Errorf("locking document %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
			return fmt.Errorf("deleting document %d: %w", id, err)
		}
		deleted = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("document deleted", "id", id)
	return deleted, nil
}

// Client exposes the connection pool so other tables can share it.
func (s *PostgresStore) Client() *postgres.Client {
	return s.client
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	return s.client.Close()
}

func (s *PostgresStore) query(ctx context.Context, q string) ([]Document, error) {
	rows, err := s.client.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	var doc Document
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Content, &doc.ContentRaw, &doc.CreatedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}
