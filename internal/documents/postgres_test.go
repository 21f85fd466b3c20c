package documents

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/postgres"
)

// TestPostgresStore runs against a real database when DS_TEST_POSTGRES_HOST
// is set, e.g. the docker-compose postgres service.
func TestPostgresStore(t *testing.T) {
	host := os.Getenv("DS_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("DS_TEST_POSTGRES_HOST not set")
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Postgres.Host = host

	ctx := context.Background()
	client, err := postgres.New(ctx, cfg.Postgres)
	require.NoError(t, err)
	store := NewPostgresStore(client)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	doc, err := store.Create(ctx, NewDocument{Filename: "pg test", Content: "pg test", ContentRaw: "PG test"})
	require.NoError(t, err)
	assert.NotZero(t, doc.ID)

	got, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "pg test", got.Filename)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, doc.ID, list[0].ID)

	corpus, err := store.Corpus(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, corpus)
	assert.Equal(t, doc.ID, corpus[0].ID)

	deleted, err := store.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, deleted.ID)

	_, err = store.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}
