package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/ranker"
)

func run(t *testing.T, storeDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	argv := append([]string{"docsearch", "--store-dir", storeDir}, args...)
	err := newApp(&out).Run(argv)
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestIngestSearchDelete(t *testing.T) {
	files := t.TempDir()
	store := t.TempDir()

	budget := writeFile(t, files, "Budget_Report.txt", "The final budget report for the quarter")
	travel := writeFile(t, files, "travel.txt", "Travel guide for mountain hiking")

	out, err := run(t, store, "ingest", "--workers", "1", budget, travel)
	require.NoError(t, err)
	assert.Contains(t, out, "OK   Budget_Report.txt -> #1")
	assert.Contains(t, out, "OK   travel.txt -> #2")

	out, err = run(t, store, "search", "--json", "budget")
	require.NoError(t, err)
	var res ranker.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Results, 1)
	assert.Equal(t, int64(1), res.Results[0].ID)
	assert.Equal(t, "Budget Report", res.Results[0].Filename)

	out, err = run(t, store, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Budget Report")
	assert.Contains(t, out, "travel")

	out, err = run(t, store, "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `deleted #1 "Budget Report"`)

	_, err = run(t, store, "delete", "1")
	assert.EqualError(t, err, "document 1 not found")
}

func TestSearchTable(t *testing.T) {
	files := t.TempDir()
	store := t.TempDir()

	_, err := run(t, store, "ingest", writeFile(t, files, "hiking.txt", "mountain hiking trails"))
	require.NoError(t, err)

	out, err := run(t, store, "search", "--debug", "mountain")
	require.NoError(t, err)
	assert.Contains(t, out, "terms: mountain")
	assert.Contains(t, out, "found 1 of 1 documents")
	assert.Contains(t, out, "tfidf=")
}

func TestSearchTiesRankNewestFirst(t *testing.T) {
	files := t.TempDir()
	store := t.TempDir()

	older := writeFile(t, files, "a.txt", "mountain hiking trails")
	newer := writeFile(t, files, "b.txt", "mountain hiking trails")
	_, err := run(t, store, "ingest", "--workers", "1", older, newer)
	require.NoError(t, err)

	out, err := run(t, store, "search", "--json", "mountain")
	require.NoError(t, err)
	var res ranker.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Results, 2)
	assert.Equal(t, res.Results[0].Score, res.Results[1].Score)
	assert.Equal(t, []int64{2, 1}, []int64{res.Results[0].ID, res.Results[1].ID})
}

func TestSearchMessages(t *testing.T) {
	store := t.TempDir()

	out, err := run(t, store, "search", "anything")
	require.NoError(t, err)
	assert.Equal(t, ranker.MessageEmptyCorpus+"\n", out)

	_, err = run(t, store, "search")
	assert.Error(t, err)
}

func TestIngestReportsFailures(t *testing.T) {
	files := t.TempDir()
	store := t.TempDir()

	good := writeFile(t, files, "notes.txt", "meeting notes")
	bad := writeFile(t, files, "slides.docx", "not allowed")

	out, err := run(t, store, "ingest", "--workers", "2", good, bad)
	assert.EqualError(t, err, "1 of 2 files failed")
	assert.Contains(t, out, "OK   notes.txt")
	assert.Contains(t, out, "FAIL slides.docx")
}

func TestDeleteRejectsBadID(t *testing.T) {
	store := t.TempDir()

	_, err := run(t, store, "delete", "abc")
	assert.EqualError(t, err, `invalid document ID "abc"`)

	_, err = run(t, store, "delete")
	assert.Error(t, err)
}
