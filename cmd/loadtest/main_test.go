package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	rec := &Recorder{}
	for i := 1; i <= 10; i++ {
		rec.add(sample{latency: time.Duration(i) * time.Millisecond, status: http.StatusOK, found: i % 2, fuzzy: i == 3})
	}
	rec.add(sample{latency: 50 * time.Millisecond, status: http.StatusServiceUnavailable})
	rec.add(sample{})

	s := rec.Summarize(2 * time.Second)
	assert.Equal(t, 12, s.Total)
	assert.Equal(t, 10, s.Succeeded)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 5, s.ZeroResults)
	assert.Equal(t, 1, s.Fuzzy)
	assert.Equal(t, 6.0, s.PerSecond)
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 50*time.Millisecond, s.Max)
	assert.Equal(t, 6*time.Millisecond, s.P50)
	assert.Equal(t, map[int]int{200: 10, 503: 1}, s.StatusCodes)

	var out bytes.Buffer
	printSummary(&out, s)
	assert.Contains(t, out.String(), "status 503")
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4}
	assert.Equal(t, time.Duration(2), percentile(sorted, 50))
	assert.Equal(t, time.Duration(4), percentile(sorted, 99))
	assert.Equal(t, time.Duration(1), percentile(sorted, 0))
}

func TestRunAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body.Query == "repot" {
			_, _ = w.Write([]byte(`{"results":[],"totalFound":1,"queryInfo":{"fuzzyMatches":["report"]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[],"totalFound":0,"queryInfo":{"fuzzyMatches":[]}}`))
	}))
	defer srv.Close()

	s := run(context.Background(), Config{
		BaseURL:     srv.URL,
		Concurrency: 2,
		Duration:    100 * time.Millisecond,
		Queries:     []string{"repot", "missing"},
	})
	require.Positive(t, s.Total)
	assert.Equal(t, s.Total, s.Succeeded)
	assert.Positive(t, s.Fuzzy)
	assert.Positive(t, s.ZeroResults)
}

func TestReadQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte("budget\n\n  travel guide \n"), 0o644))
	queries, err := readQueries(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"budget", "travel guide"}, queries)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = readQueries(empty)
	assert.Error(t, err)
}
