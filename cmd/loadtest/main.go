// Command loadtest drives concurrent ranked searches against a running
// server and reports throughput, latency percentiles and status codes.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:3000 -concurrency 20 -duration 30s
//	go run ./cmd/loadtest -queries queries.txt -debug
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
)

var defaultQueries = []string{
	"budget report",
	"annual budget",
	"travel guide",
	"meeting notes",
	"project plan",
	"repot",
	"finanical statement",
	"quarterly revenue",
	"laporan keuangan",
	"employee handbook",
	"the and of",
	"research paper",
	"invoice",
	"contract agreement",
	"mountain travelling",
}

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Debug       bool
	Queries     []string
}

// sample is the outcome of one search request. status is 0 on transport
// failure.
type sample struct {
	latency time.Duration
	status  int
	found   int
	fuzzy   bool
}

// Recorder collects samples from every worker.
type Recorder struct {
	mu      sync.Mutex
	samples []sample
}

func (r *Recorder) add(s sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

// Summary is the aggregate of a run.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	ZeroResults int
	Fuzzy       int
	PerSecond   float64
	Min, Avg    time.Duration
	P50         time.Duration
	P95         time.Duration
	P99         time.Duration
	Max         time.Duration
	StatusCodes map[int]int
}

func (r *Recorder) Summarize(elapsed time.Duration) Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{Total: len(r.samples), StatusCodes: make(map[int]int)}
	latencies := make([]time.Duration, 0, len(r.samples))
	var sum time.Duration
	for _, smp := range r.samples {
		if smp.status == 0 {
			s.Failed++
			continue
		}
		s.StatusCodes[smp.status]++
		latencies = append(latencies, smp.latency)
		sum += smp.latency
		if smp.status != http.StatusOK {
			s.Failed++
			continue
		}
		s.Succeeded++
		if smp.found == 0 {
			s.ZeroResults++
		}
		if smp.fuzzy {
			s.Fuzzy++
		}
	}
	if elapsed > 0 {
		s.PerSecond = float64(s.Total) / elapsed.Seconds()
	}
	if len(latencies) > 0 {
		slices.Sort(latencies)
		s.Min = latencies[0]
		s.Max = latencies[len(latencies)-1]
		s.Avg = sum / time.Duration(len(latencies))
		s.P50 = percentile(latencies, 50)
		s.P95 = percentile(latencies, 95)
		s.P99 = percentile(latencies, 99)
	}
	return s
}

// searchResponse is the part of the ranking output the report needs.
type searchResponse struct {
	TotalFound int `json:"totalFound"`
	QueryInfo  *struct {
		FuzzyMatches []string `json:"fuzzyMatches"`
	} `json:"queryInfo"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "base URL of the search server")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	debug := flag.Bool("debug", false, "request scoring details")
	queriesFile := flag.String("queries", "", "file with one query per line (built-in set when empty)")
	flag.Parse()

	queries := defaultQueries
	if *queriesFile != "" {
		var err error
		if queries, err = readQueries(*queriesFile); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}
	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Debug:       *debug,
		Queries:     queries,
	}

	fmt.Printf("load testing %s: %d workers for %s over %d queries\n", cfg.BaseURL, cfg.Concurrency, cfg.Duration, len(cfg.Queries))
	summary := run(context.Background(), cfg)
	printSummary(os.Stdout, summary)
	if summary.Total == 0 {
		fmt.Fprintln(os.Stderr, "no requests completed; is the server running?")
		os.Exit(1)
	}
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var queries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%s contains no queries", path)
	}
	return queries, nil
}

func run(ctx context.Context, cfg Config) Summary {
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	rec := &Recorder{}
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				s, ok := search(ctx, client, cfg, cfg.Queries[i%len(cfg.Queries)])
				if ok {
					rec.add(s)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return rec.Summarize(time.Since(start))
}

// search sends one query. ok is false when the run ended mid-request.
func search(ctx context.Context, client *http.Client, cfg Config, query string) (s sample, ok bool) {
	body, _ := json.Marshal(map[string]any{"query": query, "debugMode": cfg.Debug})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/v1/search", bytes.NewReader(body))
	if err != nil {
		return sample{}, true
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	s.latency = time.Since(start)
	if err != nil {
		return s, ctx.Err() == nil
	}
	defer resp.Body.Close()

	s.status = resp.StatusCode
	var sr searchResponse
	if resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&sr) == nil {
		s.found = sr.TotalFound
		s.fuzzy = sr.QueryInfo != nil && len(sr.QueryInfo.FuzzyMatches) > 0
	}
	return s, true
}

func printSummary(w io.Writer, s Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "requests\t%d\n", s.Total)
	fmt.Fprintf(tw, "succeeded\t%d\n", s.Succeeded)
	fmt.Fprintf(tw, "failed\t%d\n", s.Failed)
	fmt.Fprintf(tw, "zero results\t%d\n", s.ZeroResults)
	fmt.Fprintf(tw, "fuzzy expanded\t%d\n", s.Fuzzy)
	fmt.Fprintf(tw, "requests/sec\t%.2f\n", s.PerSecond)
	fmt.Fprintf(tw, "latency min/avg/max\t%s / %s / %s\n", s.Min, s.Avg, s.Max)
	fmt.Fprintf(tw, "latency p50/p95/p99\t%s / %s / %s\n", s.P50, s.P95, s.P99)
	codes := make([]int, 0, len(s.StatusCodes))
	for code := range s.StatusCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Fprintf(tw, "status %d\t%d\n", code, s.StatusCodes[code])
	}
	_ = tw.Flush()
}

// percentile uses the nearest-rank method on sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(p/100*float64(len(sorted))+0.999999) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
