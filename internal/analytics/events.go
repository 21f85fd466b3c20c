// Package analytics tracks how the engine is used. Search handlers hand
// SearchEvents to a Collector, which batches them onto the analytics topic;
// an Aggregator consumes that topic and the document-events topic and keeps
// the running statistics served by Handler.
package analytics

import "time"

// EventSearchCompleted is the Kafka event-type header of a SearchEvent.
const EventSearchCompleted = "search.completed"

// SearchEvent describes one answered search.
type SearchEvent struct {
	Query         string    `json:"query"`
	OriginalTerms []string  `json:"originalTerms"`
	FuzzyMatches  []string  `json:"fuzzyMatches"`
	TotalFound    int       `json:"totalFound"`
	Returned      int       `json:"returned"`
	CorpusSize    int       `json:"corpusSize"`
	LatencyMs     int64     `json:"latencyMs"`
	CacheHit      bool      `json:"cacheHit"`
	Debug         bool      `json:"debug"`
	Outcome       string    `json:"outcome"`
	RequestID     string    `json:"requestId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
