// Package ranker is the relevance engine. For every call it snapshots the
// corpus, builds a vocabulary, expands the query with fuzzy matches, scores
// each document with a blend of TF-IDF accumulation and cosine similarity
// plus a filename boost, and returns the top documents. Nothing is retained
// between calls, so concurrent calls need no locking.
//
// Working memory is O(documents x vocabulary) for the dense vectors plus
// O(query terms x vocabulary) edit-distance tables, which bounds the corpus
// size that stays interactive.
package ranker

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/tokenizer"
)

// ResultLimit caps the number of returned documents.
const ResultLimit = 20

const (
	MessageEmptyQuery  = "No valid terms found in query after preprocessing"
	MessageEmptyCorpus = "No documents found in database"
)

// Details is the scoring breakdown attached to a hit in debug mode.
type Details struct {
	QueryTerms       []string             `json:"queryTerms"`
	TermScores       map[string]TermScore `json:"termScores"`
	TotalScore       float64              `json:"totalScore"`
	CosineSimilarity float64              `json:"cosineSimilarity"`
	TFIDFScore       float64              `json:"tfIdfScore"`
	CombinedScore    float64              `json:"combinedScore"`
	FilenameBoost    float64              `json:"filenameBoost"`
}

// Hit is one ranked document.
type Hit struct {
	ID         int64    `json:"id"`
	Filename   string   `json:"filename"`
	Content    string   `json:"content"`
	ContentRaw string   `json:"content_raw"`
	Score      float64  `json:"score"`
	Details    *Details `json:"tfIdfDetails,omitempty"`
}

// QueryInfo describes how the query was interpreted.
type QueryInfo struct {
	OriginalQuery  string   `json:"originalQuery"`
	OriginalTerms  []string `json:"originalTerms"`
	ExpandedTerms  []string `json:"expandedTerms"`
	FuzzyMatches   []string `json:"fuzzyMatches"`
	TotalDocuments int      `json:"totalDocuments"`
}

// Result is the output of Rank. Message is set, and QueryInfo is nil, when
// the query or the corpus was empty.
type Result struct {
	Results    []Hit      `json:"results"`
	TotalFound int        `json:"totalFound"`
	QueryInfo  *QueryInfo `json:"queryInfo,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// Empty returns a result with no hits and an explanatory message.
func Empty(message string) *Result {
	return &Result{Results: []Hit{}, Message: message}
}

// Rank scores docs against query. The empty query and the empty corpus are
// not errors; they yield Empty results. Any returned error is a contract
// violation and no partial result accompanies it. docs is not modified.
//
// Hits are ordered by score descending; equal scores keep corpus order.
func Rank(query string, docs []Document, debug bool) (*Result, error) {
	terms := tokenizer.Normalize(query)
	if len(terms) == 0 {
		return Empty(MessageEmptyQuery), nil
	}
	if len(docs) == 0 {
		return Empty(MessageEmptyCorpus), nil
	}
	corpus, err := NewCorpus(docs)
	if err != nil {
		return nil, err
	}
	return RankCorpus(query, terms, corpus, debug)
}

// RankCorpus runs the pipeline on an already normalized query and a
// validated, non-empty corpus.
func RankCorpus(query string, terms []string, corpus *Corpus, debug bool) (*Result, error) {
	vocab := BuildVocabulary(corpus)
	q := Expand(terms, vocab)
	stats := NewStats(corpus, vocab)
	scorer := NewScorer(stats, q)

	hits := make([]Hit, 0)
	for i := 0; i < corpus.Len(); i++ {
		sc, err := scorer.Score(i)
		if err != nil {
			return nil, err
		}
		if sc.Final <= 0 {
			continue
		}
		doc := corpus.Doc(i)
		hit := Hit{
			ID:         doc.ID,
			Filename:   doc.Filename,
			Content:    tokenizer.Join(doc.Tokens),
			ContentRaw: doc.RawText,
			Score:      sc.Final,
		}
		if debug {
			hit.Details = &Details{
				QueryTerms:       q.Expanded,
				TermScores:       sc.Terms,
				TotalScore:       sc.Final,
				CosineSimilarity: sc.Cosine,
				TFIDFScore:       sc.TFIDF,
				CombinedScore:    sc.Base,
				FilenameBoost:    sc.FilenameBoost,
			}
		}
		hits = append(hits, hit)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	total := len(hits)
	if total > ResultLimit {
		hits = hits[:ResultLimit]
	}

	return &Result{
		Results:    hits,
		TotalFound: total,
		QueryInfo: &QueryInfo{
			OriginalQuery:  query,
			OriginalTerms:  q.Original,
			ExpandedTerms:  q.Expanded,
			FuzzyMatches:   q.FuzzyMatches(),
			TotalDocuments: corpus.Len(),
		},
	}, nil
}
