package ranker

import (
	"fmt"
	"math"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/tokenizer"
)

// Fixed blend of the two relevance signals and the weight applied to terms
// that only entered the query through fuzzy expansion.
const (
	tfIdfWeight  = 0.3
	cosineWeight = 0.7
	fuzzyPenalty = 0.7
)

// Filename boosts. Fuzzy terms earn half of what original terms earn.
const (
	filenameTokenBoost     = 2.0
	filenameSubstringBoost = 1.0
	fuzzyTokenBoost        = 1.0
	fuzzySubstringBoost    = 0.5
)

// TermScore is the per-term breakdown reported in debug mode. TFIDF already
// includes the fuzzy penalty.
type TermScore struct {
	TF      float64 `json:"tf"`
	IDF     float64 `json:"idf"`
	TFIDF   float64 `json:"tfIdf"`
	IsFuzzy bool    `json:"isFuzzy"`
}

// Score is the full scoring outcome for one document.
type Score struct {
	Final         float64
	Base          float64
	TFIDF         float64
	Cosine        float64
	FilenameBoost float64
	Terms         map[string]TermScore
}

// CosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either norm is 0.
// Vectors of different length were built over different vocabularies.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	magA, magB := math.Sqrt(normA), math.Sqrt(normB)
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (magA * magB), nil
}

// FilenameBoost rewards documents whose filename mentions query terms. Each
// original term adds 2.0 when it is a token of the normalized filename and,
// independently, 1.0 when it is a substring of the lower-cased filename.
// Fuzzy terms add 1.0 and 0.5 under the same two checks.
func FilenameBoost(filename string, q QueryTerms) float64 {
	nameTokens := make(map[string]struct{})
	for _, t := range tokenizer.Normalize(filename) {
		nameTokens[t] = struct{}{}
	}
	lower := strings.ToLower(filename)

	var boost float64
	for _, term := range q.Original {
		if _, ok := nameTokens[term]; ok {
			boost += filenameTokenBoost
		}
		if strings.Contains(lower, term) {
			boost += filenameSubstringBoost
		}
	}
	for _, term := range q.Expanded {
		if !q.IsFuzzy(term) {
			continue
		}
		if _, ok := nameTokens[term]; ok {
			boost += fuzzyTokenBoost
		}
		if strings.Contains(lower, term) {
			boost += fuzzySubstringBoost
		}
	}
	return boost
}

// Scorer scores corpus documents against one expanded query.
type Scorer struct {
	stats       *Stats
	query       QueryTerms
	queryVector []float64
}

// NewScorer builds the query vector once; the expanded terms form the query
// pseudo-document.
func NewScorer(stats *Stats, query QueryTerms) *Scorer {
	return &Scorer{
		stats:       stats,
		query:       query,
		queryVector: stats.Vector(query.Expanded),
	}
}

// QueryVector returns the TF-IDF vector of the expanded query.
func (s *Scorer) QueryVector() []float64 {
	return s.queryVector
}

// Score computes the final score of the i-th corpus document.
func (s *Scorer) Score(doc int) (Score, error) {
	sc := Score{Terms: make(map[string]TermScore, len(s.query.Expanded))}
	for _, term := range s.query.Expanded {
		tf := s.stats.TF(term, doc)
		idf := s.stats.IDF(term)
		fuzzy := s.query.IsFuzzy(term)
		weight := 1.0
		if fuzzy {
			weight = fuzzyPenalty
		}
		tfIdf := tf * idf * weight
		sc.Terms[term] = TermScore{TF: tf, IDF: idf, TFIDF: tfIdf, IsFuzzy: fuzzy}
		sc.TFIDF += tfIdf
	}

	cos, err := CosineSimilarity(s.queryVector, s.stats.DocumentVector(doc))
	if err != nil {
		return Score{}, err
	}
	sc.Cosine = cos
	sc.Base = sc.TFIDF*tfIdfWeight + sc.Cosine*cosineWeight
	sc.FilenameBoost = FilenameBoost(s.stats.corpus.Doc(doc).Filename, s.query)
	sc.Final = sc.Base + sc.FilenameBoost
	if math.IsNaN(sc.Final) || math.IsInf(sc.Final, 0) {
		return Score{}, fmt.Errorf("%w: non-finite score for document %d", ErrCorpusMalformed, s.stats.corpus.Doc(doc).ID)
	}
	return sc, nil
}
