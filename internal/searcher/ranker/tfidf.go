package ranker

import "math"

// TermFrequency is count(term in tokens) / len(tokens). An empty token list
// has no frequency for any term and yields 0 rather than NaN.
func TermFrequency(term string, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	count := 0
	for _, t := range tokens {
		if t == term {
			count++
		}
	}
	return float64(count) / float64(len(tokens))
}

// InverseDocumentFrequency is ln(totalDocs / docsContaining), or 0 when no
// document contains the term.
func InverseDocumentFrequency(docsContaining, totalDocs int) float64 {
	if docsContaining == 0 || totalDocs == 0 {
		return 0
	}
	return math.Log(float64(totalDocs) / float64(docsContaining))
}

// Stats holds the corpus-level statistics of one ranking call: document
// frequencies and per-document term counts. Values are identical to
// recounting from the raw token lists on every lookup.
type Stats struct {
	corpus  *Corpus
	vocab   *Vocabulary
	docFreq map[string]int
	counts  []map[string]int
}

// NewStats counts every document once.
func NewStats(c *Corpus, v *Vocabulary) *Stats {
	s := &Stats{
		corpus:  c,
		vocab:   v,
		docFreq: make(map[string]int, v.Len()),
		counts:  make([]map[string]int, c.Len()),
	}
	for i := 0; i < c.Len(); i++ {
		s.counts[i] = countTerms(c.Doc(i).Tokens)
		for term := range s.counts[i] {
			s.docFreq[term]++
		}
	}
	return s
}

// TF returns the frequency of term in the i-th document.
func (s *Stats) TF(term string, doc int) float64 {
	n := len(s.corpus.Doc(doc).Tokens)
	if n == 0 {
		return 0
	}
	return float64(s.counts[doc][term]) / float64(n)
}

// IDF returns the inverse document frequency of term over the corpus.
func (s *Stats) IDF(term string) float64 {
	return InverseDocumentFrequency(s.docFreq[term], s.corpus.Len())
}

// Vector builds the dense TF-IDF vector of tokens over the vocabulary. It
// works for corpus documents and for the query pseudo-document alike;
// tokens outside the vocabulary still count towards the length.
func (s *Stats) Vector(tokens []string) []float64 {
	vec := make([]float64, s.vocab.Len())
	if len(tokens) == 0 {
		return vec
	}
	for term, count := range countTerms(tokens) {
		idx, ok := s.vocab.Index(term)
		if !ok {
			continue
		}
		tf := float64(count) / float64(len(tokens))
		vec[idx] = tf * s.IDF(term)
	}
	return vec
}

// DocumentVector returns the TF-IDF vector of the i-th document.
func (s *Stats) DocumentVector(doc int) []float64 {
	return s.Vector(s.corpus.Doc(doc).Tokens)
}

func countTerms(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}
