package ranker

const (
	// longTermLength is the length from which a query term tolerates two
	// edits instead of one.
	longTermLength = 4
	shortTermEdits = 1
	longTermEdits  = 2
)

// EditThreshold returns the maximum Levenshtein distance at which a
// vocabulary term counts as a fuzzy match of term.
func EditThreshold(term string) int {
	if len(term) >= longTermLength {
		return longTermEdits
	}
	return shortTermEdits
}

// Levenshtein returns the classic edit distance between a and b, each
// insertion, deletion and substitution costing 1. It fills the complete
// (len(a)+1)x(len(b)+1) table; inputs are expected to be lower-case.
func Levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	dp := make([][]int, la+1)
	for i := range dp {
		dp[i] = make([]int, lb+1)
		dp[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		dp[0][j] = j
	}
	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			dp[i][j] = min(
				dp[i-1][j]+1,      // deletion
				dp[i][j-1]+1,      // insertion
				dp[i-1][j-1]+cost, // substitution
			)
		}
	}
	return dp[la][lb]
}

// QueryTerms is the query after fuzzy expansion.
type QueryTerms struct {
	// Original holds the normalized query terms in query order, duplicates
	// included.
	Original []string
	// Expanded holds every distinct original term followed by the distinct
	// fuzzy matches, in discovery order.
	Expanded []string

	original map[string]struct{}
}

// Expand adds to the original terms every vocabulary term within
// EditThreshold of at least one of them. Original terms are always kept,
// even when absent from the vocabulary.
func Expand(original []string, vocab *Vocabulary) QueryTerms {
	q := QueryTerms{
		Original: original,
		Expanded: make([]string, 0, len(original)),
		original: make(map[string]struct{}, len(original)),
	}
	seen := make(map[string]struct{}, len(original))
	for _, term := range original {
		q.original[term] = struct{}{}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		q.Expanded = append(q.Expanded, term)
	}
	distinct := len(q.Expanded)
	for _, term := range q.Expanded[:distinct] {
		limit := EditThreshold(term)
		for _, candidate := range vocab.Terms() {
			if _, ok := seen[candidate]; ok {
				continue
			}
			if Levenshtein(term, candidate) <= limit {
				seen[candidate] = struct{}{}
				q.Expanded = append(q.Expanded, candidate)
			}
		}
	}
	return q
}

// IsFuzzy reports whether term entered the query only through expansion.
// Membership is checked against the whole original set.
func (q QueryTerms) IsFuzzy(term string) bool {
	_, ok := q.original[term]
	return !ok
}

// FuzzyMatches returns Expanded minus Original.
func (q QueryTerms) FuzzyMatches() []string {
	out := make([]string, 0, len(q.Expanded))
	for _, term := range q.Expanded {
		if q.IsFuzzy(term) {
			out = append(out, term)
		}
	}
	return out
}
