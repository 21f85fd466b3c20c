package tokenizer

import (
	"strings"
	"sync"

	snowballeng "github.com/kljensen/snowball/english"
)

// AnalyzerConfig is the immutable configuration of the ingestion pipeline.
type AnalyzerConfig struct {
	Stopwords map[string]struct{}
	Stem      bool
}

// DefaultAnalyzerConfig returns the process-wide English+Indonesian
// configuration. It is built once on first use and must not be modified.
var DefaultAnalyzerConfig = sync.OnceValue(func() *AnalyzerConfig {
	stop := make(map[string]struct{}, len(englishStopwords)+len(indonesianStopwords))
	for _, w := range englishStopwords {
		stop[w] = struct{}{}
	}
	for _, w := range indonesianStopwords {
		stop[w] = struct{}{}
	}
	return &AnalyzerConfig{Stopwords: stop, Stem: true}
})

// Analyzer normalizes document text for indexing.
type Analyzer struct {
	cfg *AnalyzerConfig
}

// NewAnalyzer creates an Analyzer. A nil cfg selects DefaultAnalyzerConfig.
func NewAnalyzer(cfg *AnalyzerConfig) *Analyzer {
	if cfg == nil {
		cfg = DefaultAnalyzerConfig()
	}
	return &Analyzer{cfg: cfg}
}

// Analyze lower-cases text, splits it into words, drops stop-words and
// non-alphabetic tokens, then stems what remains. The output satisfies the
// Normalize contract: every term matches ^[a-z]+$.
//
// Words are runs of ASCII letters, digits, underscores and basic Cyrillic
// letters. Any other rune separates words, so accented letters split a word
// ("café" yields "caf") instead of dropping it. Stemming is Porter2 (the
// Snowball English stemmer); a few words stem differently from classic
// Porter, e.g. "dying" becomes "die" rather than "dy".
func (a *Analyzer) Analyze(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if _, isStop := a.cfg.Stopwords[word]; isStop {
			continue
		}
		if !IsTerm(word) {
			continue
		}
		if a.cfg.Stem {
			word = snowballeng.Stem(word, false)
			// stored terms must stay within the query alphabet
			if !IsTerm(word) {
				continue
			}
		}
		terms = append(terms, word)
	}
	return terms
}

func isSeparator(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return false
	case r >= 'А' && r <= 'я':
		return false
	}
	return true
}

// AnalyzeToContent runs Analyze and joins the result for storage.
func (a *Analyzer) AnalyzeToContent(text string) string {
	return Join(a.Analyze(text))
}
