package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases", "Budget REPORT", []string{"budget", "report"}},
		{"splits on any whitespace", "a\tb\n c   d", []string{"a", "b", "c", "d"}},
		{"drops mixed tokens whole", "abc123 hello! ok", []string{"ok"}},
		{"drops non-ascii letters", "café naïve tea", []string{"tea"}},
		{"keeps duplicates", "go go go", []string{"go", "go", "go"}},
		{"empty", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestIsTerm(t *testing.T) {
	assert.True(t, IsTerm("abc"))
	assert.False(t, IsTerm(""))
	assert.False(t, IsTerm("Abc"))
	assert.False(t, IsTerm("a-b"))
	assert.False(t, IsTerm("é"))
}

func TestSplitJoin(t *testing.T) {
	assert.Equal(t, []string{"budget", "report"}, Split("budget  report "))
	assert.Empty(t, Split(""))
	assert.Equal(t, "budget report", Join([]string{"budget", "report"}))
	terms := []string{"alpha", "beta", "gamma"}
	assert.Equal(t, terms, Split(Join(terms)))
}

func TestAnalyzeRemovesStopwordsAndStems(t *testing.T) {
	a := NewAnalyzer(nil)
	got := a.Analyze("The documents and the searching, yang dan running!")
	assert.Equal(t, []string{"document", "search", "run"}, got)
}

func TestAnalyzeDropsNonAlphabetic(t *testing.T) {
	a := NewAnalyzer(&AnalyzerConfig{})
	got := a.Analyze("report_2024 v2 budget-plan 42 привет")
	assert.Equal(t, []string{"budget", "plan"}, got)
}

func TestAnalyzeSplitsOnAccentedLetters(t *testing.T) {
	a := NewAnalyzer(&AnalyzerConfig{})
	assert.Equal(t, []string{"caf", "na", "ve", "menu"}, a.Analyze("Café naïve menu"))
	assert.Equal(t, []string{"nergie"}, a.Analyze("Énergie"))
}

func TestAnalyzeStemsWithPorter2(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.Equal(t, []string{"die", "sky", "connect"}, a.Analyze("dying skies connection"))
}

func TestAnalyzeOutputSatisfiesNormalize(t *testing.T) {
	a := NewAnalyzer(nil)
	text := "Quarterly Revenue grew 12%; the CFO's outlook is optimistic. Énergie renouvelable!"
	terms := a.Analyze(text)
	assert.NotEmpty(t, terms)
	for _, term := range terms {
		assert.True(t, IsTerm(term), "term %q", term)
	}
	content := a.AnalyzeToContent(text)
	assert.Equal(t, terms, Normalize(content))
	assert.False(t, strings.Contains(content, "  "))
}

func TestAnalyzerWithoutStemming(t *testing.T) {
	a := NewAnalyzer(&AnalyzerConfig{Stopwords: map[string]struct{}{"the": {}}})
	assert.Equal(t, []string{"running", "documents"}, a.Analyze("the running documents"))
}

func BenchmarkAnalyze(b *testing.B) {
	text := strings.Repeat("Information retrieval systems combine tokenization, stemming, and stop word removal to normalize text into searchable terms. ", 50)
	a := NewAnalyzer(nil)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = a.Analyze(text)
	}
}

func BenchmarkNormalizeParallel(b *testing.B) {
	text := "distributed search engines process queries across multiple shards"
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Normalize(text)
		}
	})
}
