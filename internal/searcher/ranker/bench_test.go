package ranker

import (
	"fmt"
	"testing"
)

var benchTerms = []string{
	"search", "engine", "index", "query", "rank", "score", "vector", "corpus",
	"token", "stem", "filter", "match", "fuzzy", "distance", "weight", "cosine",
}

func benchDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		tokens := make([]string, 0, 24)
		for j := 0; j < 24; j++ {
			tokens = append(tokens, benchTerms[(i*7+j*3)%len(benchTerms)])
		}
		docs[i] = Document{ID: int64(i + 1), Filename: fmt.Sprintf("doc %d", i), Tokens: tokens}
	}
	return docs
}

// BenchmarkRank measures a full ranking call at various corpus sizes.
func BenchmarkRank(b *testing.B) {
	for _, n := range []int{100, 1000, 5000} {
		docs := benchDocs(n)
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Rank("serch cosine ranking", docs, false); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLevenshtein(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Levenshtein("distributed", "distribution")
	}
}
