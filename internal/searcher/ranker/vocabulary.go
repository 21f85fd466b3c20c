package ranker

// Vocabulary maps every distinct corpus term to a vector dimension. Terms
// are numbered in first-seen order while walking the corpus, so the mapping
// is deterministic for a given snapshot.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// BuildVocabulary collects the union of all document tokens. Every term
// becomes a dimension; there is no frequency pruning.
func BuildVocabulary(c *Corpus) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int)}
	for i := 0; i < c.Len(); i++ {
		for _, tok := range c.Doc(i).Tokens {
			if _, ok := v.index[tok]; ok {
				continue
			}
			v.index[tok] = len(v.terms)
			v.terms = append(v.terms, tok)
		}
	}
	return v
}

// Len is the number of dimensions.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Terms returns the terms in dimension order. The slice must not be modified.
func (v *Vocabulary) Terms() []string {
	return v.terms
}

// Index returns the dimension of term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}
