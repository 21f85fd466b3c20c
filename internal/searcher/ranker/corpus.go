package ranker

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Document is one entry of the corpus as handed over by the document store.
// Tokens are already normalized by the ingestion analyzer.
type Document struct {
	ID       int64
	Filename string
	Tokens   []string
	RawText  string
}

// Corpus is a read-only snapshot of every document visible to one ranking
// call. It is never mutated after construction.
type Corpus struct {
	docs []Document
}

// NewCorpus validates docs and wraps them in a snapshot. A token that is
// empty or contains whitespace means the stored content is corrupt and the
// whole call fails with ErrCorpusMalformed.
func NewCorpus(docs []Document) (*Corpus, error) {
	for i := range docs {
		for pos, tok := range docs[i].Tokens {
			if tok == "" || strings.ContainsAny(tok, " \t\r\n") {
				return nil, fmt.Errorf("%w: document %d token %d is %q",
					ErrCorpusMalformed, docs[i].ID, pos, tok)
			}
		}
	}
	return &Corpus{docs: docs}, nil
}

// Len returns totalDocs.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Doc returns the i-th document in snapshot order.
func (c *Corpus) Doc(i int) *Document {
	return &c.docs[i]
}

// Checksum fingerprints the snapshot. Two corpora with the same documents
// in the same order hash equal; it keys the result cache.
func (c *Corpus) Checksum() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for i := range c.docs {
		doc := &c.docs[i]
		binary.LittleEndian.PutUint64(buf[:], uint64(doc.ID))
		d.Write(buf[:])
		d.WriteString(doc.Filename)
		d.Write([]byte{0})
		for _, tok := range doc.Tokens {
			d.WriteString(tok)
			d.Write([]byte{' '})
		}
		d.Write([]byte{0})
	}
	return d.Sum64()
}
