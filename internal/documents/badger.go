package documents

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
)

const (
	documentPrefix    = "doc:"
	documentIDSeq     = "docseq"
	sequenceBandwidth = 100
)

// documentKey encodes the id big-endian so key order equals id order.
func documentKey(id int64) []byte {
	key := make([]byte, len(documentPrefix)+8)
	copy(key, documentPrefix)
	binary.BigEndian.PutUint64(key[len(documentPrefix):], uint64(id))
	return key
}

// badgerLogger routes badger's internal logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...any) {
	l.logger.Error(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Warningf(msg string, items ...any) {
	l.logger.Warn(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Infof(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Debugf(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

// BadgerStore keeps documents in an embedded BadgerDB as JSON values.
type BadgerStore struct {
	db     *badger.DB
	idSeq  *badger.Sequence
	logger *slog.Logger
}

// OpenBadgerStore opens (creating if needed) the database at dir. With
// inMemory set, dir is ignored and nothing touches the disk.
func OpenBadgerStore(dir string, inMemory bool) (*BadgerStore, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating badger dir %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	logger := slog.Default().With("component", "document-store", "driver", "badger")
	opts.Logger = &badgerLogger{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	seq, err := db.GetSequence([]byte(documentIDSeq), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening id sequence: %w", err)
	}
	return &BadgerStore{db: db, idSeq: seq, logger: logger}, nil
}

func (s *BadgerStore) nextID() (int64, error) {
	id, err := s.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// sequences start at 0; ids start at 1
	if id == 0 {
		if id, err = s.idSeq.Next(); err != nil {
			return 0, err
		}
	}
	return int64(id), nil
}

func (s *BadgerStore) Create(ctx context.Context, in NewDocument) (*Document, error) {
	id, err := s.nextID()
	if err != nil {
		return nil, fmt.Errorf("allocating document id: %w", err)
	}
	doc := &Document{
		ID:         id,
		Filename:   in.Filename,
		Content:    in.Content,
		ContentRaw: in.ContentRaw,
		CreatedAt:  time.Now().UTC(),
	}
	value, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(id), value)
	})
	if err != nil {
		return nil, fmt.Errorf("writing document %d: %w", id, err)
	}
	s.logger.Debug("document created", "id", id, "filename", doc.Filename)
	return doc, nil
}

func (s *BadgerStore) Get(ctx context.Context, id int64) (*Document, error) {
	var doc *Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = readDocument(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *BadgerStore) List(ctx context.Context) ([]Document, error) {
	return s.newestFirst(ctx)
}

func (s *BadgerStore) Corpus(ctx context.Context) ([]Document, error) {
	return s.newestFirst(ctx)
}

// newestFirst orders by creation time descending, then id descending.
func (s *BadgerStore) newestFirst(ctx context.Context) ([]Document, error) {
	docs, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID > docs[j].ID
	})
	return docs, nil
}

func (s *BadgerStore) Delete(ctx context.Context, id int64) (*Document, error) {
	var doc *Document
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		if doc, err = readDocument(txn, id); err != nil {
			return err
		}
		return txn.Delete(documentKey(id))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("document deleted", "id", id)
	return doc, nil
}

func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

// Close releases the id sequence and closes the database.
func (s *BadgerStore) Close() error {
	seqErr := s.idSeq.Release()
	if err := s.db.Close(); err != nil {
		return err
	}
	return seqErr
}

// scan returns every document in key, and therefore id, order.
func (s *BadgerStore) scan(ctx context.Context) ([]Document, error) {
	docs := make([]Document, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc Document
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return fmt.Errorf("decoding %x: %w", it.Item().Key(), err)
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}
	return docs, nil
}

func readDocument(txn *badger.Txn, id int64) (*Document, error) {
	item, err := txn.Get(documentKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("document %d: %w", id, apperrors.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %d: %w", id, err)
	}
	var doc Document
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, fmt.Errorf("decoding document %d: %w", id, err)
	}
	return &doc, nil
}
