package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/ollieb89/chroma-tool/core"
)

// entryPrefix namespaces ledger records within the key space.
const entryPrefix = "ingest:file:"

// Entry records the outcome of ingesting one file. Entries are persisted in
// MUS format; see serialization.go.
type Entry struct {
	Path       string
	Digest     uint64
	ChunkCount int
	Collection string
	IngestedAt time.Time
}

// Ledger wraps a BadgerDB instance holding ingest entries.
type Ledger struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a ledger database at the specified path.
// Creates the directory if it doesn't exist.
func Open(filePath string) (*Ledger, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", filePath)
	}

	return open(badger.DefaultOptions(filePath))
}

// OpenInMemory opens a ledger that is discarded on Close. Useful for tests
// and dry runs.
func OpenInMemory() (*Ledger, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Ledger, error) {
	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func makeEntryKey(path string) []byte {
	return []byte(entryPrefix + core.NormalizePath(path))
}

// Seen reports whether path was previously recorded with this content digest.
func (l *Ledger) Seen(path string, digest uint64) bool {
	var entry *Entry

	err := l.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = UnmarshalEntry(val)
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			l.logger.Warn("could not read ledger entry", "path", path, "err", err)
		}
		return false
	}

	return entry.Digest == digest
}

// Record stores the outcome of ingesting one file, replacing any previous
// entry for the same path.
func (l *Ledger) Record(path string, digest uint64, chunkCount int, collection string) error {
	entry := Entry{
		Path:       core.NormalizePath(path),
		Digest:     digest,
		ChunkCount: chunkCount,
		Collection: collection,
		IngestedAt: time.Now().UTC(),
	}

	return l.db.Update(func(tx *badger.Txn) error {
		return tx.Set(makeEntryKey(path), MarshalEntry(&entry))
	})
}

// Summary aggregates ledger contents per collection.
type Summary struct {
	Files  int
	Chunks int
}

// Summarize reports file and chunk totals keyed by collection.
func (l *Ledger) Summarize() (map[string]Summary, error) {
	summaries := make(map[string]Summary)

	err := l.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *Entry
			err := iter.Item().Value(func(val []byte) (err error) {
				entry, err = UnmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			s := summaries[entry.Collection]
			s.Files++
			s.Chunks += entry.ChunkCount
			summaries[entry.Collection] = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summaries, nil
}
