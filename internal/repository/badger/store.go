// Package badger implements the drive metadata repositories on BadgerDB.
//
// Key schema:
//
//	fo:<id>                      folder record (JSON)
//	fi:<id>                      file record (JSON)
//	cf:<parent>\x00<seq>         child folder index, value is the folder id
//	ci:<parent>\x00<seq>         child file index, value is the file id
//
// seq comes from a Badger sequence and is big-endian encoded, so a prefix scan
// over a parent returns children in creation order.
package badger

import (
	"cmp"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
)

const (
	prefixFolder      = "fo:"
	prefixFile        = "fi:"
	prefixChildDir    = "cf:"
	prefixChildFile   = "ci:"
	sequenceKey       = "meta:seq"
	sequenceBandwidth = 100
)

// Store owns the Badger database shared by the file and folder repositories.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
}

// Config configures the Badger store
type Config struct {
	// Path of the database directory. Empty means in-memory mode.
	Path   string
	Logger *slog.Logger
}

// Open opens or creates the database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open sequence: %w", err)
	}

	return &Store{db: db, seq: seq, logger: cfg.Logger}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.logger.Warn("release badger sequence", "error", err)
	}
	return s.db.Close()
}

// record wraps a stored value with its creation sequence number.
type record[T any] struct {
	Seq   uint64 `json:"seq"`
	Value T      `json:"value"`
}

func childKey(prefix, parentID string, seq uint64) []byte {
	key := make([]byte, 0, len(prefix)+len(parentID)+1+8)
	key = append(key, prefix...)
	key = append(key, parentID...)
	key = append(key, 0)
	return binary.BigEndian.AppendUint64(key, seq)
}

func childPrefix(prefix, parentID string) []byte {
	key := make([]byte, 0, len(prefix)+len(parentID)+1)
	key = append(key, prefix...)
	key = append(key, parentID...)
	return append(key, 0)
}

// create stores value under recordKey and indexes it under parentID.
func create[T any](s *Store, recordKey []byte, indexPrefix, parentID, id string, value T) error {
	seq, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	data, err := json.Marshal(record[T]{Seq: seq, Value: value})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey); err == nil {
			return errExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(recordKey, data); err != nil {
			return err
		}
		return txn.Set(childKey(indexPrefix, parentID, seq), []byte(id))
	})
}

var errExists = errors.New("record exists")

// get loads one record. found is false when the key does not exist.
func get[T any](txn *badger.Txn, key []byte) (rec record[T], found bool, err error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err == nil, err
}

// listChildren returns the records indexed under parentID in creation order.
func listChildren[T any](ctx context.Context, s *Store, indexPrefix, recordPrefix, parentID string) ([]T, error) {
	result := []T{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = childPrefix(indexPrefix, parentID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, found, err := get[T](txn, []byte(recordPrefix+string(id)))
			if err != nil {
				return err
			}
			if found {
				result = append(result, rec.Value)
			}
		}
		return nil
	})
	return result, err
}

// listByIDs returns the records with the given ids in creation order.
func listByIDs[T any](s *Store, recordPrefix string, ids []string) ([]T, error) {
	var recs []record[T]
	err := s.db.View(func(txn *badger.Txn) error {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			rec, found, err := get[T](txn, []byte(recordPrefix+id))
			if err != nil {
				return err
			}
			if found {
				recs = append(recs, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(recs, func(a, b record[T]) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	result := make([]T, 0, len(recs))
	for _, rec := range recs {
		result = append(result, rec.Value)
	}
	return result, nil
}
