// Package history persists submitted transcripts in an embedded badger
// store so past dictations can be recalled and re-injected.
package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Entry is one submitted dictation.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	ModelID   string    `json:"modelId"`
	Language  string    `json:"language,omitempty"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is a badger-backed transcript log.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a submitted transcript. The entry ID and timestamp are
// assigned here; keys are time-prefixed so iteration order is chronological.
func (s *Store) Append(e Entry) (Entry, error) {
	e.ID = uuid.New().String()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	val, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("encode history entry: %w", err)
	}

	key := []byte(fmt.Sprintf("%020d:%s", e.CreatedAt.UnixNano(), e.ID))
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("write history entry: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek past the last possible key.
		for it.Seek([]byte("~")); it.Valid() && len(entries) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("decode history entry: %w", err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Delete removes a single entry by ID.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if len(key) > len(id) && string(key[len(key)-len(id):]) == id {
				return txn.Delete(key)
			}
		}
		return nil
	})
}
