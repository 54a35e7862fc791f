// Package cache implements the remote-file cache the
// spec's remote_file transport consults before hitting the network: a blob
// store keyed by URL alone (each entry records its ETag, but the ETag is not
// part of the key and is not checked on a hit), grounded on the teacher's storage/buntdb.go
// (buntdb.DB wrapper with a JSON-indexed key space) repurposed here to hold
// cached response bodies instead of orders.
package cache

import (
	"encoding/json"
	"time"

	"github.com/tidwall/buntdb"
)

// Entry is one cached remote fetch.
type Entry struct {
	URL       string    `json:"url"`
	ETag      string    `json:"etag"`
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store is a buntdb-backed cache keyed by URL. Safe for
// concurrent use; buntdb serializes transactions internally.
type Store struct {
	db *buntdb.DB
}

// FromFile opens (creating if absent) a persistent cache at path.
func FromFile(path string) (*Store, error) {
	return open(path)
}

// FromMemory opens a process-lifetime cache, useful for tests and one-shot
// backtests where warm starts don't matter.
func FromMemory() (*Store, error) {
	return open(":memory:")
}

func open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.CreateIndex("fetched_index", "*", buntdb.IndexJSON("fetched_at")); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get returns the cached entry for url, and whether it existed.
func (s *Store) Get(url string) (Entry, bool, error) {
	var entry Entry
	var found bool
	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(url)
		if err == buntdb.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return err
		}
		found = true
		return nil
	})
	return entry, found, err
}

// Put stores entry keyed by entry.URL, overwriting any prior value.
func (s *Store) Put(entry Entry) error {
	content, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(entry.URL, string(content), nil)
		return err
	})
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
