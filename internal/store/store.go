// Package store persists small client-side state: the selected environment,
// recent search strings, and the offline queue of pending item submissions.
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const (
	prefsBucket = "preferences"
	queueBucket = "offline_queue"

	keyEnvironment    = "environment"
	keyRecentSearches = "recent_searches"

	maxRecentSearches = 10
)

// PendingItem is a queued add-item submission awaiting connectivity.
type PendingItem struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	OwnerID    string          `json:"owner_id"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Store is a bbolt-backed preference store and offline queue.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the store file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open store")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{prefsBucket, queueBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create buckets")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Environment returns the persisted environment selection, or "" if unset.
func (s *Store) Environment() (string, error) {
	var env string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(prefsBucket)).Get([]byte(keyEnvironment)); v != nil {
			env = string(v)
		}
		return nil
	})
	return env, err
}

// SetEnvironment persists the environment selection.
func (s *Store) SetEnvironment(env string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(prefsBucket)).Put([]byte(keyEnvironment), []byte(env))
	})
}

// RecentSearches returns the saved search strings, most recent first.
func (s *Store) RecentSearches() ([]string, error) {
	var searches []string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(prefsBucket)).Get([]byte(keyRecentSearches))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &searches)
	})
	return searches, err
}

// AddRecentSearch prepends a search string, dropping duplicates and keeping
// at most maxRecentSearches entries.
func (s *Store) AddRecentSearch(query string) error {
	if query == "" {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(prefsBucket))

		var searches []string
		if v := bucket.Get([]byte(keyRecentSearches)); v != nil {
			if err := json.Unmarshal(v, &searches); err != nil {
				searches = nil
			}
		}

		updated := []string{query}
		for _, s := range searches {
			if s != query {
				updated = append(updated, s)
			}
		}
		if len(updated) > maxRecentSearches {
			updated = updated[:maxRecentSearches]
		}

		data, err := json.Marshal(updated)
		if err != nil {
			return errors.Wrap(err, "failed to marshal searches")
		}
		return bucket.Put([]byte(keyRecentSearches), data)
	})
}

// Enqueue adds a pending submission to the offline queue. An entry matching
// the same (title, ownerID) is replaced rather than duplicated, preserving
// the original client's matching rule.
func (s *Store) Enqueue(title, ownerID string, payload json.RawMessage) (*PendingItem, error) {
	item := &PendingItem{
		ID:         uuid.New().String(),
		Title:      title,
		OwnerID:    ownerID,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(queueBucket))

		// Drop an existing entry for the same title+owner.
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var existing PendingItem
			if err := json.Unmarshal(v, &existing); err != nil {
				continue
			}
			if existing.Title == title && existing.OwnerID == ownerID {
				if err := bucket.Delete(k); err != nil {
					return err
				}
				break
			}
		}

		data, err := json.Marshal(item)
		if err != nil {
			return errors.Wrap(err, "failed to marshal queue entry")
		}
		return bucket.Put([]byte(item.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Pending returns all queued submissions, oldest first.
func (s *Store) Pending() ([]*PendingItem, error) {
	var items []*PendingItem
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(queueBucket)).ForEach(func(k, v []byte) error {
			var item PendingItem
			if err := json.Unmarshal(v, &item); err != nil {
				return errors.Wrapf(err, "corrupt queue entry %q", k)
			}
			items = append(items, &item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].EnqueuedAt.Before(items[j-1].EnqueuedAt); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	return items, nil
}

// Remove deletes a queued submission by ID. Removing a missing ID is a no-op.
func (s *Store) Remove(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(queueBucket)).Delete([]byte(id))
	})
}
