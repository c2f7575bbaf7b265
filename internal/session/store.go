package session

import (
	"encoding/json"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
)

var (
	sessionsBucket = []byte("sessions")
	metaBucket     = []byte("meta")
	latestKey      = []byte("latest")
)

// ErrNotFound is returned when no session record exists for an id.
var ErrNotFound = errors.New("session not found")

// Store persists session outcomes so callers can poll for a finished report
// across process restarts.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (or creates) the bbolt database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(sessionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init session db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Put writes the record and marks it as the latest session.
func (s *Store) Put(rec domain.SessionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(sessionsBucket).Put([]byte(rec.ID), payload); err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(latestKey, []byte(rec.ID))
	})
}

// Get returns the record for one session id.
func (s *Store) Get(id string) (domain.SessionRecord, error) {
	var rec domain.SessionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionsBucket).Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &rec)
	})
	return rec, err
}

// Latest returns the most recently submitted session's record.
func (s *Store) Latest() (domain.SessionRecord, error) {
	var rec domain.SessionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(metaBucket).Get(latestKey)
		if id == nil {
			return ErrNotFound
		}
		raw := tx.Bucket(sessionsBucket).Get(id)
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &rec)
	})
	return rec, err
}
