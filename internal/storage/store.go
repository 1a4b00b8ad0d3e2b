package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Collection keys. Each key holds one complete JSON-encoded array; there are
// no partial or incremental writes, a mutation always rewrites the whole
// collection.
const (
	KeyMedicines   = "medicines"
	KeyMedications = "medications"
	KeyActivities  = "medicationActivities_v2"
	KeyContacts    = "emergencyContacts"
	KeyHealthTips  = "healthTips"
)

const bucketName = "collections"

// Store is the embedded on-device store backing every collection.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the store file and ensures the collections bucket
// exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create collections bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying store file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Read unmarshals the collection stored under key into out. A missing key is
// not an error; out is left untouched so callers start from an empty
// collection.
func (s *Store) Read(key string, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode collection %q: %w", key, err)
		}
		return nil
	})
}

// Write serializes v wholesale and replaces the collection stored under key.
func (s *Store) Write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode collection %q: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), data)
	})
}

// Delete removes the collection stored under key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
}
