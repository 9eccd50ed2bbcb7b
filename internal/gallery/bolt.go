package gallery

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/moments-app/moments/internal/model"
	"go.etcd.io/bbolt"
)

// Compile-time check that BoltStore implements Store.
var _ Store = (*BoltStore)(nil)

const galleryBucket = "gallery"

// BoltStore implements Store on BoltDB: one bucket, one key per collection.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens a BoltDB-backed store at the provided path.
func OpenBolt(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(galleryBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create gallery bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying BoltDB database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load reads all persisted collections. Missing or corrupt collections
// yield their empty defaults.
func (s *BoltStore) Load() (*model.Snapshot, error) {
	raw := map[string][]byte{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(galleryBucket))
		if bucket == nil {
			return fmt.Errorf("gallery bucket is missing")
		}
		for _, name := range []string{colRecords, colPayloads, colLikes} {
			if body := bucket.Get([]byte(name)); body != nil {
				cp := make([]byte, len(body))
				copy(cp, body)
				raw[name] = cp
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}

	return decodeSnapshot(raw), nil
}

func (s *BoltStore) SaveRecords(records []model.ImageRecord) error {
	if records == nil {
		records = []model.ImageRecord{}
	}
	return s.ApplyAtomic(records, nil, nil)
}

func (s *BoltStore) SavePayloads(payloads map[string]string) error {
	if payloads == nil {
		payloads = map[string]string{}
	}
	return s.ApplyAtomic(nil, payloads, nil)
}

func (s *BoltStore) SaveLikes(likes map[int64]bool) error {
	if likes == nil {
		likes = map[int64]bool{}
	}
	return s.ApplyAtomic(nil, nil, likes)
}

// ApplyAtomic writes all non-nil collections in one update transaction.
func (s *BoltStore) ApplyAtomic(records []model.ImageRecord, payloads map[string]string, likes map[int64]bool) error {
	changed, err := encodeChanged(records, payloads, likes)
	if err != nil {
		return fmt.Errorf("encode collections: %w", err)
	}
	if len(changed) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(galleryBucket))
		if bucket == nil {
			return fmt.Errorf("gallery bucket is missing")
		}
		for name, body := range changed {
			if err := bucket.Put([]byte(name), body); err != nil {
				return fmt.Errorf("write collection %s: %w", name, err)
			}
		}
		return nil
	})
}
