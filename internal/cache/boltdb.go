package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/SteelMorgan/weblogstats/internal/stats"
)

const bucketName = "summaries"

// BoltDBStore implements SummaryStore using BoltDB, values are msgpack-encoded
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore opens (or creates) the cache file
func NewBoltDBStore(dbPath string) (*BoltDBStore, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb (file may be locked by another process): %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Debug().
		Str("db_path", dbPath).
		Msg("BoltDB summary cache initialized")

	return &BoltDBStore{db: db}, nil
}

// Get retrieves the summary stored under key
func (s *BoltDBStore) Get(ctx context.Context, key string) (*stats.Summary, bool, error) {
	var raw []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		if val := b.Get([]byte(key)); val != nil {
			// val is only valid inside the transaction
			raw = append([]byte(nil), val...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get summary: %w", err)
	}
	if raw == nil {
		return nil, false, nil
	}

	var summary stats.Summary
	if err := msgpack.Unmarshal(raw, &summary); err != nil {
		return nil, false, fmt.Errorf("failed to decode summary %s: %w", key, err)
	}
	return &summary, true, nil
}

// Put stores the summary under key
func (s *BoltDBStore) Put(ctx context.Context, key string, summary *stats.Summary) error {
	raw, err := msgpack.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to put summary: %w", err)
	}

	log.Debug().
		Str("key", key).
		Int("bytes", len(raw)).
		Msg("Summary cached")

	return nil
}

// Close closes the BoltDB database
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}
