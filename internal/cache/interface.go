package cache

import (
	"context"

	"github.com/SteelMorgan/weblogstats/internal/stats"
)

// SummaryStore keeps summaries of already analyzed inputs, keyed by Fingerprint.
// Implementations: BoltDB
type SummaryStore interface {
	// Get returns the stored summary; ok is false on a miss
	Get(ctx context.Context, key string) (summary *stats.Summary, ok bool, err error)

	// Put stores the summary under key, replacing any previous value
	Put(ctx context.Context, key string, summary *stats.Summary) error

	// Close closes the store
	Close() error
}
