package stats

import (
	"math"

	"github.com/SteelMorgan/weblogstats/internal/domain"
)

// Aggregator accumulates counters over a stream of access log records.
// It is not safe for concurrent use; one run owns one Aggregator.
type Aggregator struct {
	TotalRequests int64
	TotalBytes    int64
	SkippedLines  int64

	Resources     Counts[string]
	Hosts         Counts[string]
	StatusClasses Counts[int]
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		Resources:     make(Counts[string]),
		Hosts:         make(Counts[string]),
		StatusClasses: make(Counts[int]),
	}
}

// Add folds one parsed record into the counters
func (a *Aggregator) Add(record *domain.AccessLogRecord) {
	a.TotalRequests++
	a.addBytes(record.Size)
	a.Resources.Inc(record.Resource)
	a.Hosts.Inc(record.Host)
	a.StatusClasses.Inc(record.StatusClass())
}

// Skip records a line that could not be parsed
func (a *Aggregator) Skip() {
	a.SkippedLines++
}

// addBytes saturates at math.MaxInt64 instead of wrapping
func (a *Aggregator) addBytes(size int64) {
	if size <= 0 {
		return
	}
	if size > math.MaxInt64-a.TotalBytes {
		a.TotalBytes = math.MaxInt64
		return
	}
	a.TotalBytes += size
}
