package writer

import (
	"context"

	"github.com/SteelMorgan/weblogstats/internal/domain"
	"github.com/SteelMorgan/weblogstats/internal/stats"
)

// RunWriter exports the result of an analysis run
type RunWriter interface {
	// WriteRun stores run metadata together with its summary
	WriteRun(ctx context.Context, run *domain.RunMetrics, summary *stats.Summary) error

	// Close releases the underlying connection
	Close() error
}
