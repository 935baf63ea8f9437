package writer

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SteelMorgan/weblogstats/internal/domain"
	"github.com/SteelMorgan/weblogstats/internal/stats"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Executor is the subset of the ClickHouse client used by the writer
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) error
	InsertRow(ctx context.Context, query string, row ...any) error
	Close() error
}

// ClickHouseWriter writes one row per analysis run
type ClickHouseWriter struct {
	client Executor
	table  string
}

// NewClickHouseWriter creates the writer and makes sure the table exists
func NewClickHouseWriter(ctx context.Context, client Executor, table string) (*ClickHouseWriter, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table name: %q", table)
	}

	w := &ClickHouseWriter{client: client, table: table}
	if err := client.Exec(ctx, w.createTableQuery()); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return w, nil
}

func (w *ClickHouseWriter) createTableQuery() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id             UUID,
	run_time           DateTime64(3),
	source             String,
	lines_read         UInt64,
	records_parsed     UInt64,
	lines_skipped      UInt64,
	total_requests     UInt64,
	total_bytes        UInt64,
	top_resource       String,
	top_resource_count UInt64,
	top_host           String,
	top_host_count     UInt64,
	status_1xx         UInt64,
	status_2xx         UInt64,
	status_3xx         UInt64,
	status_4xx         UInt64,
	status_5xx         UInt64,
	status_other       UInt64,
	parsing_time_ms    UInt64,
	cache_hit          Bool
) ENGINE = MergeTree
ORDER BY (run_time, source)`, w.table)
}

// WriteRun inserts the run row
func (w *ClickHouseWriter) WriteRun(ctx context.Context, run *domain.RunMetrics, summary *stats.Summary) error {
	row, err := runRow(run, summary)
	if err != nil {
		return err
	}

	if err := w.client.InsertRow(ctx, "INSERT INTO "+w.table, row...); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	log.Debug().
		Str("run_id", run.RunID).
		Str("table", w.table).
		Msg("Run exported to ClickHouse")

	return nil
}

// Close closes the client
func (w *ClickHouseWriter) Close() error {
	return w.client.Close()
}

// runRow builds column values in table order
func runRow(run *domain.RunMetrics, summary *stats.Summary) ([]any, error) {
	runID, err := uuid.Parse(run.RunID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", run.RunID, err)
	}

	var topResource, topHost string
	var topResourceCount, topHostCount uint64
	if summary.TopResource != nil {
		topResource, topResourceCount = summary.TopResource.Key, uint64(summary.TopResource.Count)
	}
	if summary.TopHost != nil {
		topHost, topHostCount = summary.TopHost.Key, uint64(summary.TopHost.Count)
	}

	var classes [5]uint64
	var other uint64
	for _, share := range summary.StatusClasses {
		if share.Class >= 1 && share.Class <= 5 {
			classes[share.Class-1] += uint64(share.Count)
		} else {
			other += uint64(share.Count)
		}
	}

	return []any{
		runID,
		run.StartTime,
		run.SourcePath,
		uint64(run.LinesRead),
		uint64(run.RecordsParsed),
		uint64(run.LinesSkipped),
		uint64(summary.TotalRequests),
		uint64(summary.TotalBytes),
		topResource,
		topResourceCount,
		topHost,
		topHostCount,
		classes[0],
		classes[1],
		classes[2],
		classes[3],
		classes[4],
		other,
		uint64(run.ParsingTimeMs),
		run.CacheHit,
	}, nil
}
