package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/SteelMorgan/weblogstats/internal/accesslog"
	"github.com/SteelMorgan/weblogstats/internal/cache"
	"github.com/SteelMorgan/weblogstats/internal/domain"
	"github.com/SteelMorgan/weblogstats/internal/observability"
	"github.com/SteelMorgan/weblogstats/internal/source"
	"github.com/SteelMorgan/weblogstats/internal/stats"
	"github.com/SteelMorgan/weblogstats/internal/writer"
)

// cancelCheckInterval is how many lines are processed between context checks
const cancelCheckInterval = 4096

// SourceOpener opens a log source for sequential reading
type SourceOpener interface {
	Open(ctx context.Context, path string) (*source.Handle, error)
}

// Result is the outcome of one analysis run
type Result struct {
	Run     domain.RunMetrics
	Summary stats.Summary
}

// AnalyzerService runs the parse → aggregate pass over a log source
type AnalyzerService struct {
	opener SourceOpener
	cache  cache.SummaryStore
	writer writer.RunWriter
	now    func() time.Time
}

// Option configures optional collaborators of the service
type Option func(*AnalyzerService)

// WithCache enables reuse of summaries for unchanged inputs
func WithCache(store cache.SummaryStore) Option {
	return func(s *AnalyzerService) { s.cache = store }
}

// WithWriter enables export of every run
func WithWriter(w writer.RunWriter) Option {
	return func(s *AnalyzerService) { s.writer = w }
}

// NewAnalyzerService creates a new analyzer service
func NewAnalyzerService(opener SourceOpener, opts ...Option) (*AnalyzerService, error) {
	if opener == nil {
		return nil, fmt.Errorf("source opener is required")
	}

	s := &AnalyzerService{
		opener: opener,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Analyze reads the whole source at path and returns its summary.
// A missing source yields an error wrapping source.ErrNotFound.
// Cache and export failures are logged and do not fail the run.
func (s *AnalyzerService) Analyze(ctx context.Context, path string) (result *Result, err error) {
	ctx, span := observability.StartSpan(ctx, "analyze", attribute.String("source", path))
	defer func() { observability.EndSpan(span, err) }()

	run := domain.RunMetrics{
		RunID:      uuid.NewString(),
		SourcePath: path,
		StartTime:  s.now(),
	}

	h, err := s.opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	run.SourceSizeBytes = h.Info.Size
	key := cache.Fingerprint(h.Info)

	summary, hit := s.lookup(ctx, key)
	if hit {
		run.CacheHit = true
		run.RecordsParsed = summary.TotalRequests
		run.LinesSkipped = summary.SkippedLines
		run.LinesRead = summary.TotalRequests + summary.SkippedLines
	} else {
		agg := stats.NewAggregator()
		if err := s.consume(ctx, h, agg, &run); err != nil {
			return nil, err
		}
		summary = agg.Summary()
		s.store(ctx, key, &summary)
	}

	run.Finish(s.now())
	s.export(ctx, &run, &summary)

	log.Info().
		Str("run_id", run.RunID).
		Str("source", path).
		Int64("lines_read", run.LinesRead).
		Int64("records_parsed", run.RecordsParsed).
		Int64("lines_skipped", run.LinesSkipped).
		Int64("parsing_time_ms", run.ParsingTimeMs).
		Float64("records_per_second", run.RecordsPerSecond).
		Bool("cache_hit", run.CacheHit).
		Msg("Analysis complete")

	return &Result{Run: run, Summary: summary}, nil
}

// consume feeds every line of r to the parser and folds records into agg
func (s *AnalyzerService) consume(ctx context.Context, r io.Reader, agg *stats.Aggregator, run *domain.RunMetrics) (err error) {
	ctx, span := observability.StartSpan(ctx, "parse")
	defer func() {
		span.SetAttributes(
			attribute.Int64("lines_read", run.LinesRead),
			attribute.Int64("records_parsed", run.RecordsParsed),
		)
		observability.EndSpan(span, err)
	}()

	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, readErr := reader.ReadString('\n')
		if line != "" {
			run.LinesRead++
			record, parseErr := accesslog.ParseLine(strings.TrimRight(line, "\r\n"))
			if parseErr != nil {
				agg.Skip()
				run.LinesSkipped++
			} else {
				agg.Add(record)
				run.RecordsParsed++
			}

			if run.LinesRead%cancelCheckInterval == 0 && ctx.Err() != nil {
				return fmt.Errorf("analysis interrupted: %w", ctx.Err())
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read %s: %w", run.SourcePath, readErr)
		}
	}
}

func (s *AnalyzerService) lookup(ctx context.Context, key string) (stats.Summary, bool) {
	if s.cache == nil {
		return stats.Summary{}, false
	}
	summary, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("Summary cache lookup failed, analyzing from scratch")
		return stats.Summary{}, false
	}
	if !ok {
		return stats.Summary{}, false
	}
	log.Debug().Str("key", key).Msg("Summary cache hit")
	return *summary, true
}

func (s *AnalyzerService) store(ctx context.Context, key string, summary *stats.Summary) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, key, summary); err != nil {
		log.Warn().Err(err).Msg("Failed to cache summary")
	}
}

func (s *AnalyzerService) export(ctx context.Context, run *domain.RunMetrics, summary *stats.Summary) {
	if s.writer == nil {
		return
	}
	if err := s.writer.WriteRun(ctx, run, summary); err != nil {
		log.Warn().Err(err).Str("run_id", run.RunID).Msg("Failed to export run")
	}
}

// Close releases the optional collaborators
func (s *AnalyzerService) Close() error {
	var errs []error
	if s.writer != nil {
		errs = append(errs, s.writer.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	return errors.Join(errs...)
}
