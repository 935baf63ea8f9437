package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteelMorgan/weblogstats/internal/cache"
	"github.com/SteelMorgan/weblogstats/internal/domain"
	"github.com/SteelMorgan/weblogstats/internal/source"
	"github.com/SteelMorgan/weblogstats/internal/stats"
)

const sampleLog = `10.0.0.1 - - [10/Oct/2023:10:00:00 +0000] "GET /index.html HTTP/1.1" 200 1024 "-" "curl/7.0"
10.0.0.2 - - [10/Oct/2023:10:00:01 +0000] "GET /index.html HTTP/1.1" 304 -
10.0.0.1 - - [10/Oct/2023:10:00:02 +0000] "GET /about HTTP/1.1" 404 512 "https://example.com/" "Mozilla/5.0"
garbage line that does not match
10.0.0.3 - - [10/Oct/2023:10:00:03 +0000] "POST /api HTTP/1.1" abc 10

10.0.0.1 - - [10/Oct/2023:10:00:04 +0000] "GET /index.html HTTP/1.1" 500 100`

type fakeWriter struct {
	runs      []domain.RunMetrics
	summaries []stats.Summary
	err       error
	closed    bool
}

func (f *fakeWriter) WriteRun(_ context.Context, run *domain.RunMetrics, summary *stats.Summary) error {
	f.runs = append(f.runs, *run)
	f.summaries = append(f.summaries, *summary)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestAnalyze(t *testing.T) {
	svc, err := NewAnalyzerService(source.NewOpener())
	require.NoError(t, err)

	res, err := svc.Analyze(context.Background(), writeLog(t, sampleLog))
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, int64(4), s.TotalRequests)
	assert.Equal(t, int64(1024+512+100), s.TotalBytes)
	assert.Equal(t, int64(3), s.SkippedLines)
	require.NotNil(t, s.TopResource)
	assert.Equal(t, "/index.html", s.TopResource.Key)
	assert.Equal(t, int64(3), s.TopResource.Count)
	assert.InDelta(t, 75.0, s.TopResource.Percent, 1e-9)
	require.NotNil(t, s.TopHost)
	assert.Equal(t, "10.0.0.1", s.TopHost.Key)

	var sum float64
	for _, share := range s.StatusClasses {
		sum += share.Percent
	}
	assert.InDelta(t, 100.0, sum, 1e-9)

	assert.Equal(t, int64(7), res.Run.LinesRead)
	assert.Equal(t, int64(4), res.Run.RecordsParsed)
	assert.Equal(t, int64(3), res.Run.LinesSkipped)
	assert.False(t, res.Run.CacheHit)
	assert.NotEmpty(t, res.Run.RunID)
	assert.False(t, res.Run.EndTime.Before(res.Run.StartTime))
}

func TestAnalyze_SingleLineScenario(t *testing.T) {
	svc, err := NewAnalyzerService(source.NewOpener())
	require.NoError(t, err)

	line := `10.0.0.1 - - [10/Oct/2023:10:00:00] "GET /index.html HTTP/1.1" 200 1024 "-" "curl/7.0"` + "\n"
	res, err := svc.Analyze(context.Background(), writeLog(t, line))
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Summary.TotalRequests)
	assert.Equal(t, int64(1024), res.Summary.TotalBytes)
	assert.Equal(t, "/index.html", res.Summary.TopResource.Key)
	assert.InDelta(t, 100.0, res.Summary.TopResource.Percent, 1e-9)
	for _, share := range res.Summary.StatusClasses {
		if share.Class == 2 {
			assert.InDelta(t, 100.0, share.Percent, 1e-9)
		}
	}
}

func TestAnalyze_NoValidLines(t *testing.T) {
	svc, err := NewAnalyzerService(source.NewOpener())
	require.NoError(t, err)

	res, err := svc.Analyze(context.Background(), writeLog(t, "nothing\nto see here\n"))
	require.NoError(t, err)
	assert.False(t, res.Summary.HasData())
	assert.Equal(t, int64(2), res.Summary.SkippedLines)
}

func TestAnalyze_EmptyFile(t *testing.T) {
	svc, err := NewAnalyzerService(source.NewOpener())
	require.NoError(t, err)

	res, err := svc.Analyze(context.Background(), writeLog(t, ""))
	require.NoError(t, err)
	assert.False(t, res.Summary.HasData())
	assert.Zero(t, res.Run.LinesRead)
}

func TestAnalyze_NotFound(t *testing.T) {
	w := &fakeWriter{}
	svc, err := NewAnalyzerService(source.NewOpener(), WithWriter(w))
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.log"))
	assert.ErrorIs(t, err, source.ErrNotFound)
	assert.Empty(t, w.runs)
}

func TestAnalyze_CacheHit(t *testing.T) {
	store, err := cache.NewBoltDBStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)

	w := &fakeWriter{}
	svc, err := NewAnalyzerService(source.NewOpener(), WithCache(store), WithWriter(w))
	require.NoError(t, err)
	defer svc.Close()

	path := writeLog(t, sampleLog)

	first, err := svc.Analyze(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, first.Run.CacheHit)

	second, err := svc.Analyze(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, second.Run.CacheHit)
	assert.Equal(t, first.Summary, second.Summary)
	assert.NotEqual(t, first.Run.RunID, second.Run.RunID)
	assert.Equal(t, first.Run.LinesRead, second.Run.LinesRead)

	require.Len(t, w.runs, 2)
	assert.True(t, w.runs[1].CacheHit)
}

func TestAnalyze_ExportFailureDoesNotFailRun(t *testing.T) {
	w := &fakeWriter{err: errors.New("clickhouse is down")}
	svc, err := NewAnalyzerService(source.NewOpener(), WithWriter(w))
	require.NoError(t, err)

	res, err := svc.Analyze(context.Background(), writeLog(t, sampleLog))
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Summary.TotalRequests)
	require.Len(t, w.summaries, 1)
	assert.Equal(t, res.Summary, w.summaries[0])

	require.NoError(t, svc.Close())
	assert.True(t, w.closed)
}

func TestAnalyze_Cancelled(t *testing.T) {
	svc, err := NewAnalyzerService(source.NewOpener())
	require.NoError(t, err)

	line := `10.0.0.1 - - [10/Oct/2023:10:00:00] "GET / HTTP/1.1" 200 1` + "\n"
	path := writeLog(t, strings.Repeat(line, cancelCheckInterval*2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.Analyze(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAnalyzerService_RequiresOpener(t *testing.T) {
	_, err := NewAnalyzerService(nil)
	assert.Error(t, err)
}
