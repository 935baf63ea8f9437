package domain

import "time"

// RunMetrics describes one analysis run over a single log source
type RunMetrics struct {
	RunID            string    `json:"run_id" yaml:"run_id"`
	SourcePath       string    `json:"source" yaml:"source"`
	SourceSizeBytes  int64     `json:"source_size_bytes" yaml:"source_size_bytes"`
	LinesRead        int64     `json:"lines_read" yaml:"lines_read"`
	RecordsParsed    int64     `json:"records_parsed" yaml:"records_parsed"`
	LinesSkipped     int64     `json:"lines_skipped" yaml:"lines_skipped"`
	StartTime        time.Time `json:"start_time" yaml:"start_time"`
	EndTime          time.Time `json:"end_time" yaml:"end_time"`
	ParsingTimeMs    int64     `json:"parsing_time_ms" yaml:"parsing_time_ms"`
	RecordsPerSecond float64   `json:"records_per_second" yaml:"records_per_second"`
	CacheHit         bool      `json:"cache_hit" yaml:"cache_hit"` // Summary came from the cache, nothing was parsed
}

// Finish stamps the end time and derives timing fields
func (m *RunMetrics) Finish(end time.Time) {
	m.EndTime = end
	elapsed := end.Sub(m.StartTime)
	m.ParsingTimeMs = elapsed.Milliseconds()
	if elapsed > 0 {
		m.RecordsPerSecond = float64(m.RecordsParsed) / elapsed.Seconds()
	}
}
