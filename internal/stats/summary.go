package stats

import (
	"sort"
)

// Status classes that are always listed in a summary, even when unseen
const (
	firstStandardClass = 1
	lastStandardClass  = 5
)

// Ranked is the leading entry of a mapping
type Ranked struct {
	Key     string  `json:"key" yaml:"key" msgpack:"key"`
	Count   int64   `json:"count" yaml:"count" msgpack:"count"`
	Percent float64 `json:"percent" yaml:"percent" msgpack:"percent"`
}

// ClassShare is the share of requests in one status class
type ClassShare struct {
	Class   int     `json:"class" yaml:"class" msgpack:"class"` // 2 for 2xx
	Count   int64   `json:"count" yaml:"count" msgpack:"count"`
	Percent float64 `json:"percent" yaml:"percent" msgpack:"percent"`
}

// Summary is the read-only result derived from an Aggregator
type Summary struct {
	TotalRequests int64        `json:"total_requests" yaml:"total_requests" msgpack:"total_requests"`
	TotalBytes    int64        `json:"total_bytes" yaml:"total_bytes" msgpack:"total_bytes"`
	SkippedLines  int64        `json:"skipped_lines" yaml:"skipped_lines" msgpack:"skipped_lines"`
	TopResource   *Ranked      `json:"top_resource,omitempty" yaml:"top_resource,omitempty" msgpack:"top_resource"`
	TopHost       *Ranked      `json:"top_host,omitempty" yaml:"top_host,omitempty" msgpack:"top_host"`
	StatusClasses []ClassShare `json:"status_classes,omitempty" yaml:"status_classes,omitempty" msgpack:"status_classes"`
}

// HasData reports whether at least one record was aggregated
func (s *Summary) HasData() bool {
	return s.TotalRequests > 0
}

// Percent returns 100*count/total. ok is false when total is not positive.
func Percent(count, total int64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	return 100 * float64(count) / float64(total), true
}

// Summary derives the top entries and status class shares.
// With no records only the totals are filled in.
func (a *Aggregator) Summary() Summary {
	s := Summary{
		TotalRequests: a.TotalRequests,
		TotalBytes:    a.TotalBytes,
		SkippedLines:  a.SkippedLines,
	}
	if !s.HasData() {
		return s
	}

	s.TopResource = a.rank(a.Resources)
	s.TopHost = a.rank(a.Hosts)
	s.StatusClasses = a.classShares()
	return s
}

func (a *Aggregator) rank(c Counts[string]) *Ranked {
	key, count, ok := c.Top()
	if !ok {
		return nil
	}
	pct, _ := Percent(count, a.TotalRequests)
	return &Ranked{Key: key, Count: count, Percent: pct}
}

func (a *Aggregator) classShares() []ClassShare {
	classes := make([]int, 0, lastStandardClass)
	for class := firstStandardClass; class <= lastStandardClass; class++ {
		classes = append(classes, class)
	}

	var extra []int
	for class := range a.StatusClasses {
		if class < firstStandardClass || class > lastStandardClass {
			extra = append(extra, class)
		}
	}
	sort.Ints(extra)
	classes = append(classes, extra...)

	shares := make([]ClassShare, 0, len(classes))
	for _, class := range classes {
		count := a.StatusClasses[class]
		pct, _ := Percent(count, a.TotalRequests)
		shares = append(shares, ClassShare{Class: class, Count: count, Percent: pct})
	}
	return shares
}
