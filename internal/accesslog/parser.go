package accesslog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/SteelMorgan/weblogstats/internal/domain"
)

var (
	// ErrNoMatch means the line does not follow the access log grammar
	ErrNoMatch = errors.New("line does not match access log format")

	// ErrMalformed means the line has the right shape but status or size cannot be coerced
	ErrMalformed = errors.New("malformed access log field")
)

// linePattern matches Common Log Format with optional Combined Log Format tail:
//
//	host ident authuser [timestamp] "method resource protocol" status size ["referrer" "user_agent"]
//
// Anchored at the start only, anything after the last group is ignored.
// Status and size are captured loosely and validated in ParseLine.
var linePattern = regexp.MustCompile(
	`^(\S+) \S+ \S+ \[([^\]]+)\] "(\S+) (\S+) (\S+)" (\S+) (\S+)(?: "([^"]*)" "([^"]*)")?`,
)

const (
	groupHost = iota + 1
	groupTimestamp
	groupMethod
	groupResource
	groupProtocol
	groupStatus
	groupSize
	groupReferrer
	groupUserAgent
)

// ParseLine parses a single access log line.
// Returns an error wrapping ErrNoMatch or ErrMalformed if the line must be skipped;
// a record is never returned partially populated.
func ParseLine(line string) (*domain.AccessLogRecord, error) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, ErrNoMatch
	}

	status, err := parseStatus(m[groupStatus])
	if err != nil {
		return nil, err
	}

	size, err := parseSize(m[groupSize])
	if err != nil {
		return nil, err
	}

	return &domain.AccessLogRecord{
		Host:      m[groupHost],
		Timestamp: m[groupTimestamp],
		Method:    m[groupMethod],
		Resource:  m[groupResource],
		Protocol:  m[groupProtocol],
		Status:    status,
		Size:      size,
		Referrer:  m[groupReferrer],
		UserAgent: m[groupUserAgent],
	}, nil
}

// parseStatus accepts exactly three ASCII digits
func parseStatus(s string) (int, error) {
	if len(s) != 3 {
		return 0, fmt.Errorf("%w: status %q is not a 3-digit code", ErrMalformed, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: status %q is not numeric", ErrMalformed, s)
		}
	}
	status, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: status %q: %v", ErrMalformed, s, err)
	}
	return status, nil
}

// parseSize normalizes "-" to 0, otherwise requires a non-negative integer
func parseSize(s string) (int64, error) {
	if s == "-" {
		return 0, nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: size %q is not numeric", ErrMalformed, s)
		}
	}
	size, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: size %q: %v", ErrMalformed, s, err)
	}
	return size, nil
}
