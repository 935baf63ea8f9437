package domain

// AccessLogRecord represents a single request line from a web-server access log
// (Common/Combined Log Format)
type AccessLogRecord struct {
	Host      string // Remote host (client address)
	Timestamp string // Raw value between [ and ], not parsed
	Method    string // HTTP method from the request line
	Resource  string // Requested path
	Protocol  string // HTTP/1.0, HTTP/1.1, ...
	Status    int    // Three-digit status code
	Size      int64  // Response size in bytes, "-" is stored as 0

	// Combined format only, empty when absent
	Referrer  string
	UserAgent string
}

// StatusClass returns the leading digit of the status code (404 -> 4)
func (r *AccessLogRecord) StatusClass() int {
	return r.Status / 100
}
