package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SteelMorgan/weblogstats/internal/domain"
	"github.com/SteelMorgan/weblogstats/internal/stats"
)

// Format selects the report encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultPrecision is the number of decimals used for percentages
const DefaultPrecision = 2

// NoDataMessage is printed instead of statistics when no line could be parsed
const NoDataMessage = "No data: no valid log entries found."

// Options controls rendering
type Options struct {
	Format    Format
	Precision int // Decimal places for percentages
}

// Document is the machine-readable report
type Document struct {
	Run             *domain.RunMetrics `json:"run,omitempty" yaml:"run,omitempty"`
	TotalBytesHuman string             `json:"total_bytes_human" yaml:"total_bytes_human"`
	NoData          bool               `json:"no_data" yaml:"no_data"`
	Summary         stats.Summary      `json:"summary" yaml:"summary"`
}

// Render writes the summary in the requested format
func Render(w io.Writer, summary stats.Summary, run *domain.RunMetrics, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return renderText(w, summary, opts.Precision)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newDocument(summary, run))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(summary, run)); err != nil {
			return fmt.Errorf("failed to encode yaml report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format: %s", opts.Format)
	}
}

func newDocument(summary stats.Summary, run *domain.RunMetrics) Document {
	return Document{
		Run:             run,
		TotalBytesHuman: HumanBytes(summary.TotalBytes),
		NoData:          !summary.HasData(),
		Summary:         summary,
	}
}

func renderText(w io.Writer, s stats.Summary, precision int) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Total Requests: %d\n", s.TotalRequests)
	fmt.Fprintf(&b, "Total Data Transmitted: %s\n", HumanBytes(s.TotalBytes))

	if !s.HasData() {
		fmt.Fprintf(&b, "\n%s\n", NoDataMessage)
		_, err := io.WriteString(w, b.String())
		return err
	}

	if r := s.TopResource; r != nil {
		fmt.Fprintf(&b, "\nMost requested resource: %s\n", r.Key)
		fmt.Fprintf(&b, "  Total requests for %s: %d\n", r.Key, r.Count)
		fmt.Fprintf(&b, "  Percentage of requests for %s: %s%%\n", r.Key, formatPercent(r.Percent, precision))
	}

	if h := s.TopHost; h != nil {
		fmt.Fprintf(&b, "\nRemote host with the most requests: %s\n", h.Key)
		fmt.Fprintf(&b, "  Total requests from %s: %d\n", h.Key, h.Count)
		fmt.Fprintf(&b, "  Percentage of requests from %s: %s%%\n", h.Key, formatPercent(h.Percent, precision))
	}

	b.WriteString("\nHTTP Status Code Percentages:\n")
	for _, share := range s.StatusClasses {
		fmt.Fprintf(&b, "  %dxx: %s%%\n", share.Class, formatPercent(share.Percent, precision))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatPercent(p float64, precision int) string {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return fmt.Sprintf("%.*f", precision, p)
}
