package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/SteelMorgan/weblogstats/internal/source"
)

// schemaVersion is mixed into every fingerprint; bump it when parsing or
// aggregation rules change so old summaries are never reused
const schemaVersion = 2

// Fingerprint identifies the content of a log source without reading all of it:
// path, size, modification time, the ETag for S3 and the head/tail sample for local files
func Fingerprint(info source.Info) string {
	h := sha256.New()

	fmt.Fprintf(h, "v%d|", schemaVersion)
	fmt.Fprintf(h, "%s|", info.Path)
	fmt.Fprintf(h, "%d|", info.Size)
	fmt.Fprintf(h, "%s|", info.ModTime.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(h, "%s|", info.ETag)
	fmt.Fprintf(h, "%s|", info.Sample)

	return hex.EncodeToString(h.Sum(nil))
}
