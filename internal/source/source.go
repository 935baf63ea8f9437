package source

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when the log source does not exist
var ErrNotFound = errors.New("log file not found")

// Info describes an opened log source; it is used to fingerprint the input
type Info struct {
	Path    string
	Size    int64
	ModTime time.Time
	ETag    string // S3 objects only
	Sample  string // Local files only: digest of the first and last sampleSize bytes
}

// sampleSize bounds how much of a local file is hashed into Info.Sample
const sampleSize = 64 << 10

// Handle is an opened log source. Close must be called exactly once.
type Handle struct {
	io.Reader
	Info Info

	closers []io.Closer
}

// Close releases every underlying resource, innermost first
func (h *Handle) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

// Opener opens log sources by path: local files, *.gz files and s3://bucket/key objects
type Opener struct {
	s3 S3Getter
	// newS3 lazily creates the S3 client the first time an s3:// path is opened
	newS3 func(ctx context.Context) (S3Getter, error)
}

// NewOpener creates an opener that builds an S3 client from the default AWS configuration on demand
func NewOpener() *Opener {
	return &Opener{newS3: NewS3Client}
}

// NewOpenerWithS3 creates an opener with a preconfigured S3 client
func NewOpenerWithS3(client S3Getter) *Opener {
	return &Opener{s3: client}
}

// Open opens path for sequential reading.
// A missing file or object yields an error wrapping ErrNotFound.
func (o *Opener) Open(ctx context.Context, path string) (*Handle, error) {
	var (
		h   *Handle
		err error
	)
	if IsS3Path(path) {
		h, err = o.openS3(ctx, path)
	} else {
		h, err = openLocal(path)
	}
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(h.Reader)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		h.Reader = gz
		h.closers = append(h.closers, gz)
	}

	log.Debug().
		Str("path", path).
		Int64("size", h.Info.Size).
		Msg("Log source opened")

	return h, nil
}

func openLocal(path string) (*Handle, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}

	sample, err := sampleDigest(file, stat.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to sample %s: %w", path, err)
	}

	return &Handle{
		Reader: file,
		Info: Info{
			Path:    path,
			Size:    stat.Size(),
			ModTime: stat.ModTime(),
			Sample:  sample,
		},
		closers: []io.Closer{file},
	}, nil
}

// sampleDigest hashes the head and tail of r without moving its read offset
func sampleDigest(r io.ReaderAt, size int64) (string, error) {
	h := sha256.New()

	head := min(size, sampleSize)
	if _, err := io.Copy(h, io.NewSectionReader(r, 0, head)); err != nil {
		return "", err
	}
	if tail := min(size-head, sampleSize); tail > 0 {
		if _, err := io.Copy(h, io.NewSectionReader(r, size-tail, tail)); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
