package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteelMorgan/weblogstats/internal/domain"
	"github.com/SteelMorgan/weblogstats/internal/source"
	"github.com/SteelMorgan/weblogstats/internal/stats"
)

func newStore(t *testing.T) *BoltDBStore {
	t.Helper()
	store, err := NewBoltDBStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltDBStore_PutGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	agg := stats.NewAggregator()
	agg.Add(&domain.AccessLogRecord{Host: "10.0.0.1", Resource: "/index.html", Status: 200, Size: 1024})
	agg.Add(&domain.AccessLogRecord{Host: "10.0.0.2", Resource: "/index.html", Status: 404})
	agg.Skip()
	want := agg.Summary()

	require.NoError(t, store.Put(ctx, "key-1", &want))

	got, ok, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, *got)
}

func TestBoltDBStore_Miss(t *testing.T) {
	store := newStore(t)

	got, ok, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestBoltDBStore_NoDataSummary(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	empty := stats.NewAggregator().Summary()
	require.NoError(t, store.Put(ctx, "empty", &empty))

	got, ok, err := store.Get(ctx, "empty")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got.HasData())
	assert.Nil(t, got.TopResource)
}

func TestFingerprint(t *testing.T) {
	base := source.Info{
		Path:    "/var/log/nginx/access.log",
		Size:    4096,
		ModTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, Fingerprint(base), Fingerprint(base))
	assert.Len(t, Fingerprint(base), 64)

	grown := base
	grown.Size++
	assert.NotEqual(t, Fingerprint(base), Fingerprint(grown))

	touched := base
	touched.ModTime = touched.ModTime.Add(time.Second)
	assert.NotEqual(t, Fingerprint(base), Fingerprint(touched))

	tagged := base
	tagged.ETag = `"etag"`
	assert.NotEqual(t, Fingerprint(base), Fingerprint(tagged))

	rewritten := base
	rewritten.Sample = "b5bb9d8014a0f9b1d61e21e796d78dccdf1352f23cd32812f4850b878ae4944c"
	assert.NotEqual(t, Fingerprint(base), Fingerprint(rewritten))

	sameInstant := base
	sameInstant.ModTime = base.ModTime.In(time.FixedZone("X", 3600))
	assert.Equal(t, Fingerprint(base), Fingerprint(sameInstant))
}
