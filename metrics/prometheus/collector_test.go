package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/tabiter"
	"github.com/hupe1980/tabiter/blobstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(WithRegisterer(reg), WithNamespace("test"))
	require.NoError(t, err)

	c.RecordRead(8, nil)
	c.RecordRead(0, errors.New("boom"))
	c.RecordFlush(100, time.Millisecond, nil)
	c.RecordBind(true, nil)
	c.RecordCatchUp(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("read", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("read", "error")))
	assert.Equal(t, 8.0, testutil.ToFloat64(c.bytes.WithLabelValues("read")))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.bytes.WithLabelValues("flush")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.binds.WithLabelValues("caller", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.catchUpRows))
	assert.Equal(t, 1, testutil.CollectAndCount(c.flushLatency))

	_, err = New(WithRegisterer(reg), WithNamespace("test"))
	assert.Error(t, err, "duplicate registration")
}

func TestCollector_Table(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c, err := New(WithRegisterer(reg))
	require.NoError(t, err)

	tab, err := tabiter.Open(ctx, "t",
		tabiter.WithBlobStore(blobstore.NewMemoryStore()),
		tabiter.WithMetricsCollector(c),
	)
	require.NoError(t, err)
	for r := range tab.Fill(ctx, 4) {
		tabiter.Set(r, "x", float64(r.Index()))
		if r.Index() == 2 {
			tabiter.Set(r, "late", int32(1))
		}
	}
	require.NoError(t, tab.Err())
	for r := range tab.Rows() {
		_ = tabiter.Get[float64](r, "x")
	}
	require.NoError(t, tab.Close())

	assert.Equal(t, 4.0, testutil.ToFloat64(c.ops.WithLabelValues("fill", "success")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.ops.WithLabelValues("read", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("flush", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.binds.WithLabelValues("table", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.catchUpRows))
}
