package tabiter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/hupe1980/tabiter/blobstore"
	"github.com/hupe1980/tabiter/colstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vec3 [3]float64

type hit struct {
	Layer int
	Pos   vec3
	Tags  []string
}

func readAll[T any](t *testing.T, tab *Table, name string) []T {
	t.Helper()
	var got []T
	for r := range tab.Rows() {
		v, err := Lookup[T](r, name)
		require.NoError(t, err)
		got = append(got, v)
	}
	return got
}

func TestScenarioA(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 5) {
		Set(r, "x", 42.3+float64(r.Index()))
	}
	require.NoError(t, tab.Err())
	require.Equal(t, int64(5), tab.RowCount())

	sum := 0.0
	for r := range tab.Rows() {
		sum += GetOr(r, "x", -1.0)
	}
	assert.InDelta(t, 221.5, sum, 1e-9)
	assert.InDeltaSlice(t, []float64{42.3, 43.3, 44.3, 45.3, 46.3}, readAll[float64](t, tab, "x"), 1e-9)
}

func TestScenarioB(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	v := 42.3
	var want []float64
	for r := range tab.Fill(context.Background(), 5) {
		for c := range 2 {
			want = append(want, v)
			Set(r, fmt.Sprintf("x%03d", c), v)
			v++
		}
	}
	require.NoError(t, tab.Err())

	var got []float64
	for r := range tab.Rows() {
		for c := range 2 {
			got = append(got, GetOr(r, fmt.Sprintf("x%03d", c), -1.0))
		}
	}
	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestScenarioC(t *testing.T) {
	ctx := context.Background()
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(ctx, 3) {
		Set(r, "a", float64(r.Index()+1))
	}
	for r := range tab.Fill(ctx, 2) {
		Set(r, "a", float64(r.Index()+1))
		Set(r, "b", float64(r.Index()+1)*10)
	}
	require.NoError(t, tab.Err())

	assert.Equal(t, []float64{1, 2, 3, 4, 5}, readAll[float64](t, tab, "a"))
	assert.Equal(t, []float64{0, 0, 0, 40, 50}, readAll[float64](t, tab, "b"))
	assert.Equal(t, int64(3), tab.Stats().CatchUpRows)
}

func checkRoundTrip[T any](t *testing.T, values []T, opts ...Option) {
	t.Helper()
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	tab, err := Open(ctx, "t", append(opts, WithBlobStore(bs))...)
	require.NoError(t, err)
	for r := range tab.Fill(ctx, int64(len(values))) {
		require.NoError(t, Put(r, "v", values[r.Index()]))
	}
	require.NoError(t, tab.Err())
	assert.Equal(t, values, readAll[T](t, tab, "v"), "in memory")
	require.NoError(t, tab.Close())

	tab, err = Open(ctx, "t", append(opts, WithBlobStore(bs), WithReadOnly(true))...)
	require.NoError(t, err)
	defer tab.Close()
	assert.Equal(t, values, readAll[T](t, tab, "v"), "reopened")
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{"bool", func(t *testing.T) { checkRoundTrip(t, []bool{true, false, true}) }},
		{"int", func(t *testing.T) { checkRoundTrip(t, []int{-1, 0, 1 << 40}) }},
		{"int8", func(t *testing.T) { checkRoundTrip(t, []int8{-128, 0, 127}) }},
		{"int16", func(t *testing.T) { checkRoundTrip(t, []int16{-3, 0, 3}) }},
		{"int32", func(t *testing.T) { checkRoundTrip(t, []int32{-7, 7}) }},
		{"int64", func(t *testing.T) { checkRoundTrip(t, []int64{-1 << 62, 1 << 62}) }},
		{"uint8", func(t *testing.T) { checkRoundTrip(t, []uint8{0, 255}) }},
		{"uint16", func(t *testing.T) { checkRoundTrip(t, []uint16{1, 65535}) }},
		{"uint32", func(t *testing.T) { checkRoundTrip(t, []uint32{1, 1 << 31}) }},
		{"uint64", func(t *testing.T) { checkRoundTrip(t, []uint64{0, 1 << 63}) }},
		{"float32", func(t *testing.T) { checkRoundTrip(t, []float32{1.5, -2.25}) }},
		{"float64", func(t *testing.T) { checkRoundTrip(t, []float64{42.3, 43.3}) }},
		{"string", func(t *testing.T) { checkRoundTrip(t, []string{"", "abc", "héllo"}) }},
		{"array", func(t *testing.T) { checkRoundTrip(t, []vec3{{1, 2, 3}, {4, 5, 6}}) }},
		{"sequence", func(t *testing.T) { checkRoundTrip(t, [][]int{{1}, {2, 3}, {4, 5, 6}}) }},
		{"record", func(t *testing.T) {
			checkRoundTrip(t, []hit{{Layer: 1, Pos: vec3{1, 2, 3}, Tags: []string{"a"}}, {Layer: 2, Tags: []string{"b", "c"}}})
		}},
		{"record direct", func(t *testing.T) {
			checkRoundTrip(t, []hit{{Layer: 1, Tags: []string{"a"}}, {Layer: 2, Tags: []string{"b"}}}, WithIndirectObjects(false))
		}},
		{"map", func(t *testing.T) { checkRoundTrip(t, []map[string]int{{"a": 1}, {"b": 2}}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}
}

func TestDefaultOnUnset(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 4) {
		if r.Index()%2 == 0 {
			Set(r, "x", 1.5)
			Set(r, "s", "set")
			Set(r, "seq", []int{1, 2})
		}
	}
	require.NoError(t, tab.Err())

	assert.Equal(t, []float64{1.5, 0, 1.5, 0}, readAll[float64](t, tab, "x"))
	assert.Equal(t, []string{"set", "", "set", ""}, readAll[string](t, tab, "s"))
	assert.Equal(t, [][]int{{1, 2}, nil, {1, 2}, nil}, readAll[[]int](t, tab, "seq"))
}

func TestBranch(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	ctx := context.Background()
	for r := range tab.Fill(ctx, 2) {
		Set(r, "x", 1)
	}
	require.NoError(t, Branch[string](tab, "label"))
	require.NoError(t, Branch[string](tab, "label"))
	for r := range tab.Fill(ctx, 1) {
		Set(r, "x", 2)
	}
	require.NoError(t, tab.Err())

	assert.Equal(t, []string{"", "", ""}, readAll[string](t, tab, "label"))
	assert.Equal(t, []string{"x", "label"}, tab.AttributeNames(false, false))
}

func TestFill_Pending(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 1) {
		assert.Equal(t, -1.0, GetOr(r, "x", -1.0), "unknown attribute")
		Set(r, "x", 3.5)
		assert.Equal(t, 3.5, Get[float64](r, "x"))
		assert.True(t, r.Filling())
	}
	assert.Equal(t, 0, int(tab.Stats().BytesRead))
}

func TestFill_Break(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), -1) {
		Set(r, "x", r.Index())
		if r.Index() == 3 {
			break
		}
	}
	require.NoError(t, tab.Err())
	assert.Equal(t, int64(3), tab.RowCount(), "broken row is not committed")
}

func TestFill_ExplicitCommit(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 2) {
		Set(r, "x", int32(r.Index()))
		n, err := r.Commit()
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		n, err = r.Commit()
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	assert.Equal(t, int64(2), tab.RowCount())

	for r := range tab.Rows() {
		_, err := r.Commit()
		assert.ErrorIs(t, err, ErrNotFilling)
	}
}

func TestFill_EmptyRow(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for range tab.Fill(context.Background(), 1) {
	}
	assert.ErrorIs(t, tab.Err(), ErrEmptyRow)
}

func TestFill_Canceled(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for r := range tab.Fill(ctx, 10) {
		Set(r, "x", 1)
		if r.Index() == 1 {
			cancel()
		}
	}
	assert.ErrorIs(t, tab.Err(), context.Canceled)
	assert.Equal(t, int64(2), tab.RowCount())
}

func TestRange(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 10) {
		Set(r, "i", r.Index())
	}

	var got []int64
	for r := range tab.Range(3, 6) {
		got = append(got, Get[int64](r, "i"))
	}
	assert.Equal(t, []int64{3, 4, 5}, got)

	got = got[:0]
	for r := range tab.Range(8, 100) {
		got = append(got, Get[int64](r, "i"))
	}
	assert.Equal(t, []int64{8, 9}, got)
}

func TestLazyRead(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 3) {
		Set(r, "a", 1.0)
		Set(r, "b", 2.0)
	}
	before := tab.Stats().BytesRead
	for r := range tab.Rows() {
		_ = Get[float64](r, "a")
		_ = Get[float64](r, "a")
	}
	assert.Equal(t, int64(3*8), tab.Stats().BytesRead-before, "b is never read and a once per row")
}

func TestLazyRead_AfterFill(t *testing.T) {
	ctx := context.Background()
	tab := New("t")
	defer tab.Close()

	readX := func() []float64 {
		var xs []float64
		for r := range tab.Rows() {
			xs = append(xs, Get[float64](r, "x"))
		}
		return xs
	}

	for r := range tab.Fill(ctx, 1) {
		Set(r, "x", 5.0)
		Set(r, "y", 1.0)
	}
	require.NoError(t, tab.Err())
	assert.Equal(t, []float64{5}, readX())

	for r := range tab.Fill(ctx, 1) {
		Set(r, "y", 2.0)
	}
	require.NoError(t, tab.Err())
	assert.Equal(t, []float64{5, 0}, readX(), "row 0 is read again after x was written with its default")

	for r := range tab.Fill(ctx, 1) {
		Set(r, "x", 7.0)
	}
	require.NoError(t, tab.Err())
	assert.Equal(t, []float64{5, 0, 7}, readX())

	for r := range tab.Range(0, 1) {
		assert.Equal(t, 1.0, Get[float64](r, "y"))
	}
}

func TestGrowthRebind(t *testing.T) {
	const attrs = 10
	tab := New("t", WithCapacity(2))
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 3) {
		for a := range attrs {
			Set(r, fmt.Sprintf("a%d", a), float64(r.Index()*100)+float64(a))
		}
		for a := range attrs {
			assert.Equal(t, float64(r.Index()*100)+float64(a), Get[float64](r, fmt.Sprintf("a%d", a)), "pending value survives growth")
		}
	}
	require.NoError(t, tab.Err())
	assert.NotZero(t, tab.Stats().Rebinds)

	reader := Attach(tab.Store(), WithCapacity(1), WithOverrideAddress(true))
	for r := range reader.Rows() {
		for a := range attrs {
			assert.Equal(t, float64(r.Index()*100)+float64(a), Get[float64](r, fmt.Sprintf("a%d", a)))
		}
	}
	assert.NotZero(t, reader.Stats().Rebinds)
	require.NoError(t, reader.Close())
}

func TestMemo(t *testing.T) {
	const k, m = 8, 200
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), m) {
		for a := range k {
			Set(r, fmt.Sprintf("a%d", a), a)
		}
	}
	require.NoError(t, tab.Err())

	stats := tab.Stats()
	assert.LessOrEqual(t, stats.Misses, uint64(k))
	assert.GreaterOrEqual(t, stats.Hits, uint64(k*(m-1)))
	assert.Equal(t, k, stats.Slots)
}

func TestMemo_IrregularOrder(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 4) {
		Set(r, "a", 1)
		Set(r, "b", 2)
		Set(r, "c", 3)
	}
	for r := range tab.Rows() {
		assert.Equal(t, 3, Get[int](r, "c"))
		assert.Equal(t, 1, Get[int](r, "a"))
		assert.Equal(t, 1, Get[int](r, "a"))
		assert.Equal(t, 2, Get[int](r, "b"))
	}
	assert.NotZero(t, tab.Stats().Misses)
}

func TestExternalAddress(t *testing.T) {
	st := colstore.New("t")
	var x float64
	col, err := st.CreateColumn("x", colstore.DescriptorFor[float64](colstore.DefaultLayout))
	require.NoError(t, err)
	require.NoError(t, st.RegisterAddress(col, colstore.AddressOf(&x)))
	_, err = st.CreateColumn("y", colstore.DescriptorFor[int](colstore.DefaultLayout))
	require.NoError(t, err)

	mc := &BasicMetricsCollector{}
	tab := Attach(st, WithMetricsCollector(mc))
	assert.False(t, st.Active("x"))
	assert.False(t, st.Active("y"))

	for r := range tab.Fill(context.Background(), 2) {
		Set(r, "x", 7.5+float64(r.Index()))
		assert.Equal(t, 7.5+float64(r.Index()), x, "writes go to the caller's address")
	}
	require.NoError(t, tab.Err())
	assert.True(t, st.Active("x"))
	assert.False(t, st.Active("y"))
	assert.Equal(t, int64(1), mc.GetStats().BindExternal)

	for r := range tab.Fill(context.Background(), 1) {
		err := Put(r, "x", int32(1))
		assert.ErrorIs(t, err, ErrTypeMismatch)
		assert.ErrorIs(t, err, ErrBinding)
		Set(r, "x", 1.0)
	}
	require.NoError(t, tab.Close())
	assert.True(t, col.HasAddress(), "caller-owned address is kept")

	v, err := st.Value(col, 1)
	require.NoError(t, err)
	assert.Equal(t, 8.5, v)
}

func TestOverrideAddress(t *testing.T) {
	st := colstore.New("t")
	var x float64
	col, err := st.CreateColumn("x", colstore.DescriptorFor[float64](colstore.DefaultLayout))
	require.NoError(t, err)
	require.NoError(t, st.RegisterAddress(col, colstore.AddressOf(&x)))

	tab := Attach(st, WithOverrideAddress(true))
	for r := range tab.Fill(context.Background(), 1) {
		Set(r, "x", 2.0)
	}
	require.NoError(t, tab.Err())
	assert.Zero(t, x)

	v, err := st.Value(col, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	require.NoError(t, tab.Close())
	assert.False(t, col.HasAddress())
}

func TestSameNameDifferentType(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 1) {
		Set(r, "x", 1.0)
		err := Put(r, "x", "one")
		assert.ErrorIs(t, err, ErrTypeMismatch)

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "x", e.Name)
		assert.Equal(t, SeverityError, e.Severity)

		// The unbound slot keeps the value in memory only.
		assert.ErrorIs(t, Put(r, "x", "two"), ErrNotBound)
		assert.Equal(t, "", Get[string](r, "x"))
	}
	require.NoError(t, tab.Err())
	assert.Equal(t, []float64{1}, readAll[float64](t, tab, "x"))
}

func TestGet_MissingColumn(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 2) {
		Set(r, "x", 1)
	}
	for r := range tab.Rows() {
		_, err := Lookup[int](r, "nope")
		if r.Index() == 0 {
			assert.ErrorIs(t, err, ErrColumnNotFound)
		} else {
			assert.ErrorIs(t, err, ErrNotBound)
		}
		assert.Equal(t, 9, GetOr(r, "nope", 9))
	}

	// A later fill creates the column the failed read asked for.
	for r := range tab.Fill(context.Background(), 1) {
		require.NoError(t, Put(r, "nope", 5))
	}
	assert.Equal(t, []int{0, 0, 5}, readAll[int](t, tab, "nope"))
}

func TestReadRow(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 3) {
		Set(r, "a", r.Index())
		Set(r, "b", fmt.Sprint(r.Index()))
	}
	for r := range tab.Rows() {
		_ = Get[int64](r, "a")
		_ = Get[string](r, "b")
	}

	n, err := tab.ReadRow(1)
	require.NoError(t, err)
	assert.Equal(t, 8+4+1, n)
	reads := tab.Stats().BytesRead
	for r := range tab.Range(1, 2) {
		assert.Equal(t, int64(1), Get[int64](r, "a"))
		assert.Equal(t, "1", Get[string](r, "b"))
	}
	assert.Equal(t, reads, tab.Stats().BytesRead, "row already held")

	_, err = tab.ReadRow(5)
	assert.ErrorIs(t, err, ErrRead)
}

func TestMemoryLimit(t *testing.T) {
	tab := New("t", WithMemoryLimit(24))
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 5) {
		Set(r, "a", 1.0)
		Set(r, "b", 2.0)
	}
	require.ErrorIs(t, tab.Err(), ErrFill)
	require.ErrorIs(t, tab.Err(), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(1), tab.RowCount())
}

func TestOpen_Persistence(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewLocalStore(t.TempDir())

	_, err := Open(ctx, "t", WithBlobStore(bs), WithReadOnly(true))
	require.ErrorIs(t, err, ErrTableNotFound)
	_, err = Open(ctx, "t")
	require.ErrorIs(t, err, ErrNoStore)

	mc := &BasicMetricsCollector{}
	tab, err := Open(ctx, "t", WithBlobStore(bs), WithCompression(colstore.CompressionLZ4), WithMetricsCollector(mc))
	require.NoError(t, err)
	for r := range tab.Fill(ctx, 10) {
		Set(r, "x", float64(r.Index()))
	}
	require.NoError(t, tab.Err())
	assert.Positive(t, tab.Stats().BytesFlushed)
	require.NoError(t, tab.Close())

	stats := mc.GetStats()
	assert.Equal(t, int64(10), stats.FillCount)
	assert.Equal(t, int64(1), stats.FlushCount)
	assert.Equal(t, int64(1), stats.BindCount)

	// Appending to the reopened table continues after the stored rows.
	tab, err = Open(ctx, "t", WithBlobStore(bs))
	require.NoError(t, err)
	for r := range tab.Fill(ctx, 2) {
		Set(r, "x", float64(r.Index()))
	}
	require.NoError(t, tab.Err())
	require.NoError(t, tab.Close())

	tab, err = Open(ctx, "t", WithBlobStore(bs), WithReadOnly(true))
	require.NoError(t, err)
	defer tab.Close()
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, readAll[float64](t, tab, "x"))

	_, err = tab.Flush(ctx)
	assert.ErrorIs(t, err, ErrReadOnly)

	for r := range tab.Fill(ctx, 1) {
		assert.ErrorIs(t, Put(r, "y", 1), ErrReadOnly)
	}
	assert.ErrorIs(t, tab.Err(), ErrReadOnly)
}

func TestSetStore(t *testing.T) {
	tab := New("a")
	for r := range tab.Fill(context.Background(), 1) {
		Set(r, "x", 1)
	}

	other := colstore.New("b")
	require.NoError(t, tab.SetStore(other))
	assert.Zero(t, tab.Stats().Slots)

	for r := range tab.Fill(context.Background(), 2) {
		Set(r, "x", 2)
	}
	require.NoError(t, tab.Err())
	assert.Equal(t, int64(2), other.RowCount())

	require.NoError(t, tab.Close())
	assert.Equal(t, int64(2), other.RowCount(), "attached store stays open")
	require.NoError(t, other.Close())
}

func TestClosed(t *testing.T) {
	tab := New("t")
	require.NoError(t, tab.Close())
	require.NoError(t, tab.Close())

	_, err := tab.Flush(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, Branch[int](tab, "x"), ErrClosed)
	assert.ErrorIs(t, tab.SetStore(nil), ErrClosed)

	for range tab.Fill(context.Background(), 1) {
		t.Fatal("closed table yields no rows")
	}
	assert.ErrorIs(t, tab.Err(), ErrClosed)
	for range tab.Rows() {
		t.Fatal("closed table yields no rows")
	}
}

func TestNoStore(t *testing.T) {
	tab := New("t")
	require.NoError(t, tab.SetStore(nil))
	defer tab.Close()

	for range tab.Fill(context.Background(), 1) {
		t.Fatal("no rows without a store")
	}
	assert.ErrorIs(t, tab.Err(), ErrNoStore)
	assert.Nil(t, tab.AttributeNames(true, true))
	assert.Zero(t, tab.RowCount())
}

func TestVerbosity(t *testing.T) {
	run := func(verbosity int) string {
		var buf bytes.Buffer
		logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: VerbosityLevel(verbosity)}))
		tab := New("t", WithLogger(logger))
		for r := range tab.Fill(context.Background(), 2) {
			if r.Index() == 1 {
				Set(r, "late", 1)
			}
			Set(r, "x", 1)
		}
		for r := range tab.Rows() {
			_ = Get[int](r, "x")
			_ = Get[int](r, "missing")
		}
		require.NoError(t, tab.Close())
		return buf.String()
	}

	assert.Empty(t, run(-1))

	quiet := run(0)
	assert.Contains(t, quiet, "bind failed")
	assert.NotContains(t, quiet, "catch up attribute")

	info := run(1)
	assert.Contains(t, info, "catch up attribute")
	assert.Contains(t, info, "attribute lookup cache")
	assert.NotContains(t, info, "filled row")

	assert.Contains(t, run(2), "filled row")
	assert.Contains(t, run(3), "read attribute")
}

func TestAttributeNames(t *testing.T) {
	tab := New("t")
	defer tab.Close()

	for r := range tab.Fill(context.Background(), 1) {
		Set(r, "h", hit{Layer: 1})
		Set(r, "n", 1)
	}
	assert.Equal(t, "h, h.Layer, h.Pos, h.Tags, n", tab.AttributeNamesString(true, false))

	reader := Attach(tab.Store())
	assert.Empty(t, reader.AttributeNames(false, false))
	assert.Equal(t, []string{"h", "n"}, reader.AttributeNames(false, true))
	require.NoError(t, reader.Close())
}

func BenchmarkLookup(b *testing.B) {
	tab := New("t")
	defer tab.Close()
	for r := range tab.Fill(context.Background(), 1) {
		for a := range 16 {
			Set(r, fmt.Sprintf("a%02d", a), float64(a))
		}
	}
	names := make([]string, 16)
	for a := range names {
		names[a] = fmt.Sprintf("a%02d", a)
	}
	ops := opsFor[float64]()

	for b.Loop() {
		for _, name := range names {
			if tab.lookup(name, ops.typ) < 0 {
				b.Fatal("not found")
			}
		}
	}
}

func BenchmarkRows(b *testing.B) {
	tab := New("t")
	defer tab.Close()
	for r := range tab.Fill(context.Background(), 1024) {
		Set(r, "x", float64(r.Index()))
		Set(r, "y", int32(r.Index()))
	}

	for b.Loop() {
		var sum float64
		for r := range tab.Rows() {
			sum += Get[float64](r, "x") + float64(Get[int32](r, "y"))
		}
	}
}
