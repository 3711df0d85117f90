package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	w, err := s.Create(ctx, "t-000001.tab")
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdef"))
	require.NoError(t, err)

	_, err = s.Open(ctx, "t-000001.tab")
	require.ErrorIs(t, err, ErrNotFound, "visible only after Close")

	require.NoError(t, w.Close())
	_, err = w.Write([]byte("x"))
	require.Error(t, err)

	b, err := s.Open(ctx, "t-000001.tab")
	require.NoError(t, err)
	assert.Equal(t, int64(6), b.Size())

	p := make([]byte, 4)
	n, err := b.ReadAt(ctx, p, 4)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := b.ReadRange(ctx, 1, 3)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "bcd", string(got))

	data := []byte("t-000001.tab")
	require.NoError(t, s.Put(ctx, "t"+PointerSuffix, data))
	data[0] = 'X' // caller mutation must not leak into the store
	ptr, err := ReadAll(ctx, s, "t.CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "t-000001.tab", string(ptr))
	assert.True(t, IsPointer("t.CURRENT"))
	assert.False(t, IsPointer("t-000001.tab"))

	names, err := s.List(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"t-000001.tab", "t.CURRENT"}, names)
	assert.Equal(t, 2, s.Len())

	require.NoError(t, s.Delete(ctx, "t-000001.tab"))
	assert.Equal(t, 1, s.Len())
}
