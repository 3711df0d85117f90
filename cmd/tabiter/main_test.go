package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFillDump(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "fill", "--dir", dir, "--table", "events", "--rows", "5", "--columns", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "filled 5 rows (5 total)")

	out, err = run(t, "dump", "--dir", dir, "--table", "events")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{"row", "x000", "x001"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", "42.3", "43.3"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"4", "50.3", "51.3"}, strings.Fields(lines[5]))

	out, err = run(t, "dump", "--dir", dir, "--table", "events", "--first", "3", "--limit", "1", "--columns", "x001")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"3", "49.3"}, strings.Fields(lines[1]))

	out, err = run(t, "fill", "--dir", dir, "--table", "events", "--rows", "1", "--columns", "3", "--compression", "lz4")
	require.NoError(t, err)
	assert.Contains(t, out, "(6 total)")

	out, err = run(t, "names", "--dir", dir, "--table", "events")
	require.NoError(t, err)
	assert.Equal(t, "x000, x001, x002\n", out)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "fill", "--dir", dir, "--table", "t", "--rows", "3")
	require.NoError(t, err)

	file := filepath.Join(dir, "t.arrow")
	out, err := run(t, "export", "--dir", dir, "--table", "t", "--out", file)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 3 rows")

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	r, err := ipc.NewFileReader(f)
	require.NoError(t, err)
	defer r.Close()
	rec, err := r.Record(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{42.3, 43.3, 44.3}, rec.Column(0).(*array.Float64).Float64Values())
}

func TestSettings(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "tabiter.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("dir: "+dir+"\ntable: fromfile\n"), 0o600))

	_, err := run(t, "fill", "--config", cfg, "--rows", "2")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "fromfile.CURRENT"))
	require.NoError(t, err)

	t.Setenv("TABITER_TABLE", "fromenv")
	_, err = run(t, "fill", "--dir", dir, "--rows", "1")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "fromenv.CURRENT"))
	require.NoError(t, err)
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "dump", "--dir", dir)
	assert.ErrorContains(t, err, "--table is required")

	_, err = run(t, "dump", "--dir", dir, "--table", "missing")
	assert.ErrorContains(t, err, "table not found")

	_, err = run(t, "fill", "--dir", dir, "--table", "t", "--backend", "ftp")
	assert.ErrorContains(t, err, "unknown backend")

	_, err = run(t, "fill", "--dir", dir, "--table", "t", "--backend", "s3")
	assert.ErrorContains(t, err, "--bucket is required")

	_, err = run(t, "fill", "--dir", dir, "--table", "t", "--ddb-table", "commits")
	assert.ErrorContains(t, err, "--ddb-table requires the s3 backend")

	_, err = run(t, "fill", "--dir", dir, "--table", "t", "--backend", "s3", "--ddb-table", "commits")
	assert.ErrorContains(t, err, "--bucket is required")

	_, err = run(t, "fill", "--dir", dir, "--table", "t", "--compression", "snappy")
	assert.Error(t, err)
}
