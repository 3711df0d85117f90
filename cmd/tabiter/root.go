package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/tabiter"
	"github.com/hupe1980/tabiter/blobstore"
	"github.com/hupe1980/tabiter/blobstore/minio"
	"github.com/hupe1980/tabiter/blobstore/s3"
	"github.com/hupe1980/tabiter/colstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings are resolved from flags, TABITER_* environment variables and the
// optional config file, in that order of precedence.
type settings struct {
	Dir         string
	Table       string
	Backend     string
	Bucket      string
	Prefix      string
	Endpoint    string
	Region      string
	DDBTable    string
	Compression string
	Verbose     int
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tabiter",
		Short: "Fill, inspect and export columnar tables",
		Long: `tabiter works on tables stored as versioned blobs in a local directory,
an S3 bucket or a MinIO bucket.

Example:
  tabiter fill --dir ./data --table events --rows 5 --columns 2
  tabiter dump --dir ./data --table events`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a config file (json, yaml or toml)")
	pf.IntP("verbose", "v", 0, "Verbosity: <0 silent, 0 errors, 1 info, 2 debug, 3 trace")
	pf.String("dir", ".", "Directory of the local backend")
	pf.StringP("table", "t", "", "Table name")
	pf.String("backend", "local", "Storage backend: local, s3 or minio")
	pf.String("bucket", "", "Bucket of the s3 and minio backends")
	pf.String("prefix", "", "Key prefix of the s3 and minio backends")
	pf.String("endpoint", "", "Endpoint of the minio backend")
	pf.String("region", "", "Region of the s3 and minio backends")
	pf.String("ddb-table", "", "DynamoDB table that commits table pointers of the s3 backend")
	pf.String("compression", "zstd", "Block compression on flush: none, lz4 or zstd")

	root.AddCommand(newFillCmd(), newDumpCmd(), newNamesCmd(), newExportCmd())
	return root
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	v := viper.New()
	v.SetEnvPrefix("TABITER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return settings{}, err
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return settings{}, err
	}
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	s := settings{
		Dir:         v.GetString("dir"),
		Table:       v.GetString("table"),
		Backend:     v.GetString("backend"),
		Bucket:      v.GetString("bucket"),
		Prefix:      v.GetString("prefix"),
		Endpoint:    v.GetString("endpoint"),
		Region:      v.GetString("region"),
		DDBTable:    v.GetString("ddb-table"),
		Compression: v.GetString("compression"),
		Verbose:     v.GetInt("verbose"),
	}
	if s.Table == "" {
		return s, fmt.Errorf("--table is required")
	}
	return s, nil
}

func openBlobStore(ctx context.Context, s settings) (blobstore.BlobStore, error) {
	if s.DDBTable != "" && s.Backend != "s3" {
		return nil, fmt.Errorf("--ddb-table requires the s3 backend")
	}
	switch s.Backend {
	case "", "local":
		return blobstore.NewLocalStore(s.Dir), nil
	case "s3":
		if s.Bucket == "" {
			return nil, fmt.Errorf("--bucket is required for the s3 backend")
		}
		opts := []s3.Option{s3.WithPrefix(s.Prefix), s3.WithRegion(s.Region)}
		if s.DDBTable != "" {
			return s3.NewWithCommits(ctx, s.Bucket, s.DDBTable, opts...)
		}
		return s3.New(ctx, s.Bucket, opts...)
	case "minio":
		if s.Bucket == "" || s.Endpoint == "" {
			return nil, fmt.Errorf("--bucket and --endpoint are required for the minio backend")
		}
		return minio.New(s.Endpoint, s.Bucket, minio.WithPrefix(s.Prefix), minio.WithRegion(s.Region))
	default:
		return nil, fmt.Errorf("unknown backend %q", s.Backend)
	}
}

func openTable(ctx context.Context, s settings, readOnly bool) (*tabiter.Table, error) {
	comp, err := colstore.ParseCompression(s.Compression)
	if err != nil {
		return nil, err
	}
	bs, err := openBlobStore(ctx, s)
	if err != nil {
		return nil, err
	}
	return tabiter.Open(ctx, s.Table,
		tabiter.WithBlobStore(bs),
		tabiter.WithReadOnly(readOnly),
		tabiter.WithCompression(comp),
		tabiter.WithVerbosity(s.Verbose),
	)
}

// columnStore returns the engine behind t for commands that inspect columns.
func columnStore(t *tabiter.Table) (*colstore.Store, error) {
	st, ok := t.Store().(*colstore.Store)
	if !ok {
		return nil, fmt.Errorf("table %s is not backed by a column store", t.Name())
	}
	return st, nil
}
