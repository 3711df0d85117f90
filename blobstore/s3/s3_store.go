package s3

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/tabiter/blobstore"
)

// Store implements blobstore.BlobStore on an S3 bucket.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	upload   UploadConfig
	uploader *manager.Uploader
}

type options struct {
	prefix string
	region string
	upload UploadConfig
}

// Option configures New.
type Option func(*options)

// WithPrefix prepends prefix to every key (e.g. "tables/").
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRegion overrides the region from the default AWS config chain.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithUploadConfig overrides the multipart upload settings.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *options) { o.upload = cfg }
}

// New loads the default AWS config and creates a store for bucket.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	o := options{upload: DefaultUploadConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := loadConfig(ctx, o)
	if err != nil {
		return nil, err
	}

	return NewStoreWithConfig(s3.NewFromConfig(cfg), bucket, o.prefix, o.upload), nil
}

// NewWithCommits creates a store for bucket whose table pointers are
// committed to the DynamoDB table commitTable. Both clients share the
// default AWS config.
func NewWithCommits(ctx context.Context, bucket, commitTable string, opts ...Option) (*DDBCommitStore, error) {
	o := options{upload: DefaultUploadConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := loadConfig(ctx, o)
	if err != nil {
		return nil, err
	}

	store := NewStoreWithConfig(s3.NewFromConfig(cfg), bucket, o.prefix, o.upload)
	return NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), commitTable, BaseURI(bucket, o.prefix)), nil
}

// BaseURI returns the "s3://bucket/prefix" URI that namespaces commits.
func BaseURI(bucket, prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return "s3://" + bucket
	}
	return "s3://" + bucket + "/" + prefix
}

func loadConfig(ctx context.Context, o options) (aws.Config, error) {
	var cfgOpts []func(*config.LoadOptions) error
	if o.region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(o.region))
	}
	return config.LoadDefaultConfig(ctx, cfgOpts...)
}

// NewStore creates a store from an existing client with default upload settings.
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return NewStoreWithConfig(client, bucket, rootPrefix, DefaultUploadConfig())
}

// NewStoreWithConfig creates a store from an existing client.
func NewStoreWithConfig(client Client, bucket, rootPrefix string, cfg UploadConfig) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   rootPrefix,
		upload:   cfg,
		uploader: newUploader(client, cfg),
	}
}

func (s *Store) key(name string) string { return joinKey(s.prefix, name) }

// Open checks the object exists and returns a range-reading handle.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &s3Blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Create streams a multipart upload; the object appears when Close returns.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return newStreamingBlob(ctx, s.uploader, s.bucket, s.key(name), s.upload.EnableChecksum), nil
}

// Put uploads a small object in one request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return putObject(ctx, s.client, s.bucket, s.key(name), data, s.upload.EnableChecksum)
}

// Delete removes the object. S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// List returns the sorted names under prefix, relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return listKeys(ctx, s.client, s.bucket, s.prefix, prefix)
}
