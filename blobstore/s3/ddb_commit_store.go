package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/tabiter/blobstore"
)

// DDBCommitStore stores table versions in S3 and commits table pointers
// (names ending in blobstore.PointerSuffix) through DynamoDB conditional
// writes, so concurrent flushes of the same table cannot silently overwrite
// each other.
//
// Table schema:
//   - Partition key: table_uri (string) - baseURI + "#" + table name
//   - Sort key: version (number) - monotonically increasing commit number
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name tabiter-commits \
//	  --attribute-definitions AttributeName=table_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=table_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	store     blobstore.BlobStore
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// DDBClient is the subset of the DynamoDB API used for commits.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when another writer committed the same version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// NewDDBCommitStore wraps store. baseURI (e.g. "s3://bucket/prefix") namespaces the commits.
func NewDDBCommitStore(store blobstore.BlobStore, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		store:     store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func (s *DDBCommitStore) tableURI(pointer string) string {
	return s.baseURI + "#" + strings.TrimSuffix(pointer, blobstore.PointerSuffix)
}

// Open reads pointers from DynamoDB and everything else from the wrapped store.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if !blobstore.IsPointer(name) {
		return s.store.Open(ctx, name)
	}

	version, target, err := s.latest(ctx, s.tableURI(name))
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}

	// Reuse the in-memory blob implementation for the pointer content.
	mem := blobstore.NewMemoryStore()
	if err := mem.Put(ctx, name, []byte(target)); err != nil {
		return nil, err
	}
	return mem.Open(ctx, name)
}

// Put commits pointers conditionally and forwards other blobs.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if blobstore.IsPointer(name) {
		return s.commit(ctx, s.tableURI(name), string(data))
	}
	return s.store.Put(ctx, name, data)
}

func (s *DDBCommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return s.store.Create(ctx, name)
}

func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	return s.store.Delete(ctx, name)
}

func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.store.List(ctx, prefix)
}

// Version returns the latest commit number of the named table (0 if never committed).
func (s *DDBCommitStore) Version(ctx context.Context, table string) (uint64, error) {
	v, _, err := s.latest(ctx, s.tableURI(table))
	return v, err
}

func (s *DDBCommitStore) latest(ctx context.Context, uri string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("table_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: uri},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query commits: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("commit item has no numeric version")
	}
	blobAttr, ok := item["blob"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("commit item has no blob name")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse commit version: %w", err)
	}
	return version, blobAttr.Value, nil
}

func (s *DDBCommitStore) commit(ctx context.Context, uri, target string) error {
	current, _, err := s.latest(ctx, uri)
	if err != nil {
		return err
	}

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"table_uri": &types.AttributeValueMemberS{Value: uri},
			"version":   &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			"blob":      &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("commit pointer: %w", err)
	}
	return nil
}
