package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/domain"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// AWSArchive writes snapshot bodies to S3 and indexes them in DynamoDB.
type AWSArchive struct {
	s3Client  s3API
	dynamoDB  dynamoAPI
	bucket    string
	prefix    string
	tableName string
	ttl       time.Duration
}

// DynamoDBItem is one snapshot index entry.
type DynamoDBItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
	TTL       int64  `dynamodbav:"TTL,omitempty"`
}

// NewAWSArchive loads AWS configuration for the region and profile in cfg.
// Static keys, when present, take precedence over the default chain.
func NewAWSArchive(ctx context.Context, cfg appconfig.StorageConfig) (*AWSArchive, error) {
	if cfg.S3Bucket == "" || cfg.DynamoDBTable == "" {
		return nil, fmt.Errorf("s3 bucket and dynamodb table are required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return newAWSArchive(s3.NewFromConfig(awsCfg), dynamodb.NewFromConfig(awsCfg), cfg), nil
}

func newAWSArchive(s3c s3API, ddb dynamoAPI, cfg appconfig.StorageConfig) *AWSArchive {
	return &AWSArchive{
		s3Client:  s3c,
		dynamoDB:  ddb,
		bucket:    cfg.S3Bucket,
		prefix:    cfg.S3Prefix,
		tableName: cfg.DynamoDBTable,
		ttl:       time.Duration(cfg.TTLDays) * 24 * time.Hour,
	}
}

func partitionKey(tenantID string) string {
	return fmt.Sprintf("TENANT#%s", tenantID)
}

func (a *AWSArchive) objectKey(meta domain.SnapshotMeta) string {
	return path.Join(a.prefix, meta.TenantID, snapshotName(meta))
}

func (a *AWSArchive) Save(ctx context.Context, meta domain.SnapshotMeta, body []byte) (domain.SnapshotMeta, error) {
	key := a.objectKey(meta)
	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return meta, fmt.Errorf("uploading snapshot to S3: %w", err)
	}
	meta.Location = fmt.Sprintf("s3://%s/%s", a.bucket, key)
	meta.Size = int64(len(body))

	data, err := json.Marshal(meta)
	if err != nil {
		return meta, fmt.Errorf("marshaling snapshot meta: %w", err)
	}
	item := DynamoDBItem{
		PK:        partitionKey(meta.TenantID),
		SK:        sortKey(meta),
		Data:      string(data),
		Timestamp: meta.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if a.ttl > 0 {
		item.TTL = meta.GeneratedAt.Add(a.ttl).Unix()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return meta, fmt.Errorf("marshaling item: %w", err)
	}
	_, err = a.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.tableName),
		Item:      av,
	})
	if err != nil {
		return meta, fmt.Errorf("putting item to DynamoDB: %w", err)
	}
	return meta, nil
}

func (a *AWSArchive) List(ctx context.Context, tenantID string, limit int) ([]domain.SnapshotMeta, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(a.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partitionKey(tenantID)},
			":sk": &types.AttributeValueMemberS{Value: "SNAPSHOT#"},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := a.dynamoDB.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	metas := make([]domain.SnapshotMeta, 0, len(result.Items))
	for _, item := range result.Items {
		var dbItem DynamoDBItem
		if err := attributevalue.UnmarshalMap(item, &dbItem); err != nil {
			continue
		}
		var meta domain.SnapshotMeta
		if err := json.Unmarshal([]byte(dbItem.Data), &meta); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return metas, nil
}
