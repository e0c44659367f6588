package ledger

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/models"
)

const keyAttribute = "instagramPostId"

// DynamoDBLedger implements Ledger using AWS DynamoDB.
type DynamoDBLedger struct {
	client    dynamodbiface.DynamoDBAPI
	tableName string
}

// NewDynamoDBLedger creates a new DynamoDB ledger instance.
func NewDynamoDBLedger(cfg config.LedgerConfig) (*DynamoDBLedger, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// For local testing with DynamoDB Local
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	l := &DynamoDBLedger{
		client:    dynamodb.New(sess),
		tableName: cfg.TableName,
	}

	// Create table if it doesn't exist (for local testing)
	if err := l.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure table exists: %w", err)
	}

	return l, nil
}

// ensureTable creates the DynamoDB table if it doesn't exist
func (l *DynamoDBLedger) ensureTable() error {
	_, err := l.client.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(l.tableName),
	})

	if err == nil {
		return nil // Table already exists
	}

	input := &dynamodb.CreateTableInput{
		TableName: aws.String(l.tableName),
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(keyAttribute),
				KeyType:       aws.String("HASH"),
			},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(keyAttribute),
				AttributeType: aws.String("S"),
			},
		},
		BillingMode: aws.String("PAY_PER_REQUEST"),
	}

	_, err = l.client.CreateTable(input)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return l.client.WaitUntilTableExists(&dynamodb.DescribeTableInput{
		TableName: aws.String(l.tableName),
	})
}

// IsProcessed reports whether a record exists for the post ID.
func (l *DynamoDBLedger) IsProcessed(ctx context.Context, postID string) (bool, error) {
	result, err := l.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			keyAttribute: {
				S: aws.String(postID),
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get record for post %s: %w", postID, err)
	}

	return result.Item != nil, nil
}

// MarkProcessed upserts the record for its post ID.
func (l *DynamoDBLedger) MarkProcessed(ctx context.Context, rec models.ProcessedPost) (string, error) {
	item, err := dynamodbattribute.MarshalMap(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record for post %s: %w", rec.InstagramPostID, err)
	}

	_, err = l.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item:      item,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store record for post %s: %w", rec.InstagramPostID, err)
	}

	return rec.InstagramPostID, nil
}

// GetRecords scans the table, up to limit records.
func (l *DynamoDBLedger) GetRecords(ctx context.Context, limit int) ([]models.ProcessedPost, error) {
	result, err := l.client.ScanWithContext(ctx, &dynamodb.ScanInput{
		TableName: aws.String(l.tableName),
		Limit:     aws.Int64(int64(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	var records []models.ProcessedPost
	if err := dynamodbattribute.UnmarshalListOfMaps(result.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records: %w", err)
	}

	return records, nil
}

// Close closes the DynamoDB connection
func (l *DynamoDBLedger) Close() error {
	// DynamoDB client doesn't need explicit closing
	return nil
}
