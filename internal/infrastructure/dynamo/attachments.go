package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taskflow-api/internal/domain"
)

// AttachmentRepo provides typed DynamoDB operations for the attachments table.
type AttachmentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAttachmentRepo(client *dynamodb.Client, tableName string) *AttachmentRepo {
	return &AttachmentRepo{client: client, tableName: tableName}
}

func (r *AttachmentRepo) Put(ctx context.Context, a *domain.Attachment) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal attachment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AttachmentRepo) Get(ctx context.Context, attachmentID string) (*domain.Attachment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("attachment_id", attachmentID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("attachment not found: %w", domain.ErrNotFound)
	}
	var a domain.Attachment
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentRepo) ListByTask(ctx context.Context, taskID string) ([]domain.Attachment, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("task_id-index"),
		KeyConditionExpression: aws.String("task_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: taskID},
		},
	})
	if err != nil {
		return nil, err
	}
	var attachments []domain.Attachment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *AttachmentRepo) Delete(ctx context.Context, attachmentID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("attachment_id", attachmentID),
	})
	return err
}
