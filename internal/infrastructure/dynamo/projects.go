package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/taskflow-api/internal/domain"
)

// ProjectRepo provides typed DynamoDB operations for the projects table.
type ProjectRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewProjectRepo(client *dynamodb.Client, tableName string) *ProjectRepo {
	return &ProjectRepo{client: client, tableName: tableName}
}

func (r *ProjectRepo) Put(ctx context.Context, p *domain.Project) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ProjectRepo) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("project_id", projectID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("project not found: %w", domain.ErrNotFound)
	}
	var p domain.Project
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Project
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		projects = append(projects, batch...)
	}
	return projects, nil
}

// Update sets name and description on an existing project.
func (r *ProjectRepo) Update(ctx context.Context, projectID string, in domain.ProjectInput) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldName:        in.Name,
		fieldDescription: in.Description,
		fieldUpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("project_id", projectID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(project_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if conditionalCheckFailed(err) {
		return fmt.Errorf("project not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *ProjectRepo) Delete(ctx context.Context, projectID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("project_id", projectID),
		ConditionExpression: aws.String("attribute_exists(project_id)"),
	})
	if conditionalCheckFailed(err) {
		return fmt.Errorf("project not found: %w", domain.ErrNotFound)
	}
	return err
}
