package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taskflow-api/internal/domain"
)

// TaskRepo provides typed DynamoDB operations for the tasks table.
type TaskRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTaskRepo(client *dynamodb.Client, tableName string) *TaskRepo {
	return &TaskRepo{client: client, tableName: tableName}
}

func (r *TaskRepo) Put(ctx context.Context, t *domain.Task) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TaskRepo) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("task_id", taskID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("task not found: %w", domain.ErrNotFound)
	}
	var t domain.Task
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) List(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Task
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		tasks = append(tasks, batch...)
	}
	return tasks, nil
}

// ListByContractor returns the contractor's tasks ordered by date_to ascending.
func (r *TaskRepo) ListByContractor(ctx context.Context, contractorID string) ([]domain.Task, error) {
	var tasks []domain.Task
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("contractor_id-date_to-index"),
		KeyConditionExpression: aws.String("contractor_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: contractorID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Task
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		tasks = append(tasks, batch...)
	}
	return tasks, nil
}

// CountByProject returns how many tasks reference the project.
func (r *TaskRepo) CountByProject(ctx context.Context, projectID string) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("project_id-index"),
		KeyConditionExpression: aws.String("project_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: projectID},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(out.Count), nil
}

// UpdateDetails overwrites the editable task fields.
func (r *TaskRepo) UpdateDetails(ctx context.Context, taskID string, in domain.UpdateTaskRequest) error {
	return r.update(ctx, taskID, map[string]interface{}{
		fieldDescription: in.Description,
		fieldDateFrom:    in.DateFrom,
		fieldDateTo:      in.DateTo,
	}, nil)
}

// UpdateStatus moves the task from one status to another. The write only
// succeeds while the stored status still equals from, so two concurrent
// transitions cannot both apply.
func (r *TaskRepo) UpdateStatus(ctx context.Context, taskID string, from, to domain.TaskStatus) error {
	cond := &condition{
		expr:  "#cs = :from",
		name:  map[string]string{"#cs": fieldStatus},
		value: map[string]types.AttributeValue{":from": &types.AttributeValueMemberS{Value: string(from)}},
	}
	err := r.update(ctx, taskID, map[string]interface{}{fieldStatus: to}, cond)
	if conditionalCheckFailed(err) {
		return fmt.Errorf("task %s is no longer %s: %w", taskID, from, domain.ErrInvalidStatusTransition)
	}
	return err
}

func (r *TaskRepo) Delete(ctx context.Context, taskID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("task_id", taskID),
		ConditionExpression: aws.String("attribute_exists(task_id)"),
	})
	if conditionalCheckFailed(err) {
		return fmt.Errorf("task not found: %w", domain.ErrNotFound)
	}
	return err
}

type condition struct {
	expr  string
	name  map[string]string
	value map[string]types.AttributeValue
}

func (r *TaskRepo) update(ctx context.Context, taskID string, updates map[string]interface{}, cond *condition) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	in := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("task_id", taskID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(task_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	}
	if cond != nil {
		in.ConditionExpression = aws.String("attribute_exists(task_id) AND " + cond.expr)
		for k, v := range cond.name {
			in.ExpressionAttributeNames[k] = v
		}
		for k, v := range cond.value {
			in.ExpressionAttributeValues[k] = v
		}
	}
	_, err = r.client.UpdateItem(ctx, in)
	if err != nil && cond == nil && conditionalCheckFailed(err) {
		return fmt.Errorf("task not found: %w", domain.ErrNotFound)
	}
	return err
}
