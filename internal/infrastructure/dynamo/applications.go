package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

const fieldApplicationID = "application_id"

// ApplicationRepo provides typed DynamoDB operations for job applications.
type ApplicationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewApplicationRepo(client *dynamodb.Client, tableName string) *ApplicationRepo {
	return &ApplicationRepo{client: client, tableName: tableName}
}

func (r *ApplicationRepo) Put(ctx context.Context, a *domain.Application) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put application: %w", err)
	}
	return nil
}

func (r *ApplicationRepo) Get(ctx context.Context, applicationID string) (*domain.Application, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldApplicationID, applicationID),
	})
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if out.Item == nil {
		return nil, domain.NewError(domain.ErrNotFound, "Application not found")
	}
	var a domain.Application
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SetStatus changes an application's status; a missing application yields domain.ErrNotFound.
func (r *ApplicationRepo) SetStatus(ctx context.Context, applicationID, status string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus:    status,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldApplicationID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldApplicationID, applicationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return domain.NewError(domain.ErrNotFound, "Application not found")
	}
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return nil
}

// ListByUser returns a user's applications, newest first.
func (r *ApplicationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Application, error) {
	var apps []domain.Application
	if err := queryAll(ctx, r.client, r.byUser(userID), &apps); err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	return apps, nil
}

func (r *ApplicationRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := countQuery(ctx, r.client, r.byUser(userID))
	if err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return n, nil
}

// List returns every application.
func (r *ApplicationRepo) List(ctx context.Context) ([]domain.Application, error) {
	var apps []domain.Application
	if err := scanAll(ctx, r.client, r.tableName, &apps); err != nil {
		return nil, fmt.Errorf("scan applications: %w", err)
	}
	return apps, nil
}

func (r *ApplicationRepo) byUser(userID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserCreatedAt),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
		ScanIndexForward:          aws.Bool(false),
	}
}
