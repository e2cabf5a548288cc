package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

const fieldResumeID = "resume_id"

// ResumeRepo stores resume metadata; the PDF itself lives in S3.
type ResumeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewResumeRepo(client *dynamodb.Client, tableName string) *ResumeRepo {
	return &ResumeRepo{client: client, tableName: tableName}
}

func (r *ResumeRepo) Put(ctx context.Context, res *domain.Resume) error {
	item, err := attributevalue.MarshalMap(res)
	if err != nil {
		return fmt.Errorf("marshal resume: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put resume: %w", err)
	}
	return nil
}

func (r *ResumeRepo) Get(ctx context.Context, resumeID string) (*domain.Resume, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldResumeID, resumeID),
	})
	if err != nil {
		return nil, fmt.Errorf("get resume: %w", err)
	}
	if out.Item == nil {
		return nil, domain.NewError(domain.ErrNotFound, "Resume not found")
	}
	var res domain.Resume
	if err := attributevalue.UnmarshalMap(out.Item, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListByUser returns a user's resumes, newest first.
func (r *ResumeRepo) ListByUser(ctx context.Context, userID string) ([]domain.Resume, error) {
	var resumes []domain.Resume
	err := queryAll(ctx, r.client, r.byUser(userID), &resumes)
	if err != nil {
		return nil, fmt.Errorf("query resumes: %w", err)
	}
	return resumes, nil
}

func (r *ResumeRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := countQuery(ctx, r.client, r.byUser(userID))
	if err != nil {
		return 0, fmt.Errorf("count resumes: %w", err)
	}
	return n, nil
}

func (r *ResumeRepo) Delete(ctx context.Context, resumeID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldResumeID, resumeID),
	})
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	return nil
}

func (r *ResumeRepo) byUser(userID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserCreatedAt),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
		ScanIndexForward:          aws.Bool(false),
	}
}
