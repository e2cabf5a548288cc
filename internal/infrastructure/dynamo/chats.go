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

const fieldChatID = "chat_id"

// ChatRepo stores resume-builder chat histories.
type ChatRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewChatRepo(client *dynamodb.Client, tableName string) *ChatRepo {
	return &ChatRepo{client: client, tableName: tableName}
}

// Put creates or replaces a chat.
func (r *ChatRepo) Put(ctx context.Context, c *domain.Chat) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal chat: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put chat: %w", err)
	}
	return nil
}

func (r *ChatRepo) Get(ctx context.Context, chatID string) (*domain.Chat, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldChatID, chatID),
	})
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if out.Item == nil {
		return nil, domain.NewError(domain.ErrNotFound, "Chat not found")
	}
	var c domain.Chat
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns up to limit chats, newest first.
func (r *ChatRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Chat, error) {
	in := r.byUser(userID)
	in.Limit = aws.Int32(int32(limit))
	out, err := r.client.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	var chats []domain.Chat
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// LatestWithResume returns the newest chat carrying resume data, or nil.
func (r *ChatRepo) LatestWithResume(ctx context.Context, userID string) (*domain.Chat, error) {
	in := r.withResume(userID)
	p := dynamodb.NewQueryPaginator(r.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query chats: %w", err)
		}
		if len(page.Items) > 0 {
			var c domain.Chat
			if err := attributevalue.UnmarshalMap(page.Items[0], &c); err != nil {
				return nil, err
			}
			return &c, nil
		}
	}
	return nil, nil
}

// CountWithResume counts a user's chats that carry resume data.
func (r *ChatRepo) CountWithResume(ctx context.Context, userID string) (int, error) {
	n, err := countQuery(ctx, r.client, r.withResume(userID))
	if err != nil {
		return 0, fmt.Errorf("count chats: %w", err)
	}
	return n, nil
}

func (r *ChatRepo) Delete(ctx context.Context, chatID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldChatID, chatID),
	})
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

func (r *ChatRepo) byUser(userID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserTimestamp),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
		ScanIndexForward:          aws.Bool(false),
	}
}

func (r *ChatRepo) withResume(userID string) *dynamodb.QueryInput {
	in := r.byUser(userID)
	in.FilterExpression = aws.String("#hr = :t")
	in.ExpressionAttributeNames = map[string]string{"#hr": fieldHasResume}
	in.ExpressionAttributeValues[":t"] = &types.AttributeValueMemberBOOL{Value: true}
	return in
}
