package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taratrabaho/jobboard-api/internal/credstore"
)

const fieldPK = "pk"

// ttlGrace delays DynamoDB's TTL reaper past the logical expiry so a late Get
// still reports Expired rather than Absent.
const ttlGrace = time.Minute

// credentialItem is one row of the credentials table.
// PK: "<namespace>#<key>". expires_at is the DynamoDB TTL attribute (epoch
// seconds, expiry plus ttlGrace); expiry keeps the exact instant used for lookups.
type credentialItem[T any] struct {
	PK        string    `dynamodbav:"pk"`
	Payload   T         `dynamodbav:"payload"`
	Expiry    time.Time `dynamodbav:"expiry"`
	ExpiresAt int64     `dynamodbav:"expires_at"`
}

// CredentialStore is a credstore.Store backed by a shared DynamoDB table. It
// survives process restarts, unlike the in-memory store.
type CredentialStore[T any] struct {
	client    *dynamodb.Client
	tableName string
	namespace string
	clock     credstore.Clock
}

func NewCredentialStore[T any](client *dynamodb.Client, tableName, namespace string, clock credstore.Clock) *CredentialStore[T] {
	if clock == nil {
		clock = credstore.SystemClock
	}
	return &CredentialStore[T]{client: client, tableName: tableName, namespace: namespace + "#", clock: clock}
}

func newCredentialItem[T any](pk string, v T, expiry time.Time) credentialItem[T] {
	return credentialItem[T]{
		PK:        pk,
		Payload:   v,
		Expiry:    expiry,
		ExpiresAt: expiry.Add(ttlGrace).Unix(),
	}
}

func (s *CredentialStore[T]) pk(key string) string { return s.namespace + key }

func (s *CredentialStore[T]) Put(ctx context.Context, key string, v T, ttl time.Duration) error {
	item, err := attributevalue.MarshalMap(newCredentialItem(s.pk(key), v, s.clock.Now().Add(ttl)))
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

func (s *CredentialStore[T]) Get(ctx context.Context, key string) (T, credstore.Lookup, error) {
	var zero T
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            strKey(fieldPK, s.pk(key)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return zero, credstore.Absent, fmt.Errorf("get credential: %w", err)
	}
	if out.Item == nil {
		return zero, credstore.Absent, nil
	}
	var item credentialItem[T]
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return zero, credstore.Absent, fmt.Errorf("unmarshal credential: %w", err)
	}
	if s.clock.Now().After(item.Expiry) {
		if err := s.Remove(ctx, key); err != nil {
			return zero, credstore.Expired, err
		}
		return zero, credstore.Expired, nil
	}
	return item.Payload, credstore.Present, nil
}

// Take deletes the row and inspects the old image, so two concurrent takes
// cannot both observe it.
func (s *CredentialStore[T]) Take(ctx context.Context, key string) (T, credstore.Lookup, error) {
	var zero T
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          strKey(fieldPK, s.pk(key)),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return zero, credstore.Absent, fmt.Errorf("take credential: %w", err)
	}
	if len(out.Attributes) == 0 {
		return zero, credstore.Absent, nil
	}
	var item credentialItem[T]
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return zero, credstore.Absent, fmt.Errorf("unmarshal credential: %w", err)
	}
	if s.clock.Now().After(item.Expiry) {
		return zero, credstore.Expired, nil
	}
	return item.Payload, credstore.Present, nil
}

func (s *CredentialStore[T]) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       strKey(fieldPK, s.pk(key)),
	})
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// SweepExpired deletes this namespace's rows whose TTL attribute has passed.
// DynamoDB's own TTL reaper runs lazily, so this keeps the table tidy between reaps.
func (s *CredentialStore[T]) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                aws.String(s.tableName),
		FilterExpression:         aws.String("begins_with(#pk, :ns) AND #exp < :now"),
		ProjectionExpression:     aws.String("#pk"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldPK, "#exp": fieldExpiresAt},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ns":  &types.AttributeValueMemberS{Value: s.namespace},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	n := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return n, fmt.Errorf("scan credentials: %w", err)
		}
		for _, item := range page.Items {
			_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(s.tableName),
				Key:       map[string]types.AttributeValue{fieldPK: item[fieldPK]},
			})
			if err != nil {
				return n, fmt.Errorf("delete credential: %w", err)
			}
			n++
		}
	}
	return n, nil
}
