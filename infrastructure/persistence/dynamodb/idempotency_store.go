package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// DefaultIdempotencyTTL is how long a processed event is remembered.
const DefaultIdempotencyTTL = 7 * 24 * time.Hour

// DefaultClaimLease bounds how long a claim blocks redeliveries when its
// holder never completes or releases it. It matches the Lambda timeout cap.
const DefaultClaimLease = 15 * time.Minute

// Claim states.
const (
	claimInProgress = "IN_PROGRESS"
	claimCompleted  = "COMPLETED"
)

// IdempotencyStore records processed events with conditional writes.
type IdempotencyStore struct {
	client    DynamoDBAPI
	tableName string
	ttl       time.Duration
	lease     time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

func NewIdempotencyStore(client DynamoDBAPI, tableName string, ttl time.Duration, logger *zap.Logger) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		lease:     DefaultClaimLease,
		logger:    logger,
		now:       time.Now,
	}
}

func idempotencyKey(scope, key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "IDEMPOTENCY#" + scope},
		"SK": &types.AttributeValueMemberS{Value: key},
	}
}

// Claim takes key under scope with an IN_PROGRESS lease. It succeeds when
// the key is new or its previous holder let the lease run out, and returns
// false when the key is completed or leased by a live run.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, key string) (bool, error) {
	now := s.now()
	item := idempotencyKey(scope, key)
	item["Status"] = &types.AttributeValueMemberS{Value: claimInProgress}
	item["ClaimedAt"] = &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)}
	item["LeaseUntil"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Add(s.lease).Unix())}
	item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Add(s.ttl).Unix())}

	cond := expression.Name("PK").AttributeNotExists().Or(
		expression.Name("Status").Equal(expression.Value(claimInProgress)).
			And(expression.Name("LeaseUntil").LessThan(expression.Value(now.Unix()))),
	)
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return false, fmt.Errorf("failed to build claim condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			s.logger.Debug("Event already processed or in progress",
				zap.String("subscriber", scope),
				zap.String("eventID", key),
			)
			return false, nil
		}
		return false, pkgerrors.NewDatabaseError("claim event", err)
	}
	return true, nil
}

// Complete marks a claimed key as processed for good.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key string) error {
	update := expression.Set(expression.Name("Status"), expression.Value(claimCompleted)).
		Set(expression.Name("CompletedAt"), expression.Value(s.now().UTC().Format(time.RFC3339))).
		Remove(expression.Name("LeaseUntil"))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("failed to build claim update: %w", err)
	}

	if _, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       idempotencyKey(scope, key),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}); err != nil {
		return pkgerrors.NewDatabaseError("complete event claim", err)
	}
	return nil
}

// Release forgets a claim so a failed run can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       idempotencyKey(scope, key),
	}); err != nil {
		return pkgerrors.NewDatabaseError("release event claim", err)
	}
	return nil
}
