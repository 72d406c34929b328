// Package dynamodb implements the repositories, the outbox and the
// idempotency store on top of DynamoDB.
package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// DynamoDBAPI is the subset of the DynamoDB client the repositories use.
// *dynamodb.Client satisfies it.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

// DynamoDB request limits.
const (
	batchWriteSize = 25
	batchGetSize   = 100
	maxRetries     = 3
)

// retryBackoff is the wait before retry n (0 based) of unprocessed batch items.
var retryBackoff = func(retry int) time.Duration {
	return time.Duration(retry*retry+1) * 100 * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// encodeCursor turns a LastEvaluatedKey into an opaque token. A nil key
// means the query is exhausted and yields an empty token.
func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	var plain map[string]interface{}
	if err := attributevalue.UnmarshalMap(key, &plain); err != nil {
		return "", fmt.Errorf("failed to unmarshal cursor key: %w", err)
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// decodeCursor reverses encodeCursor. A malformed token is a validation error.
func decodeCursor(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, pkgerrors.NewValidationError("Invalid lastEvaluatedKey")
	}
	var plain map[string]interface{}
	if err := json.Unmarshal(raw, &plain); err != nil || len(plain) == 0 {
		return nil, pkgerrors.NewValidationError("Invalid lastEvaluatedKey")
	}
	key, err := attributevalue.MarshalMap(plain)
	if err != nil {
		return nil, pkgerrors.NewValidationError("Invalid lastEvaluatedKey")
	}
	return key, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

func stringKey(attr, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attr: &types.AttributeValueMemberS{Value: value},
	}
}
