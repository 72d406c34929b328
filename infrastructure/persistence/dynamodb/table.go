package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// table provides the CRUD operations shared by every single-key table.
type table[T any] struct {
	client   DynamoDBAPI
	name     string
	keyAttr  string
	resource string
	outbox   *OutboxStore
	logger   *zap.Logger
}

func newTable[T any](client DynamoDBAPI, name, keyAttr, resource string, outbox *OutboxStore, logger *zap.Logger) *table[T] {
	return &table[T]{
		client:   client,
		name:     name,
		keyAttr:  keyAttr,
		resource: resource,
		outbox:   outbox,
		logger:   logger,
	}
}

func (t *table[T]) get(ctx context.Context, id string) (*T, error) {
	result, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key:       stringKey(t.keyAttr, id),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get "+t.resource, err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError(t.resource)
	}

	var item T
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", t.resource, err)
	}
	return &item, nil
}

// put writes item. With cascade envelopes the write and the outbox rows are
// committed in one transaction.
func (t *table[T]) put(ctx context.Context, item *T, cascade ...events.Envelope) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", t.resource, err)
	}

	if len(cascade) == 0 {
		if _, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(t.name),
			Item:      av,
		}); err != nil {
			return pkgerrors.NewDatabaseError("save "+t.resource, err)
		}
		return nil
	}

	return t.transact(ctx, "save "+t.resource, types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(t.name),
			Item:      av,
		},
	}, cascade)
}

// putIfAbsent writes item only when no item with the same key exists.
func (t *table[T]) putIfAbsent(ctx context.Context, item *T, conflictMessage string) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", t.resource, err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(t.keyAttr))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(t.name),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewConflictError(conflictMessage)
		}
		return pkgerrors.NewDatabaseError("create "+t.resource, err)
	}
	return nil
}

// remove deletes the item with key id. Missing items are not an error. With
// cascade envelopes the delete and the outbox rows are committed together.
func (t *table[T]) remove(ctx context.Context, id string, cascade ...events.Envelope) error {
	if len(cascade) == 0 {
		if _, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(t.name),
			Key:       stringKey(t.keyAttr, id),
		}); err != nil {
			return pkgerrors.NewDatabaseError("delete "+t.resource, err)
		}
		return nil
	}

	return t.transact(ctx, "delete "+t.resource, types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(t.name),
			Key:       stringKey(t.keyAttr, id),
		},
	}, cascade)
}

func (t *table[T]) transact(ctx context.Context, op string, primary types.TransactWriteItem, cascade []events.Envelope) error {
	if t.outbox == nil {
		return fmt.Errorf("%s: no outbox configured for cascade events", op)
	}
	outboxItems, err := t.outbox.transactItems(cascade...)
	if err != nil {
		return err
	}

	items := append([]types.TransactWriteItem{primary}, outboxItems...)
	if _, err := t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		return pkgerrors.NewDatabaseError(op, err)
	}

	t.logger.Debug("Transaction committed",
		zap.String("operation", op),
		zap.Int("outboxEvents", len(cascade)),
	)
	return nil
}

// batchGet loads the items with the given keys. Missing keys are skipped and
// the result order is not defined.
func (t *table[T]) batchGet(ctx context.Context, ids []string) ([]*T, error) {
	out := make([]*T, 0, len(ids))

	for _, chunk := range utils.Chunk(utils.NonEmpty(ids), batchGetSize) {
		keys := make([]map[string]types.AttributeValue, 0, len(chunk))
		for _, id := range chunk {
			keys = append(keys, stringKey(t.keyAttr, id))
		}

		for retry := 0; len(keys) > 0; retry++ {
			if retry >= maxRetries {
				return nil, pkgerrors.NewDatabaseError("batch get "+t.resource,
					fmt.Errorf("%d keys left unprocessed", len(keys)))
			}
			if retry > 0 {
				if err := sleep(ctx, retryBackoff(retry-1)); err != nil {
					return nil, err
				}
			}

			result, err := t.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					t.name: {Keys: keys},
				},
			})
			if err != nil {
				return nil, pkgerrors.NewDatabaseError("batch get "+t.resource, err)
			}

			var items []T
			if err := attributevalue.UnmarshalListOfMaps(result.Responses[t.name], &items); err != nil {
				return nil, fmt.Errorf("failed to unmarshal %s: %w", t.resource, err)
			}
			for i := range items {
				out = append(out, &items[i])
			}

			keys = nil
			if rest, ok := result.UnprocessedKeys[t.name]; ok {
				keys = rest.Keys
			}
		}
	}
	return out, nil
}

// queryPage runs a single query page and returns its items and the cursor
// of the next page.
func (t *table[T]) queryPage(ctx context.Context, input *dynamodb.QueryInput) ([]*T, map[string]types.AttributeValue, error) {
	input.TableName = aws.String(t.name)

	result, err := t.client.Query(ctx, input)
	if err != nil {
		return nil, nil, pkgerrors.NewDatabaseError("query "+t.resource, err)
	}

	var items []T
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal %s: %w", t.resource, err)
	}
	out := make([]*T, 0, len(items))
	for i := range items {
		out = append(out, &items[i])
	}
	return out, result.LastEvaluatedKey, nil
}

// queryAll follows LastEvaluatedKey until the query is exhausted.
func (t *table[T]) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]*T, error) {
	var all []*T
	for {
		items, next, err := t.queryPage(ctx, input)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(next) == 0 {
			break
		}
		input.ExclusiveStartKey = next
	}
	if all == nil {
		all = []*T{}
	}
	return all, nil
}

// deleteBatch removes ids in BatchWriteItem chunks of 25. Unprocessed deletes
// are retried with backoff; whatever is still left is reported in the result.
func (t *table[T]) deleteBatch(ctx context.Context, ids []string) (ports.BatchDeleteResult, error) {
	ids = utils.NonEmpty(ids)
	result := ports.BatchDeleteResult{Requested: len(ids)}

	var lastErr error
	for _, chunk := range utils.Chunk(ids, batchWriteSize) {
		result.Batches++

		requests := make([]types.WriteRequest, 0, len(chunk))
		for _, id := range chunk {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: stringKey(t.keyAttr, id)},
			})
		}

		left, err := batchWrite(ctx, t.client, t.logger, t.name, requests)
		if err != nil {
			lastErr = err
		}
		for _, req := range left {
			if req.DeleteRequest == nil {
				continue
			}
			if v, ok := req.DeleteRequest.Key[t.keyAttr].(*types.AttributeValueMemberS); ok {
				result.Unprocessed = append(result.Unprocessed, v.Value)
			}
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	result.Deleted = result.Requested - len(result.Unprocessed)
	if lastErr != nil {
		return result, pkgerrors.NewDatabaseError("batch delete "+t.resource, lastErr)
	}
	return result, nil
}

// batchWrite sends one chunk of at most 25 write requests, retrying
// unprocessed items up to maxRetries times. It returns what is left.
func batchWrite(ctx context.Context, client DynamoDBAPI, logger *zap.Logger, tableName string, requests []types.WriteRequest) ([]types.WriteRequest, error) {
	var lastErr error
	pending := requests

	for retry := 0; retry < maxRetries && len(pending) > 0; retry++ {
		if retry > 0 {
			if err := sleep(ctx, retryBackoff(retry-1)); err != nil {
				return pending, err
			}
		}

		result, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				tableName: pending,
			},
		})
		if err != nil {
			lastErr = err
			logger.Warn("Batch write failed, retrying",
				zap.Error(err),
				zap.String("table", tableName),
				zap.Int("retry", retry+1),
			)
			continue
		}
		lastErr = nil

		pending = result.UnprocessedItems[tableName]
		if len(pending) > 0 {
			logger.Debug("Found unprocessed write requests, retrying",
				zap.String("table", tableName),
				zap.Int("unprocessedCount", len(pending)),
				zap.Int("retry", retry+1),
			)
		}
	}

	if len(pending) > 0 && lastErr == nil {
		logger.Warn("Write requests left unprocessed",
			zap.String("table", tableName),
			zap.Int("unprocessedCount", len(pending)),
		)
	}
	return pending, lastErr
}
