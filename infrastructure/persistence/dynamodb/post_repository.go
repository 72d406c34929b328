package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
)

func groupIDQuery(index, groupID string) (*dynamodb.QueryInput, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("groupId").Equal(expression.Value(groupID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	return &dynamodb.QueryInput{
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

// PostRepository stores group posts keyed by id.
type PostRepository struct {
	table      *table[entities.Post]
	groupIndex string
	logger     *zap.Logger
}

var _ ports.PostRepository = (*PostRepository)(nil)

// NewPostRepository creates a post repository. groupIndex is keyed by
// (groupId, createdAt).
func NewPostRepository(client DynamoDBAPI, tableName, groupIndex string, outbox *OutboxStore, logger *zap.Logger) *PostRepository {
	return &PostRepository{
		table:      newTable[entities.Post](client, tableName, "id", "Post", outbox, logger),
		groupIndex: groupIndex,
		logger:     logger,
	}
}

func (r *PostRepository) Save(ctx context.Context, post *entities.Post) error {
	if err := r.table.put(ctx, post); err != nil {
		return err
	}
	r.logger.Debug("Post saved", zap.String("postID", post.ID), zap.String("groupID", post.GroupID))
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*entities.Post, error) {
	return r.table.get(ctx, id)
}

// ListByGroup returns every post of groupID, newest first.
func (r *PostRepository) ListByGroup(ctx context.Context, groupID string) ([]*entities.Post, error) {
	input, err := groupIDQuery(r.groupIndex, groupID)
	if err != nil {
		return nil, err
	}
	input.ScanIndexForward = aws.Bool(false)
	return r.table.queryAll(ctx, input)
}

func (r *PostRepository) Delete(ctx context.Context, id string, cascade ...events.Envelope) error {
	if err := r.table.remove(ctx, id, cascade...); err != nil {
		return err
	}
	r.logger.Debug("Post deleted", zap.String("postID", id), zap.Int("cascadeEvents", len(cascade)))
	return nil
}

func (r *PostRepository) DeleteBatch(ctx context.Context, ids []string) (ports.BatchDeleteResult, error) {
	return r.table.deleteBatch(ctx, ids)
}

// ConnectionRepository stores live WebSocket connections keyed by
// connection id. Rows expire through the table TTL on ttl.
type ConnectionRepository struct {
	table      *table[entities.Connection]
	groupIndex string
	logger     *zap.Logger
}

var _ ports.ConnectionRepository = (*ConnectionRepository)(nil)

func NewConnectionRepository(client DynamoDBAPI, tableName, groupIndex string, logger *zap.Logger) *ConnectionRepository {
	return &ConnectionRepository{
		table:      newTable[entities.Connection](client, tableName, "id", "Connection", nil, logger),
		groupIndex: groupIndex,
		logger:     logger,
	}
}

func (r *ConnectionRepository) Save(ctx context.Context, conn *entities.Connection) error {
	return r.table.put(ctx, conn)
}

func (r *ConnectionRepository) Delete(ctx context.Context, connectionID string) error {
	return r.table.remove(ctx, connectionID)
}

func (r *ConnectionRepository) ListByGroup(ctx context.Context, groupID string) ([]*entities.Connection, error) {
	input, err := groupIDQuery(r.groupIndex, groupID)
	if err != nil {
		return nil, err
	}
	return r.table.queryAll(ctx, input)
}
