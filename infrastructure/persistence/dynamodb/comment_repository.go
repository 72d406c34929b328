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
	"github.com/FeroHriadel/tripiabackend/pkg/common"
)

// CommentRepository stores trip comments keyed by id.
type CommentRepository struct {
	table     *table[entities.Comment]
	tripIndex string
	logger    *zap.Logger
}

var _ ports.CommentRepository = (*CommentRepository)(nil)

// NewCommentRepository creates a comment repository. tripIndex is keyed by trip.
func NewCommentRepository(client DynamoDBAPI, tableName, tripIndex string, outbox *OutboxStore, logger *zap.Logger) *CommentRepository {
	return &CommentRepository{
		table:     newTable[entities.Comment](client, tableName, "id", "Comment", outbox, logger),
		tripIndex: tripIndex,
		logger:    logger,
	}
}

func (r *CommentRepository) Save(ctx context.Context, comment *entities.Comment) error {
	if err := r.table.put(ctx, comment); err != nil {
		return err
	}
	r.logger.Debug("Comment saved", zap.String("commentID", comment.ID), zap.String("tripID", comment.Trip))
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*entities.Comment, error) {
	return r.table.get(ctx, id)
}

func (r *CommentRepository) byTrip(tripID string) (*dynamodb.QueryInput, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("trip").Equal(expression.Value(tripID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	return &dynamodb.QueryInput{
		IndexName:                 aws.String(r.tripIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

// ListByTrip returns one page of the comments of tripID.
func (r *CommentRepository) ListByTrip(ctx context.Context, tripID string, page common.PageRequest) (common.Page[*entities.Comment], error) {
	out := common.Page[*entities.Comment]{Items: []*entities.Comment{}}

	input, err := r.byTrip(tripID)
	if err != nil {
		return out, err
	}
	if input.ExclusiveStartKey, err = decodeCursor(page.Cursor); err != nil {
		return out, err
	}
	size := page.PageSize
	if size <= 0 {
		size = common.DefaultPageSize
	}
	input.Limit = aws.Int32(int32(size))

	items, next, err := r.table.queryPage(ctx, input)
	if err != nil {
		return out, err
	}
	out.Items = items
	out.Cursor, err = encodeCursor(next)
	return out, err
}

// AllByTrip returns every comment of tripID across all pages.
func (r *CommentRepository) AllByTrip(ctx context.Context, tripID string) ([]*entities.Comment, error) {
	input, err := r.byTrip(tripID)
	if err != nil {
		return nil, err
	}
	return r.table.queryAll(ctx, input)
}

func (r *CommentRepository) Delete(ctx context.Context, id string, cascade ...events.Envelope) error {
	if err := r.table.remove(ctx, id, cascade...); err != nil {
		return err
	}
	r.logger.Debug("Comment deleted", zap.String("commentID", id))
	return nil
}

func (r *CommentRepository) DeleteBatch(ctx context.Context, ids []string) (ports.BatchDeleteResult, error) {
	return r.table.deleteBatch(ctx, ids)
}
