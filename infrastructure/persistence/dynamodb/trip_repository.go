package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/pkg/common"
)

// TripRepository stores trips keyed by id.
type TripRepository struct {
	table        *table[entities.Trip]
	dateIndex    string
	creatorIndex string
	logger       *zap.Logger
}

var _ ports.TripRepository = (*TripRepository)(nil)

// NewTripRepository creates a trip repository. dateIndex is keyed by
// (type, updatedAt) and creatorIndex by createdBy.
func NewTripRepository(client DynamoDBAPI, tableName, dateIndex, creatorIndex string, outbox *OutboxStore, logger *zap.Logger) *TripRepository {
	return &TripRepository{
		table:        newTable[entities.Trip](client, tableName, "id", "Trip", outbox, logger),
		dateIndex:    dateIndex,
		creatorIndex: creatorIndex,
		logger:       logger,
	}
}

func (r *TripRepository) Save(ctx context.Context, trip *entities.Trip) error {
	if err := r.table.put(ctx, trip); err != nil {
		return err
	}
	r.logger.Debug("Trip saved", zap.String("tripID", trip.ID))
	return nil
}

func (r *TripRepository) FindByID(ctx context.Context, id string) (*entities.Trip, error) {
	return r.table.get(ctx, id)
}

func (r *TripRepository) FindByIDs(ctx context.Context, ids []string) ([]*entities.Trip, error) {
	return r.table.batchGet(ctx, ids)
}

// List returns trips newest first.
func (r *TripRepository) List(ctx context.Context, page common.PageRequest) (common.Page[*entities.Trip], error) {
	return r.listByDate(ctx, nil, page)
}

// Search returns trips whose name, description, keywords or author nickname
// contain word, newest first. word is expected lower-cased.
func (r *TripRepository) Search(ctx context.Context, word string, page common.PageRequest) (common.Page[*entities.Trip], error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return r.List(ctx, page)
	}
	filter := expression.Name("name_lower").Contains(word).Or(
		expression.Name("description_lower").Contains(word),
		expression.Name("keyWords").Contains(word),
		expression.Name("nickname_lower").Contains(word),
	)
	return r.listByDate(ctx, &filter, page)
}

// listByDate pages through the date index. With a filter, DynamoDB applies
// Limit before filtering, so it keeps querying with the remaining budget
// until the page is full or the index is exhausted.
func (r *TripRepository) listByDate(ctx context.Context, filter *expression.ConditionBuilder, page common.PageRequest) (common.Page[*entities.Trip], error) {
	out := common.Page[*entities.Trip]{Items: []*entities.Trip{}}

	size := page.PageSize
	if size <= 0 {
		size = common.DefaultPageSize
	}
	startKey, err := decodeCursor(page.Cursor)
	if err != nil {
		return out, err
	}

	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("type").Equal(expression.Value(entities.TypeTrip)))
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return out, fmt.Errorf("failed to build expression: %w", err)
	}

	for {
		input := &dynamodb.QueryInput{
			IndexName:                 aws.String(r.dateIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(false),
			Limit:                     aws.Int32(int32(size - len(out.Items))),
			ExclusiveStartKey:         startKey,
		}

		items, next, err := r.table.queryPage(ctx, input)
		if err != nil {
			return out, err
		}
		out.Items = append(out.Items, items...)
		startKey = next

		if len(next) == 0 || len(out.Items) >= size {
			break
		}
	}

	out.Cursor, err = encodeCursor(startKey)
	return out, err
}

// ListByCreator returns every trip created by email, most recently updated
// first.
func (r *TripRepository) ListByCreator(ctx context.Context, email string) ([]*entities.Trip, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("createdBy").Equal(expression.Value(email))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	trips, err := r.table.queryAll(ctx, &dynamodb.QueryInput{
		IndexName:                 aws.String(r.creatorIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].UpdatedAt > trips[j].UpdatedAt
	})
	return trips, nil
}

// Delete removes the trip and stores cascade in the outbox atomically.
func (r *TripRepository) Delete(ctx context.Context, id string, cascade ...events.Envelope) error {
	if err := r.table.remove(ctx, id, cascade...); err != nil {
		return err
	}
	r.logger.Debug("Trip deleted", zap.String("tripID", id), zap.Int("cascadeEvents", len(cascade)))
	return nil
}
