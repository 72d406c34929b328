package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// CategoryRepository stores trip categories keyed by id.
type CategoryRepository struct {
	table       *table[entities.Category]
	nameIndex   string
	sortedIndex string
	logger      *zap.Logger
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository creates a category repository. nameIndex is keyed by
// name and sortedIndex by (type, name).
func NewCategoryRepository(client DynamoDBAPI, tableName, nameIndex, sortedIndex string, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		table:       newTable[entities.Category](client, tableName, "id", "Category", nil, logger),
		nameIndex:   nameIndex,
		sortedIndex: sortedIndex,
		logger:      logger,
	}
}

func (r *CategoryRepository) Save(ctx context.Context, category *entities.Category) error {
	if err := r.table.put(ctx, category); err != nil {
		return err
	}
	r.logger.Debug("Category saved", zap.String("categoryID", category.ID), zap.String("name", category.Name))
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*entities.Category, error) {
	return r.table.get(ctx, id)
}

// FindByName looks a category up by its lower-cased name.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*entities.Category, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("name").Equal(expression.Value(strings.ToLower(strings.TrimSpace(name))))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	items, _, err := r.table.queryPage(ctx, &dynamodb.QueryInput{
		IndexName:                 aws.String(r.nameIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.NewNotFoundError("Category")
	}
	return items[0], nil
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]*entities.Category, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("type").Equal(expression.Value(entities.TypeCategory))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	return r.table.queryAll(ctx, &dynamodb.QueryInput{
		IndexName:                 aws.String(r.sortedIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	if err := r.table.remove(ctx, id); err != nil {
		return err
	}
	r.logger.Debug("Category deleted", zap.String("categoryID", id))
	return nil
}
