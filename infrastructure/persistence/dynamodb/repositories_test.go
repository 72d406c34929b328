package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/pkg/common"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestOutbox(client DynamoDBAPI) *OutboxStore {
	store := NewOutboxStore(client, "TripiaOutbox", "StatusIndex", 30*time.Second, zap.NewNop())
	store.now = func() time.Time { return fixedNow }
	return store
}

func marshalItems(t *testing.T, items ...interface{}) []map[string]types.AttributeValue {
	t.Helper()
	out := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		av, err := attributevalue.MarshalMap(item)
		require.NoError(t, err)
		out = append(out, av)
	}
	return out
}

func TestCursor_RoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberS{Value: "t-1"},
		"type":      &types.AttributeValueMemberS{Value: entities.TypeTrip},
		"updatedAt": &types.AttributeValueMemberS{Value: "2024-05-01T10:00:00Z"},
	}

	token, err := encodeCursor(key)
	require.NoError(t, err)
	assert.NotContains(t, token, "=")

	decoded, err := decodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	empty, err := encodeCursor(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = decodeCursor("not base64 !!")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestTripRepository_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("missing trip", func(t *testing.T) {
		repo := NewTripRepository(&fakeDynamo{}, "TripiaTrips", "dateSort", "createdBy", nil, zap.NewNop())
		_, err := repo.FindByID(ctx, "t-x")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("found", func(t *testing.T) {
		client := &fakeDynamo{getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: marshalItems(t, entities.Trip{ID: "t-1", Name: "Tatra"})[0]}, nil
		}}
		repo := NewTripRepository(client, "TripiaTrips", "dateSort", "createdBy", nil, zap.NewNop())

		trip, err := repo.FindByID(ctx, "t-1")
		require.NoError(t, err)
		assert.Equal(t, "Tatra", trip.Name)
		assert.Equal(t, "TripiaTrips", *client.gets[0].TableName)
	})

	t.Run("sdk failure is a database error", func(t *testing.T) {
		client := &fakeDynamo{getItem: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return nil, errors.New("throttled")
		}}
		repo := NewTripRepository(client, "TripiaTrips", "dateSort", "createdBy", nil, zap.NewNop())
		_, err := repo.FindByID(ctx, "t-1")
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	})
}

func TestTripRepository_DeleteWritesOutboxInSameTransaction(t *testing.T) {
	ctx := context.Background()
	client := &fakeDynamo{}
	repo := NewTripRepository(client, "TripiaTrips", "dateSort", "createdBy", newTestOutbox(client), zap.NewNop())

	envs, err := events.NewEnvelopes(fixedNow,
		events.DeleteImages{Keys: []string{"trip.png"}},
		events.DeleteCommentsForTrip{TripID: "t-1"},
	)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "t-1", envs...))

	assert.Empty(t, client.deletes)
	require.Len(t, client.transactions, 1)
	items := client.transactions[0].TransactItems
	require.Len(t, items, 3)

	require.NotNil(t, items[0].Delete)
	assert.Equal(t, "TripiaTrips", *items[0].Delete.TableName)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "t-1"}, items[0].Delete.Key["id"])

	for i, env := range envs {
		put := items[i+1].Put
		require.NotNil(t, put)
		assert.Equal(t, "TripiaOutbox", *put.TableName)

		var row outboxItem
		require.NoError(t, attributevalue.UnmarshalMap(put.Item, &row))
		assert.Equal(t, "OUTBOX#"+env.ID, row.PK)
		assert.Equal(t, "EVENT", row.SK)
		assert.Equal(t, string(events.OutboxPending), row.Status)
		assert.Equal(t, "STATUS#PENDING", row.GSI1PK)
		assert.Equal(t, dueSortKey(fixedNow.Add(30*time.Second), env.ID), row.GSI1SK)
		assert.Equal(t, string(env.Payload), row.Payload)
	}
}

func TestTripRepository_DeleteWithoutCascade(t *testing.T) {
	client := &fakeDynamo{}
	repo := NewTripRepository(client, "TripiaTrips", "dateSort", "createdBy", newTestOutbox(client), zap.NewNop())

	require.NoError(t, repo.Delete(context.Background(), "t-1"))
	assert.Len(t, client.deletes, 1)
	assert.Empty(t, client.transactions)
}

func TestTripRepository_SearchFillsPage(t *testing.T) {
	calls := 0
	lastKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "t-3"}}
	client := &fakeDynamo{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		calls++
		if calls == 1 {
			return &dynamodb.QueryOutput{
				Items:            marshalItems(t, entities.Trip{ID: "t-1"}),
				LastEvaluatedKey: map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "t-1"}},
			}, nil
		}
		return &dynamodb.QueryOutput{
			Items:            marshalItems(t, entities.Trip{ID: "t-2"}, entities.Trip{ID: "t-3"}),
			LastEvaluatedKey: lastKey,
		}, nil
	}}
	repo := NewTripRepository(client, "TripiaTrips", "dateSort", "createdBy", nil, zap.NewNop())

	page, err := repo.Search(context.Background(), " Tatra ", common.PageRequest{PageSize: 3})
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	require.Len(t, client.queries, 2)
	assert.Equal(t, int32(3), *client.queries[0].Limit)
	assert.Equal(t, int32(2), *client.queries[1].Limit)
	assert.Equal(t, "dateSort", *client.queries[0].IndexName)
	assert.False(t, *client.queries[0].ScanIndexForward)
	assert.NotNil(t, client.queries[0].FilterExpression)
	assert.Contains(t, client.queries[0].ExpressionAttributeValues, ":1")

	decoded, err := decodeCursor(page.Cursor)
	require.NoError(t, err)
	assert.Equal(t, lastKey, decoded)
}

func TestTripRepository_ListLastPageHasNoCursor(t *testing.T) {
	client := &fakeDynamo{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		return &dynamodb.QueryOutput{Items: marshalItems(t, entities.Trip{ID: "t-1"})}, nil
	}}
	repo := NewTripRepository(client, "TripiaTrips", "dateSort", "createdBy", nil, zap.NewNop())

	page, err := repo.List(context.Background(), common.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Empty(t, page.Cursor)
	assert.Nil(t, client.queries[0].FilterExpression)
	assert.Equal(t, int32(common.DefaultPageSize), *client.queries[0].Limit)
}

func TestTripRepository_ListByCreatorSortsByUpdatedAt(t *testing.T) {
	client := &fakeDynamo{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		return &dynamodb.QueryOutput{Items: marshalItems(t,
			entities.Trip{ID: "old", UpdatedAt: "2024-01-01T00:00:00Z"},
			entities.Trip{ID: "new", UpdatedAt: "2024-03-01T00:00:00Z"},
		)}, nil
	}}
	repo := NewTripRepository(client, "TripiaTrips", "dateSort", "createdBy", nil, zap.NewNop())

	trips, err := repo.ListByCreator(context.Background(), "ann@example.com")
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "new", trips[0].ID)
	assert.Equal(t, "createdBy", *client.queries[0].IndexName)
}

func TestCommentRepository_AllByTripFollowsPages(t *testing.T) {
	calls := 0
	client := &fakeDynamo{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		calls++
		if calls == 1 {
			return &dynamodb.QueryOutput{
				Items:            marshalItems(t, entities.Comment{ID: "c-1", Trip: "t-1"}),
				LastEvaluatedKey: map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "c-1"}},
			}, nil
		}
		return &dynamodb.QueryOutput{Items: marshalItems(t, entities.Comment{ID: "c-2", Trip: "t-1"})}, nil
	}}
	repo := NewCommentRepository(client, "TripiaComments", "trip", nil, zap.NewNop())

	comments, err := repo.AllByTrip(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Len(t, comments, 2)
	require.Len(t, client.queries, 2)
	assert.Nil(t, client.queries[0].ExclusiveStartKey)
	assert.NotNil(t, client.queries[1].ExclusiveStartKey)
}

func TestCommentRepository_AllByTripEmpty(t *testing.T) {
	repo := NewCommentRepository(&fakeDynamo{}, "TripiaComments", "trip", nil, zap.NewNop())
	comments, err := repo.AllByTrip(context.Background(), "t-1")
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}

func commentIDs(n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, fmt.Sprintf("c-%02d", i))
	}
	return ids
}

func TestCommentRepository_DeleteBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("chunks of 25 and retries unprocessed", func(t *testing.T) {
		noBackoff(t)
		calls := 0
		client := &fakeDynamo{batchWriteItem: func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
			calls++
			reqs := in.RequestItems["TripiaComments"]
			if calls == 1 {
				return &dynamodb.BatchWriteItemOutput{
					UnprocessedItems: map[string][]types.WriteRequest{"TripiaComments": reqs[len(reqs)-1:]},
				}, nil
			}
			return &dynamodb.BatchWriteItemOutput{}, nil
		}}
		repo := NewCommentRepository(client, "TripiaComments", "trip", nil, zap.NewNop())

		result, err := repo.DeleteBatch(ctx, commentIDs(60))
		require.NoError(t, err)

		assert.Equal(t, 60, result.Requested)
		assert.Equal(t, 60, result.Deleted)
		assert.Equal(t, 3, result.Batches)
		assert.Empty(t, result.Unprocessed)

		require.Len(t, client.batchWrites, 4)
		assert.Len(t, client.batchWrites[0].RequestItems["TripiaComments"], 25)
		assert.Len(t, client.batchWrites[1].RequestItems["TripiaComments"], 1)
		assert.Len(t, client.batchWrites[2].RequestItems["TripiaComments"], 25)
		assert.Len(t, client.batchWrites[3].RequestItems["TripiaComments"], 10)
	})

	t.Run("stuck item is reported after three attempts", func(t *testing.T) {
		noBackoff(t)
		client := &fakeDynamo{batchWriteItem: func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
			var stuck []types.WriteRequest
			for _, req := range in.RequestItems["TripiaComments"] {
				if v := req.DeleteRequest.Key["id"].(*types.AttributeValueMemberS); v.Value == "c-03" {
					stuck = append(stuck, req)
				}
			}
			return &dynamodb.BatchWriteItemOutput{
				UnprocessedItems: map[string][]types.WriteRequest{"TripiaComments": stuck},
			}, nil
		}}
		repo := NewCommentRepository(client, "TripiaComments", "trip", nil, zap.NewNop())

		result, err := repo.DeleteBatch(ctx, commentIDs(5))
		require.NoError(t, err)
		assert.Equal(t, []string{"c-03"}, result.Unprocessed)
		assert.Equal(t, 4, result.Deleted)
		assert.Len(t, client.batchWrites, maxRetries)
	})

	t.Run("persistent failure", func(t *testing.T) {
		noBackoff(t)
		client := &fakeDynamo{batchWriteItem: func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
			return nil, errors.New("service unavailable")
		}}
		repo := NewCommentRepository(client, "TripiaComments", "trip", nil, zap.NewNop())

		result, err := repo.DeleteBatch(ctx, commentIDs(3))
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
		assert.Len(t, result.Unprocessed, 3)
		assert.Equal(t, 0, result.Deleted)
	})

	t.Run("nothing to delete", func(t *testing.T) {
		client := &fakeDynamo{}
		repo := NewCommentRepository(client, "TripiaComments", "trip", nil, zap.NewNop())
		result, err := repo.DeleteBatch(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Batches)
		assert.Empty(t, client.batchWrites)
	})
}

func TestCommentRepository_ListByTripRejectsBadCursor(t *testing.T) {
	client := &fakeDynamo{}
	repo := NewCommentRepository(client, "TripiaComments", "trip", nil, zap.NewNop())

	_, err := repo.ListByTrip(context.Background(), "t-1", common.PageRequest{PageSize: 3, Cursor: "%%%"})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Empty(t, client.queries)
}

func TestGroupRepository_FindByIDsRetriesUnprocessedKeys(t *testing.T) {
	noBackoff(t)
	calls := 0
	client := &fakeDynamo{batchGetItem: func(in *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
		calls++
		if calls == 1 {
			return &dynamodb.BatchGetItemOutput{
				Responses: map[string][]map[string]types.AttributeValue{
					"TripiaGroups": marshalItems(t, entities.Group{ID: "g-1"}),
				},
				UnprocessedKeys: map[string]types.KeysAndAttributes{
					"TripiaGroups": {Keys: []map[string]types.AttributeValue{stringKey("id", "g-2")}},
				},
			}, nil
		}
		return &dynamodb.BatchGetItemOutput{
			Responses: map[string][]map[string]types.AttributeValue{
				"TripiaGroups": marshalItems(t, entities.Group{ID: "g-2"}),
			},
		}, nil
	}}
	repo := NewGroupRepository(client, "TripiaGroups", nil, zap.NewNop())

	groups, err := repo.FindByIDs(context.Background(), []string{"g-1", "g-2", "", "g-1"})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Len(t, client.batchGets[0].RequestItems["TripiaGroups"].Keys, 2)
}

func TestGroupRepository_SaveWithMembershipEvent(t *testing.T) {
	client := &fakeDynamo{}
	repo := NewGroupRepository(client, "TripiaGroups", newTestOutbox(client), zap.NewNop())

	env, err := events.NewEnvelope(events.UpdateUserGroups{
		UserEmail: "ann@example.com", GroupID: "g-1", Intent: entities.IntentJoin,
	}, fixedNow)
	require.NoError(t, err)

	group := &entities.Group{ID: "g-1", Name: "hikers", Members: []string{"ann@example.com"}}
	require.NoError(t, repo.Save(context.Background(), group, env))

	assert.Empty(t, client.puts)
	require.Len(t, client.transactions, 1)
	items := client.transactions[0].TransactItems
	require.Len(t, items, 2)
	assert.Equal(t, "TripiaGroups", *items[0].Put.TableName)
	assert.Equal(t, "TripiaOutbox", *items[1].Put.TableName)
}

func TestGroupRepository_CascadeWithoutOutbox(t *testing.T) {
	client := &fakeDynamo{}
	repo := NewGroupRepository(client, "TripiaGroups", nil, zap.NewNop())

	env, err := events.NewEnvelope(events.BatchDeletePostsForGroup{GroupID: "g-1"}, fixedNow)
	require.NoError(t, err)

	assert.Error(t, repo.Delete(context.Background(), "g-1", env))
	assert.Empty(t, client.transactions)
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("new user", func(t *testing.T) {
		client := &fakeDynamo{}
		repo := NewUserRepository(client, "TripiaUsers", zap.NewNop())

		require.NoError(t, repo.Create(ctx, entities.NewUser("Ann@Example.com", fixedNow)))
		require.Len(t, client.puts, 1)
		assert.Contains(t, *client.puts[0].ConditionExpression, "attribute_not_exists")
	})

	t.Run("existing user is a conflict", func(t *testing.T) {
		client := &fakeDynamo{putItem: func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		}}
		repo := NewUserRepository(client, "TripiaUsers", zap.NewNop())

		err := repo.Create(ctx, entities.NewUser("ann@example.com", fixedNow))
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict))
	})
}

func TestUserRepository_FindByEmailLowercasesKey(t *testing.T) {
	client := &fakeDynamo{}
	repo := NewUserRepository(client, "TripiaUsers", zap.NewNop())

	_, err := repo.FindByEmail(context.Background(), "Ann@Example.com")
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "ann@example.com"}, client.gets[0].Key["email"])
}

func TestCategoryRepository_FindByName(t *testing.T) {
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		repo := NewCategoryRepository(&fakeDynamo{}, "TripiaCategories", "name", "nameSort", zap.NewNop())
		_, err := repo.FindByName(ctx, "Hiking")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("hit", func(t *testing.T) {
		client := &fakeDynamo{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: marshalItems(t, entities.Category{ID: "cat-1", Name: "hiking"})}, nil
		}}
		repo := NewCategoryRepository(client, "TripiaCategories", "name", "nameSort", zap.NewNop())

		category, err := repo.FindByName(ctx, " Hiking ")
		require.NoError(t, err)
		assert.Equal(t, "cat-1", category.ID)
		assert.Equal(t, "name", *client.queries[0].IndexName)

		var values map[string]string
		require.NoError(t, attributevalue.UnmarshalMap(client.queries[0].ExpressionAttributeValues, &values))
		assert.Contains(t, values, ":0")
		assert.Equal(t, "hiking", values[":0"])
	})
}

func TestPostRepository_ListByGroupNewestFirst(t *testing.T) {
	client := &fakeDynamo{}
	repo := NewPostRepository(client, "TripiaPosts", "groupIdIndex", nil, zap.NewNop())

	posts, err := repo.ListByGroup(context.Background(), "g-1")
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.False(t, *client.queries[0].ScanIndexForward)
	assert.Equal(t, "groupIdIndex", *client.queries[0].IndexName)
}
