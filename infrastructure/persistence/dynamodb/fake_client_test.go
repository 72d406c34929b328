package dynamodb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// fakeDynamo records every request and answers with the configured
// functions, or with empty outputs when none is set.
type fakeDynamo struct {
	mu sync.Mutex

	getItem            func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem            func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	deleteItem         func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	updateItem         func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	query              func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	batchGetItem       func(*dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error)
	batchWriteItem     func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)
	transactWriteItems func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error)

	gets         []*dynamodb.GetItemInput
	puts         []*dynamodb.PutItemInput
	deletes      []*dynamodb.DeleteItemInput
	updates      []*dynamodb.UpdateItemInput
	queries      []dynamodb.QueryInput
	batchGets    []*dynamodb.BatchGetItemInput
	batchWrites  []*dynamodb.BatchWriteItemInput
	transactions []*dynamodb.TransactWriteItemsInput
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, in)
	if f.getItem != nil {
		return f.getItem(in)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	if f.putItem != nil {
		return f.putItem(in)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, in)
	if f.deleteItem != nil {
		return f.deleteItem(in)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if f.updateItem != nil {
		return f.updateItem(in)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, *in)
	if f.query != nil {
		return f.query(in)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamo) BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchGets = append(f.batchGets, in)
	if f.batchGetItem != nil {
		return f.batchGetItem(in)
	}
	return &dynamodb.BatchGetItemOutput{}, nil
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchWrites = append(f.batchWrites, in)
	if f.batchWriteItem != nil {
		return f.batchWriteItem(in)
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append(f.transactions, in)
	if f.transactWriteItems != nil {
		return f.transactWriteItems(in)
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// noBackoff disables retry sleeps for the duration of a test.
func noBackoff(t *testing.T) {
	t.Helper()
	prev := retryBackoff
	retryBackoff = func(int) time.Duration { return 0 }
	t.Cleanup(func() { retryBackoff = prev })
}
