package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"time"

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

// PublishedRetention is how long published outbox rows are kept before the
// table TTL removes them.
const PublishedRetention = 7 * 24 * time.Hour

// outboxItem is the DynamoDB representation of an outbox entry.
type outboxItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	EventID       string `dynamodbav:"EventID"`
	Kind          string `dynamodbav:"Kind"`
	OccurredAt    string `dynamodbav:"OccurredAt"`
	Payload       string `dynamodbav:"Payload"`
	Status        string `dynamodbav:"Status"`
	Attempts      int    `dynamodbav:"Attempts"`
	LastError     string `dynamodbav:"LastError,omitempty"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
	NextAttemptAt string `dynamodbav:"NextAttemptAt"`
	GSI1PK        string `dynamodbav:"GSI1PK"`
	GSI1SK        string `dynamodbav:"GSI1SK"`
	TTL           int64  `dynamodbav:"ttl,omitempty"`
}

// OutboxStore keeps cascade events until the event bus has them.
type OutboxStore struct {
	client      DynamoDBAPI
	tableName   string
	statusIndex string
	grace       time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

var _ ports.OutboxStore = (*OutboxStore)(nil)

// NewOutboxStore creates an outbox store. grace delays the first sweep of a
// new entry so the inline dispatch gets the first chance to publish it.
func NewOutboxStore(client DynamoDBAPI, tableName, statusIndex string, grace time.Duration, logger *zap.Logger) *OutboxStore {
	return &OutboxStore{
		client:      client,
		tableName:   tableName,
		statusIndex: statusIndex,
		grace:       grace,
		logger:      logger,
		now:         time.Now,
	}
}

func outboxPK(eventID string) string {
	return "OUTBOX#" + eventID
}

func outboxKey(eventID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: outboxPK(eventID)},
		"SK": &types.AttributeValueMemberS{Value: "EVENT"},
	}
}

func statusPK(status events.OutboxStatus) string {
	return "STATUS#" + string(status)
}

// dueSortKey orders pending entries by due time. The fixed width keeps the
// lexical order equal to the numeric one.
func dueSortKey(at time.Time, eventID string) string {
	return fmt.Sprintf("%012d#%s", at.Unix(), eventID)
}

func toOutboxItem(entry events.OutboxEntry) outboxItem {
	item := outboxItem{
		PK:            outboxPK(entry.Envelope.ID),
		SK:            "EVENT",
		EventID:       entry.Envelope.ID,
		Kind:          string(entry.Envelope.Kind),
		OccurredAt:    entry.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
		Payload:       string(entry.Envelope.Payload),
		Status:        string(entry.Status),
		Attempts:      entry.Attempts,
		LastError:     entry.LastError,
		CreatedAt:     entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		NextAttemptAt: entry.NextAttemptAt.UTC().Format(time.RFC3339Nano),
		GSI1PK:        statusPK(entry.Status),
		GSI1SK:        dueSortKey(entry.NextAttemptAt, entry.Envelope.ID),
	}
	return item
}

func fromOutboxItem(item outboxItem) (events.OutboxEntry, error) {
	occurredAt, err := utils.ParseRFC3339(item.OccurredAt)
	if err != nil {
		return events.OutboxEntry{}, fmt.Errorf("invalid occurredAt on outbox entry %s: %w", item.EventID, err)
	}
	createdAt, _ := utils.ParseRFC3339(item.CreatedAt)
	nextAttemptAt, _ := utils.ParseRFC3339(item.NextAttemptAt)

	return events.OutboxEntry{
		Envelope: events.Envelope{
			ID:         item.EventID,
			Kind:       events.Kind(item.Kind),
			OccurredAt: occurredAt,
			Payload:    []byte(item.Payload),
		},
		Status:        events.OutboxStatus(item.Status),
		Attempts:      item.Attempts,
		LastError:     item.LastError,
		CreatedAt:     createdAt,
		NextAttemptAt: nextAttemptAt,
	}, nil
}

// transactItems builds the outbox puts that ride along with a repository
// write in TransactWriteItems.
func (s *OutboxStore) transactItems(envelopes ...events.Envelope) ([]types.TransactWriteItem, error) {
	now := s.now()
	out := make([]types.TransactWriteItem, 0, len(envelopes))
	for _, env := range envelopes {
		av, err := attributevalue.MarshalMap(toOutboxItem(events.NewOutboxEntry(env, now, s.grace)))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal outbox entry: %w", err)
		}
		out = append(out, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item:      av,
			},
		})
	}
	return out, nil
}

// Enqueue writes entries outside of any other transaction. Each row is put
// only if its ID is new; when it exists the stored row is returned in place
// of the entry, so the first writer of a derived event keeps its payload.
func (s *OutboxStore) Enqueue(ctx context.Context, entries ...events.OutboxEntry) ([]events.OutboxEntry, error) {
	stored := make([]events.OutboxEntry, 0, len(entries))
	kept := 0
	for _, entry := range entries {
		av, err := attributevalue.MarshalMap(toOutboxItem(entry))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal outbox entry: %w", err)
		}

		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		if err == nil {
			stored = append(stored, entry)
			continue
		}
		if !isConditionFailed(err) {
			return nil, pkgerrors.NewDatabaseError("enqueue outbox entries", err)
		}

		existing, err := s.Get(ctx, entry.Envelope.ID)
		if err != nil {
			return nil, err
		}
		kept++
		s.logger.Info("Outbox entry already stored, keeping it",
			zap.String("eventID", entry.Envelope.ID),
			zap.String("status", string(existing.Status)),
		)
		stored = append(stored, *existing)
	}

	s.logger.Debug("Outbox entries enqueued",
		zap.Int("count", len(entries)),
		zap.Int("alreadyStored", kept),
	)
	return stored, nil
}

// Get loads one entry.
func (s *OutboxStore) Get(ctx context.Context, eventID string) (*events.OutboxEntry, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       outboxKey(eventID),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get outbox entry", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("Outbox entry")
	}

	var item outboxItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outbox entry: %w", err)
	}
	entry, err := fromOutboxItem(item)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Pending returns up to limit pending entries that are due at now, oldest
// due first.
func (s *OutboxStore) Pending(ctx context.Context, now time.Time, limit int) ([]events.OutboxEntry, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(statusPK(events.OutboxPending))).
		And(expression.Key("GSI1SK").LessThanEqual(expression.Value(fmt.Sprintf("%012d#~", now.Unix()))))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.statusIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query pending outbox entries", err)
	}

	var items []outboxItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outbox entries: %w", err)
	}

	entries := make([]events.OutboxEntry, 0, len(items))
	for _, item := range items {
		entry, err := fromOutboxItem(item)
		if err != nil {
			s.logger.Warn("Skipping malformed outbox entry", zap.String("eventID", item.EventID), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MarkPublished flags entries as published and lets the table TTL expire
// them. Entries that are not in the outbox are skipped.
func (s *OutboxStore) MarkPublished(ctx context.Context, eventIDs ...string) error {
	expireAt := s.now().Add(PublishedRetention).Unix()

	var failed []string
	for _, id := range eventIDs {
		update := expression.Set(expression.Name("Status"), expression.Value(string(events.OutboxPublished))).
			Set(expression.Name("GSI1PK"), expression.Value(statusPK(events.OutboxPublished))).
			Set(expression.Name("ttl"), expression.Value(expireAt)).
			Remove(expression.Name("LastError"))

		expr, err := expression.NewBuilder().
			WithUpdate(update).
			WithCondition(expression.AttributeExists(expression.Name("PK"))).
			Build()
		if err != nil {
			return fmt.Errorf("failed to build expression: %w", err)
		}

		_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.tableName),
			Key:                       outboxKey(id),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			if isConditionFailed(err) {
				s.logger.Warn("Outbox entry not found when marking published", zap.String("eventID", id))
				continue
			}
			s.logger.Error("Failed to mark outbox entry published", zap.String("eventID", id), zap.Error(err))
			failed = append(failed, id)
		}
	}

	if len(failed) > 0 {
		return pkgerrors.NewDatabaseError("mark outbox entries published",
			fmt.Errorf("failed for %s", strings.Join(failed, ", ")))
	}
	return nil
}

// Update overwrites an entry with its new delivery state.
func (s *OutboxStore) Update(ctx context.Context, entry events.OutboxEntry) error {
	item := toOutboxItem(entry)
	if entry.Status == events.OutboxPublished {
		item.TTL = s.now().Add(PublishedRetention).Unix()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox entry: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("update outbox entry", err)
	}

	s.logger.Debug("Outbox entry updated",
		zap.String("eventID", entry.Envelope.ID),
		zap.String("status", string(entry.Status)),
		zap.Int("attempts", entry.Attempts),
	)
	return nil
}
