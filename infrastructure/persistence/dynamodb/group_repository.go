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
	"github.com/FeroHriadel/tripiabackend/domain/events"
)

// GroupRepository stores groups keyed by id.
type GroupRepository struct {
	table  *table[entities.Group]
	logger *zap.Logger
}

var _ ports.GroupRepository = (*GroupRepository)(nil)

func NewGroupRepository(client DynamoDBAPI, tableName string, outbox *OutboxStore, logger *zap.Logger) *GroupRepository {
	return &GroupRepository{
		table:  newTable[entities.Group](client, tableName, "id", "Group", outbox, logger),
		logger: logger,
	}
}

// Save writes the group. Membership changes pass their UpdateUserGroups
// envelope as cascade so the user side is updated eventually.
func (r *GroupRepository) Save(ctx context.Context, group *entities.Group, cascade ...events.Envelope) error {
	if err := r.table.put(ctx, group, cascade...); err != nil {
		return err
	}
	r.logger.Debug("Group saved",
		zap.String("groupID", group.ID),
		zap.Int("members", len(group.Members)),
		zap.Int("cascadeEvents", len(cascade)),
	)
	return nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*entities.Group, error) {
	return r.table.get(ctx, id)
}

func (r *GroupRepository) FindByIDs(ctx context.Context, ids []string) ([]*entities.Group, error) {
	return r.table.batchGet(ctx, ids)
}

func (r *GroupRepository) Delete(ctx context.Context, id string, cascade ...events.Envelope) error {
	if err := r.table.remove(ctx, id, cascade...); err != nil {
		return err
	}
	r.logger.Debug("Group deleted", zap.String("groupID", id), zap.Int("cascadeEvents", len(cascade)))
	return nil
}

// InvitationRepository stores group invitations keyed by id.
type InvitationRepository struct {
	table        *table[entities.Invitation]
	inviteeIndex string
	logger       *zap.Logger
}

var _ ports.InvitationRepository = (*InvitationRepository)(nil)

// NewInvitationRepository creates an invitation repository. inviteeIndex is
// keyed by invitee.
func NewInvitationRepository(client DynamoDBAPI, tableName, inviteeIndex string, logger *zap.Logger) *InvitationRepository {
	return &InvitationRepository{
		table:        newTable[entities.Invitation](client, tableName, "id", "Invitation", nil, logger),
		inviteeIndex: inviteeIndex,
		logger:       logger,
	}
}

func (r *InvitationRepository) Save(ctx context.Context, invitation *entities.Invitation) error {
	if err := r.table.put(ctx, invitation); err != nil {
		return err
	}
	r.logger.Debug("Invitation saved",
		zap.String("invitationID", invitation.ID),
		zap.String("groupID", invitation.GroupID),
	)
	return nil
}

func (r *InvitationRepository) FindByID(ctx context.Context, id string) (*entities.Invitation, error) {
	return r.table.get(ctx, id)
}

func (r *InvitationRepository) ListByInvitee(ctx context.Context, email string) ([]*entities.Invitation, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("invitee").Equal(expression.Value(strings.ToLower(email)))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	return r.table.queryAll(ctx, &dynamodb.QueryInput{
		IndexName:                 aws.String(r.inviteeIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func (r *InvitationRepository) Delete(ctx context.Context, id string) error {
	if err := r.table.remove(ctx, id); err != nil {
		return err
	}
	r.logger.Debug("Invitation deleted", zap.String("invitationID", id))
	return nil
}
