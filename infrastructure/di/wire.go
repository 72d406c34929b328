//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/FeroHriadel/tripiabackend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideS3Client,
	ProvideCognitoClient,
	ProvideManagementClient,
	ProvideHTTPClient,
	ProvideMetrics,
	ProvideTracer,
	ProvideJWTValidator,
	ProvideOutboxStore,
	ProvideOutbox,
	ProvideIdempotencyStore,
	ProvideTripRepository,
	ProvideCommentRepository,
	ProvideGroupRepository,
	ProvideInvitationRepository,
	ProvidePostRepository,
	ProvideConnectionRepository,
	ProvideUserRepository,
	ProvideFavoriteTripsRepository,
	ProvideCategoryRepository,
	ProvideEventPublisher,
	ProvideImageStore,
	ProvideNotifier,
	ProvideAttributeUpdater,
	ProvideDispatcher,
	ProvideOutboxProcessor,
	ProvideCommandBus,
	ProvideServices,
	ProvideRealtimeService,
	ProvideEventRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
