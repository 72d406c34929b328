package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awscognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/commands"
	"github.com/FeroHriadel/tripiabackend/application/commands/bus"
	cmdhandlers "github.com/FeroHriadel/tripiabackend/application/commands/handlers"
	appevents "github.com/FeroHriadel/tripiabackend/application/events"
	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/application/realtime"
	"github.com/FeroHriadel/tripiabackend/application/sagas"
	"github.com/FeroHriadel/tripiabackend/application/services"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/infrastructure/config"
	"github.com/FeroHriadel/tripiabackend/infrastructure/identity/cognito"
	"github.com/FeroHriadel/tripiabackend/infrastructure/messaging/eventbridge"
	"github.com/FeroHriadel/tripiabackend/infrastructure/persistence/dynamodb"
	"github.com/FeroHriadel/tripiabackend/infrastructure/realtime/apigw"
	s3store "github.com/FeroHriadel/tripiabackend/infrastructure/storage/s3"
	"github.com/FeroHriadel/tripiabackend/pkg/auth"
	"github.com/FeroHriadel/tripiabackend/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideMetrics creates metrics instance. With metrics disabled it records
// nothing.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewMetrics(cfg.MetricsNamespaceForEnv(), nil, logger)
	}
	return observability.NewMetrics(cfg.MetricsNamespaceForEnv(), client, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("tripia", cfg.EnableTracing)
}

// ProvideJWTValidator builds the local token validator. Cognito pools are
// verified through their JWKS, local setups through a shared secret. With
// neither configured the validator is nil and only gateway verified claims
// are accepted.
func ProvideJWTValidator(cfg *config.Config, client *http.Client) (*auth.JWTValidator, error) {
	switch {
	case cfg.Auth.JWKSURL != "":
		return auth.NewJWTValidator(auth.JWTConfig{
			SigningMethod: "RS256",
			Keys:          auth.NewJWKS(cfg.Auth.JWKSURL, client),
			Issuer:        cfg.Auth.JWTIssuer,
			Audience:      cfg.Auth.JWTAudience,
		})
	case cfg.Auth.JWTSecret != "":
		return auth.NewJWTValidator(auth.JWTConfig{
			SigningMethod: "HS256",
			SecretKey:     cfg.Auth.JWTSecret,
			Issuer:        cfg.Auth.JWTIssuer,
			Audience:      cfg.Auth.JWTAudience,
		})
	default:
		return nil, nil
	}
}

// ProvideOutboxStore creates the DynamoDB outbox store shared by the
// repositories that write cascade events.
func ProvideOutboxStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.OutboxStore {
	return dynamodb.NewOutboxStore(client, cfg.Tables.Outbox, cfg.Indexes.OutboxByStatus, cfg.Outbox.GracePeriod, logger)
}

// ProvideOutbox exposes the outbox store through its port.
func ProvideOutbox(store *dynamodb.OutboxStore) ports.OutboxStore {
	return store
}

// ProvideIdempotencyStore creates the subscriber deduplication store
func ProvideIdempotencyStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.IdempotencyStore {
	return dynamodb.NewIdempotencyStore(client, cfg.Tables.Idempotency, dynamodb.DefaultIdempotencyTTL, logger)
}

// ProvideTripRepository creates a trip repository
func ProvideTripRepository(client *awsdynamodb.Client, outbox *dynamodb.OutboxStore, cfg *config.Config, logger *zap.Logger) ports.TripRepository {
	return dynamodb.NewTripRepository(client, cfg.Tables.Trips, cfg.Indexes.TripsByDate, cfg.Indexes.TripsByCreator, outbox, logger)
}

// ProvideCommentRepository creates a comment repository
func ProvideCommentRepository(client *awsdynamodb.Client, outbox *dynamodb.OutboxStore, cfg *config.Config, logger *zap.Logger) ports.CommentRepository {
	return dynamodb.NewCommentRepository(client, cfg.Tables.Comments, cfg.Indexes.CommentsByTrip, outbox, logger)
}

// ProvideGroupRepository creates a group repository
func ProvideGroupRepository(client *awsdynamodb.Client, outbox *dynamodb.OutboxStore, cfg *config.Config, logger *zap.Logger) ports.GroupRepository {
	return dynamodb.NewGroupRepository(client, cfg.Tables.Groups, outbox, logger)
}

// ProvideInvitationRepository creates an invitation repository
func ProvideInvitationRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.InvitationRepository {
	return dynamodb.NewInvitationRepository(client, cfg.Tables.Invitations, cfg.Indexes.InvitationsByUser, logger)
}

// ProvidePostRepository creates a post repository
func ProvidePostRepository(client *awsdynamodb.Client, outbox *dynamodb.OutboxStore, cfg *config.Config, logger *zap.Logger) ports.PostRepository {
	return dynamodb.NewPostRepository(client, cfg.Tables.Posts, cfg.Indexes.PostsByGroup, outbox, logger)
}

// ProvideConnectionRepository creates the WebSocket connection registry
func ProvideConnectionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ConnectionRepository {
	return dynamodb.NewConnectionRepository(client, cfg.Tables.Connections, cfg.Indexes.ConnectionsGroup, logger)
}

// ProvideUserRepository creates a user repository
func ProvideUserRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.UserRepository {
	return dynamodb.NewUserRepository(client, cfg.Tables.Users, logger)
}

// ProvideFavoriteTripsRepository creates a favorite trips repository
func ProvideFavoriteTripsRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.FavoriteTripsRepository {
	return dynamodb.NewFavoriteTripsRepository(client, cfg.Tables.FavoriteTrips, logger)
}

// ProvideCategoryRepository creates a category repository
func ProvideCategoryRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.CategoryRepository {
	return dynamodb.NewCategoryRepository(client, cfg.Tables.Categories, cfg.Indexes.CategoriesByName, cfg.Indexes.CategoriesSorted, logger)
}

// ProvideEventPublisher creates the EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBus.Name, cfg.EventBus.Source, eventbridge.DefaultBreakerConfig(), logger)
}

// ProvideImageStore creates the S3 image store
func ProvideImageStore(client *awss3.Client, cfg *config.Config, logger *zap.Logger) ports.ImageStore {
	return s3store.NewImageStore(client, awss3.NewPresignClient(client), cfg.BucketName, logger)
}

// ProvideNotifier creates the WebSocket notifier
func ProvideNotifier(client *apigatewaymanagementapi.Client, logger *zap.Logger) ports.Notifier {
	if client == nil {
		return apigw.NewNotifier(nil, logger)
	}
	return apigw.NewNotifier(client, logger)
}

// ProvideAttributeUpdater creates the Cognito attribute updater
func ProvideAttributeUpdater(client *awscognito.Client, logger *zap.Logger) ports.UserAttributeUpdater {
	return cognito.NewAttributeUpdater(client, logger)
}

// ProvideDispatcher creates the best-effort event dispatcher
func ProvideDispatcher(
	publisher ports.EventPublisher,
	outbox ports.OutboxStore,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *appevents.Dispatcher {
	return appevents.NewDispatcher(publisher, outbox, metrics, logger, appevents.DispatcherConfig{
		PublishTimeout: cfg.PublishTimeout,
		GracePeriod:    cfg.Outbox.GracePeriod,
	})
}

// ProvideOutboxProcessor creates the processor that drains the outbox
func ProvideOutboxProcessor(
	outbox ports.OutboxStore,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *dynamodb.OutboxProcessor {
	return dynamodb.NewOutboxProcessor(outbox, publisher, metrics, logger, dynamodb.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
		Retry: events.RetryPolicy{
			BaseBackoff: cfg.Outbox.BaseBackoff,
			MaxBackoff:  cfg.Outbox.MaxBackoff,
			MaxAttempts: cfg.Outbox.MaxAttempts,
		},
	})
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	tripRepo ports.TripRepository,
	groupRepo ports.GroupRepository,
	dispatcher *appevents.Dispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
	)

	deleteTripHandler := cmdhandlers.NewDeleteTripHandler(tripRepo, dispatcher, logger)
	if err := commandBus.Register(commands.DeleteTripCommand{}, bus.CommandHandlerFunc(
		func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			deleteCmd, ok := cmd.(commands.DeleteTripCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return deleteTripHandler.Handle(ctx, deleteCmd)
		},
	)); err != nil {
		return nil, err
	}

	deleteGroupHandler := cmdhandlers.NewDeleteGroupHandler(groupRepo, dispatcher, logger)
	if err := commandBus.Register(commands.DeleteGroupCommand{}, bus.CommandHandlerFunc(
		func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			deleteCmd, ok := cmd.(commands.DeleteGroupCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return deleteGroupHandler.Handle(ctx, deleteCmd)
		},
	)); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// ProvideServices creates the CRUD services behind the REST API
func ProvideServices(
	trips ports.TripRepository,
	comments ports.CommentRepository,
	groups ports.GroupRepository,
	invitations ports.InvitationRepository,
	users ports.UserRepository,
	favorites ports.FavoriteTripsRepository,
	categories ports.CategoryRepository,
	images ports.ImageStore,
	attributes ports.UserAttributeUpdater,
	dispatcher *appevents.Dispatcher,
	cfg *config.Config,
	logger *zap.Logger,
) *Services {
	return &Services{
		Trips:       services.NewTripService(trips, users, logger),
		Comments:    services.NewCommentService(comments, trips, dispatcher, logger),
		Groups:      services.NewGroupService(groups, invitations, users, dispatcher, logger),
		Invitations: services.NewInvitationService(invitations, groups, logger),
		Users:       services.NewUserService(users, attributes, logger),
		Favorites:   services.NewFavoriteTripsService(favorites, logger),
		Categories:  services.NewCategoryService(categories, logger),
		Uploads:     services.NewUploadService(images, cfg.UploadURLTTL, logger),
	}
}

// ProvideRealtimeService creates the WebSocket post feed service
func ProvideRealtimeService(
	connections ports.ConnectionRepository,
	posts ports.PostRepository,
	groups ports.GroupRepository,
	notifier ports.Notifier,
	dispatcher *appevents.Dispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *realtime.Service {
	return realtime.NewService(connections, posts, groups, notifier, dispatcher, metrics, logger)
}

// ProvideEventRouter wires every cascade subscriber to its event kind.
func ProvideEventRouter(
	comments ports.CommentRepository,
	posts ports.PostRepository,
	users ports.UserRepository,
	images ports.ImageStore,
	idempotency ports.IdempotencyStore,
	dispatcher *appevents.Dispatcher,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *sagas.Router {
	return sagas.NewRouter(idempotency, logger).
		Register(events.KindDeleteCommentsForTrip, sagas.NewCommentsCleanup(comments, dispatcher, logger, tracer)).
		Register(events.KindBatchDeletePostsForGroup, sagas.NewPostsCleanup(posts, dispatcher, logger, tracer)).
		Register(events.KindDeleteImages, sagas.NewImagesCleanup(images, logger)).
		Register(events.KindUpdateUserGroups, sagas.NewMembershipUpdate(users, logger))
}
