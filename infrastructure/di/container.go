// Package di wires the application together. Every binary builds one
// Container per process.
package di

import (
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/commands/bus"
	appevents "github.com/FeroHriadel/tripiabackend/application/events"
	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/application/realtime"
	"github.com/FeroHriadel/tripiabackend/application/sagas"
	"github.com/FeroHriadel/tripiabackend/application/services"
	"github.com/FeroHriadel/tripiabackend/infrastructure/config"
	"github.com/FeroHriadel/tripiabackend/infrastructure/persistence/dynamodb"
	"github.com/FeroHriadel/tripiabackend/interfaces/http/rest"
	"github.com/FeroHriadel/tripiabackend/interfaces/websocket"
	"github.com/FeroHriadel/tripiabackend/pkg/auth"
	"github.com/FeroHriadel/tripiabackend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	Tracer          *observability.Tracer
	Validator       *auth.JWTValidator
	Connections     ports.ConnectionRepository
	Dispatcher      *appevents.Dispatcher
	OutboxProcessor *dynamodb.OutboxProcessor
	CommandBus      *bus.CommandBus
	Services        *Services
	Realtime        *realtime.Service
	EventRouter     *sagas.Router
}

// Services groups the CRUD services used by the REST API.
type Services struct {
	Trips       *services.TripService
	Comments    *services.CommentService
	Groups      *services.GroupService
	Invitations *services.InvitationService
	Users       *services.UserService
	Favorites   *services.FavoriteTripsService
	Categories  *services.CategoryService
	Uploads     *services.UploadService
}

// Router builds the REST router over the container's services.
func (c *Container) Router() *rest.Router {
	return rest.NewRouter(
		c.Config,
		rest.Services(*c.Services),
		c.CommandBus,
		c.OutboxProcessor,
		c.Validator,
		c.Logger,
	)
}

// WebSocketHandler builds the WebSocket route handlers.
func (c *Container) WebSocketHandler() *websocket.Handler {
	return websocket.NewHandler(c.Realtime, c.Logger)
}

// WebSocketAuthorizer builds the WebSocket handshake authorizer. A nil
// validator denies every handshake.
func (c *Container) WebSocketAuthorizer() *websocket.Authorizer {
	var validator websocket.TokenValidator
	if c.Validator != nil {
		validator = c.Validator
	}
	return websocket.NewAuthorizer(validator, c.Config.Auth.AdminGroup, c.Logger)
}
