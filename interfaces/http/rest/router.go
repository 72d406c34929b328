package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/commands/bus"
	"github.com/FeroHriadel/tripiabackend/application/services"
	"github.com/FeroHriadel/tripiabackend/infrastructure/config"
	"github.com/FeroHriadel/tripiabackend/interfaces/http/rest/handlers"
	"github.com/FeroHriadel/tripiabackend/interfaces/http/rest/middleware"
	"github.com/FeroHriadel/tripiabackend/pkg/auth"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// Services groups the application services the routes call into.
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

// Router creates and configures the HTTP router
type Router struct {
	config     *config.Config
	services   Services
	commandBus *bus.CommandBus
	outbox     handlers.OutboxRequeuer
	validator  *auth.JWTValidator
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	svc Services,
	commandBus *bus.CommandBus,
	outbox handlers.OutboxRequeuer,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:     cfg,
		services:   svc,
		commandBus: commandBus,
		outbox:     outbox,
		validator:  validator,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	errs := pkgerrors.NewErrorHandler(rt.logger, rt.config.IsDevelopment())
	authn := middleware.NewAuthenticator(rt.validator, rt.config.Auth.AdminGroup, errs, rt.logger)
	pageSize := rt.config.DefaultPageSize

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(errs.Middleware)
	router.Use(chimiddleware.Timeout(29 * time.Second))

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.config.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)

	router.Group(func(r chi.Router) {
		r.Use(authn.Authenticate)
		r.Use(middleware.UserLogger(rt.logger))
		r.Use(middleware.CircuitBreaker(middleware.DefaultCircuitBreakerConfig("tripia-api"), errs, rt.logger))

		r.Route("/trips", func(r chi.Router) {
			h := handlers.NewTripHandler(rt.services.Trips, rt.commandBus, pageSize, errs, rt.logger)
			r.Post("/", h.CreateTrip)
			r.Get("/", h.GetTrips)
			r.Post("/batch", h.BatchGetTrips)
			r.Put("/{tripID}", h.UpdateTrip)
			r.Delete("/{tripID}", h.DeleteTrip)
		})

		r.Route("/categories", func(r chi.Router) {
			h := handlers.NewCategoryHandler(rt.services.Categories, errs, rt.logger)
			r.Post("/", h.CreateCategory)
			r.Get("/", h.GetCategories)
			r.Put("/{categoryID}", h.UpdateCategory)
			r.Delete("/{categoryID}", h.DeleteCategory)
		})

		r.Route("/groups", func(r chi.Router) {
			h := handlers.NewGroupHandler(rt.services.Groups, rt.commandBus, errs, rt.logger)
			r.Post("/", h.CreateGroup)
			r.Get("/", h.GetGroups)
			r.Post("/batch", h.BatchGetGroups)
			r.Put("/{groupID}", h.UpdateGroup)
			r.Delete("/{groupID}", h.DeleteGroup)
		})

		r.Route("/comments", func(r chi.Router) {
			h := handlers.NewCommentHandler(rt.services.Comments, pageSize, errs, rt.logger)
			r.Post("/", h.CreateComment)
			r.Get("/", h.GetComments)
			r.Delete("/", h.DeleteComment)
		})

		r.Route("/users", func(r chi.Router) {
			h := handlers.NewUserHandler(rt.services.Users, errs, rt.logger)
			r.Get("/", h.GetUser)
			r.Post("/batch", h.BatchGetUsers)
			r.Put("/", h.UpdateUser)
		})

		r.Route("/favoritetrips", func(r chi.Router) {
			h := handlers.NewFavoriteTripsHandler(rt.services.Favorites, errs, rt.logger)
			r.Get("/", h.GetFavoriteTrips)
			r.Post("/", h.SetFavoriteTrips)
		})

		r.Route("/invitations", func(r chi.Router) {
			h := handlers.NewInvitationHandler(rt.services.Invitations, errs, rt.logger)
			r.Post("/", h.CreateInvitation)
			r.Get("/", h.GetInvitations)
			r.Delete("/{invitationID}", h.DeleteInvitation)
		})

		r.Post("/imageuploadlink", handlers.NewUploadHandler(rt.services.Uploads, errs, rt.logger).CreateUploadLink)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(errs))
			h := handlers.NewAdminHandler(rt.outbox, errs, rt.logger)
			r.Post("/outbox/{id}/requeue", h.RequeueOutboxEntry)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
