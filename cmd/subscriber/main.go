// Command subscriber runs the cascade sagas for events delivered by the
// EventBridge bus.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/infrastructure/config"
	"github.com/FeroHriadel/tripiabackend/infrastructure/di"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

// Handler routes one bus event. An event that fails validation is dropped
// so the bus does not retry it forever.
func Handler(ctx context.Context, event events.EventBridgeEvent) error {
	logger := container.Logger.With(
		zap.String("eventBridgeID", event.ID),
		zap.String("detailType", event.DetailType),
	)

	err := container.EventRouter.Route(ctx, event.Detail)
	switch {
	case err == nil:
		logger.Info("Event handled")
		return nil
	case pkgerrors.IsValidation(err):
		logger.Warn("Dropping invalid event", zap.Error(err))
		return nil
	default:
		logger.Error("Event handling failed", zap.Error(err))
		return err
	}
}

func main() {
	lambda.Start(Handler)
}
