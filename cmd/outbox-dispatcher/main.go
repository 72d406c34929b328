// Command outbox-dispatcher drains the event outbox once per invocation. It
// is triggered on a schedule.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/infrastructure/config"
	"github.com/FeroHriadel/tripiabackend/infrastructure/di"
	"github.com/FeroHriadel/tripiabackend/infrastructure/persistence/dynamodb"
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

// Handler publishes the outbox entries that are due.
func Handler(ctx context.Context) (dynamodb.BatchResult, error) {
	result, err := container.OutboxProcessor.ProcessBatch(ctx)
	if err != nil {
		container.Logger.Error("Outbox drain failed", zap.Error(err))
		return result, err
	}

	container.Logger.Info("Outbox drained",
		zap.Int("fetched", result.Fetched),
		zap.Int("published", result.Published),
		zap.Int("retried", result.Retried),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func main() {
	lambda.Start(Handler)
}
