// Command lambda serves the REST API behind an API Gateway HTTP API.
package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/infrastructure/config"
	"github.com/FeroHriadel/tripiabackend/infrastructure/di"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

func init() {
	coldStartTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	chiLambda = chiadapter.NewV2(container.Router().Setup())

	container.Logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)),
	)
}

// Handler proxies one API Gateway request through the chi router.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if err != nil {
		container.Logger.Error("Failed to proxy request",
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.String("requestID", req.RequestContext.RequestID),
			zap.Error(err),
		)
		return resp, err
	}

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	container.Logger.Debug("Lambda response",
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.Int("status", resp.StatusCode),
	)
	return resp, nil
}

func main() {
	lambda.Start(Handler)
}
