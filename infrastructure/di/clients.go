package di

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awscognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/FeroHriadel/tripiabackend/infrastructure/config"
)

// once builds a value the first time it is asked for and returns the same
// value for the rest of the process.
type once[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (o *once[T]) get(build func() (T, error)) (T, error) {
	o.once.Do(func() {
		o.val, o.err = build()
	})
	return o.val, o.err
}

// Process wide AWS clients. Lambda containers reuse them across invocations.
var (
	awsCfgOnce      once[aws.Config]
	dynamoOnce      once[*awsdynamodb.Client]
	eventBridgeOnce once[*awseventbridge.Client]
	cloudWatchOnce  once[*awscloudwatch.Client]
	s3Once          once[*awss3.Client]
	cognitoOnce     once[*awscognito.Client]
	managementOnce  once[*apigatewaymanagementapi.Client]
	httpClientOnce  once[*http.Client]
)

// ProvideAWSConfig loads the shared AWS configuration once per process.
// AWSEndpoint points every client at a local stack when set.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsCfgOnce.get(func() (aws.Config, error) {
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.AWSRegion),
		}
		if cfg.AWSEndpoint != "" {
			opts = append(opts, awsconfig.WithBaseEndpoint(cfg.AWSEndpoint))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		if cfg.EnableTracing {
			awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
		}
		return awsCfg, nil
	})
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) (*awsdynamodb.Client, error) {
	return dynamoOnce.get(func() (*awsdynamodb.Client, error) {
		return awsdynamodb.NewFromConfig(awsCfg), nil
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) (*awseventbridge.Client, error) {
	return eventBridgeOnce.get(func() (*awseventbridge.Client, error) {
		return awseventbridge.NewFromConfig(awsCfg), nil
	})
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) (*awscloudwatch.Client, error) {
	return cloudWatchOnce.get(func() (*awscloudwatch.Client, error) {
		return awscloudwatch.NewFromConfig(awsCfg), nil
	})
}

// ProvideS3Client creates an S3 client. Local stacks need path style
// addressing.
func ProvideS3Client(awsCfg aws.Config, cfg *config.Config) (*awss3.Client, error) {
	return s3Once.get(func() (*awss3.Client, error) {
		return awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
			o.UsePathStyle = cfg.AWSEndpoint != ""
		}), nil
	})
}

// ProvideCognitoClient creates a Cognito identity provider client
func ProvideCognitoClient(awsCfg aws.Config) (*awscognito.Client, error) {
	return cognitoOnce.get(func() (*awscognito.Client, error) {
		return awscognito.NewFromConfig(awsCfg), nil
	})
}

// ProvideManagementClient creates the API Gateway management client for the
// WebSocket API. Without an endpoint the client is nil and nothing can be
// pushed to connections.
func ProvideManagementClient(awsCfg aws.Config, cfg *config.Config) (*apigatewaymanagementapi.Client, error) {
	return managementOnce.get(func() (*apigatewaymanagementapi.Client, error) {
		endpoint := ManagementEndpoint(cfg.WebSocketEndpoint)
		if endpoint == "" {
			return nil, nil
		}
		return apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		}), nil
	})
}

// ProvideHTTPClient returns the client used for outbound HTTP such as the
// JWKS fetch. It is traced when tracing is on.
func ProvideHTTPClient(cfg *config.Config) (*http.Client, error) {
	return httpClientOnce.get(func() (*http.Client, error) {
		if cfg.EnableTracing {
			return xray.Client(&http.Client{}), nil
		}
		return &http.Client{}, nil
	})
}

// ManagementEndpoint turns the wss:// URL clients connect to into the https://
// URL the management API is served on.
func ManagementEndpoint(raw string) string {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "wss://") {
		return "https://" + strings.TrimPrefix(raw, "wss://")
	}
	if strings.HasPrefix(raw, "ws://") {
		return "http://" + strings.TrimPrefix(raw, "ws://")
	}
	return raw
}
