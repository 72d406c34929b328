// Package apigw pushes messages to WebSocket clients through the API
// Gateway management API.
package apigw

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
)

// PostToConnectionAPI is the part of the management client the notifier uses.
type PostToConnectionAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// Notifier implements ports.Notifier.
type Notifier struct {
	client PostToConnectionAPI
	logger *zap.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(client PostToConnectionAPI, logger *zap.Logger) *Notifier {
	return &Notifier{client: client, logger: logger}
}

// Send posts payload to connectionID. A connection that API Gateway no longer
// knows yields ports.ErrConnectionGone.
func (n *Notifier) Send(ctx context.Context, connectionID string, payload []byte) error {
	if n.client == nil {
		return errors.New("websocket endpoint is not configured")
	}

	_, err := n.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         payload,
	})
	if err == nil {
		return nil
	}

	if isGone(err) {
		n.logger.Debug("Connection is gone", zap.String("connectionID", connectionID))
		return fmt.Errorf("%w: %s", ports.ErrConnectionGone, connectionID)
	}
	return fmt.Errorf("failed to send message: %w", err)
}

func isGone(err error) bool {
	var goneErr *apigwtypes.GoneException
	if errors.As(err, &goneErr) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "GoneException"
}
