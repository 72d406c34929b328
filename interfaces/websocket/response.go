// Package websocket adapts API Gateway WebSocket events to the realtime
// service.
package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// ErrorBody is the body of every failed WebSocket route invocation.
type ErrorBody struct {
	Error string `json:"error"`
}

func respondText(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: body}
}

func respondJSON(status int, body interface{}) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":"` + pkgerrors.GenericMessage + `"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

// respondError maps err to a status and a message that is safe to show.
func respondError(logger *zap.Logger, route string, req events.APIGatewayWebsocketProxyRequest, err error) events.APIGatewayProxyResponse {
	status := pkgerrors.StatusCode(err)
	fields := []zap.Field{
		zap.String("route", route),
		zap.String("connectionID", req.RequestContext.ConnectionID),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("WebSocket route failed", fields...)
	} else {
		logger.Warn("WebSocket route rejected", fields...)
	}
	return respondJSON(status, ErrorBody{Error: pkgerrors.PublicMessage(err)})
}
