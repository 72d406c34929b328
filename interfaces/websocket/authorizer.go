package websocket

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/pkg/auth"
)

// Keys of the authorizer context handed to every WebSocket route.
const (
	ContextEmail   = "email"
	ContextIsAdmin = "isAdmin"
)

// TokenValidator verifies an identity token.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Authorizer is the REQUEST authorizer of the WebSocket API. Browsers cannot
// set headers on a WebSocket handshake, so the token travels in the token
// query parameter.
type Authorizer struct {
	validator  TokenValidator
	adminGroup string
	logger     *zap.Logger
}

// NewAuthorizer creates a WebSocket authorizer
func NewAuthorizer(validator TokenValidator, adminGroup string, logger *zap.Logger) *Authorizer {
	return &Authorizer{validator: validator, adminGroup: adminGroup, logger: logger}
}

// Authorize allows the handshake when the token is valid.
func (a *Authorizer) Authorize(ctx context.Context, req events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	token := req.QueryStringParameters["token"]
	if token == "" {
		token = headerToken(req.Headers)
	}
	if token == "" {
		a.logger.Warn("WebSocket handshake without token", zap.String("methodArn", req.MethodArn))
		return policy("anonymous", "Deny", req.MethodArn, nil), nil
	}
	if a.validator == nil {
		a.logger.Error("WebSocket authorizer has no token validator configured")
		return policy("anonymous", "Deny", req.MethodArn, nil), nil
	}

	claims, err := a.validator.ValidateToken(token)
	if err != nil {
		a.logger.Warn("WebSocket token rejected", zap.Error(err), zap.String("methodArn", req.MethodArn))
		return policy("anonymous", "Deny", req.MethodArn, nil), nil
	}

	user := auth.NewUserContext(claims.Subject, claims.Email, claims.Groups, a.adminGroup)
	principal := user.UserID
	if principal == "" {
		principal = user.Email
	}

	a.logger.Debug("WebSocket handshake allowed", zap.String("email", user.Email), zap.Bool("admin", user.IsAdmin))
	return policy(principal, "Allow", req.MethodArn, map[string]interface{}{
		ContextEmail:   user.Email,
		ContextIsAdmin: user.IsAdmin,
	}), nil
}

func headerToken(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "Authorization") {
			return strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
		}
	}
	return ""
}

func policy(principal, effect, resource string, context map[string]interface{}) events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principal,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{"execute-api:Invoke"},
					Effect:   effect,
					Resource: []string{resource},
				},
			},
		},
		Context: context,
	}
}
