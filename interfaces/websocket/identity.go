package websocket

import (
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Identity is the caller resolved by the WebSocket authorizer.
type Identity struct {
	Email   string
	IsAdmin bool
}

// IdentityFrom reads the context the authorizer attached to the connection.
// API Gateway forwards it as a map whose values may have been stringified.
func IdentityFrom(req events.APIGatewayWebsocketProxyRequest) Identity {
	claims, ok := req.RequestContext.Authorizer.(map[string]interface{})
	if !ok {
		return Identity{}
	}

	var id Identity
	if v, ok := claims[ContextEmail]; ok && v != nil {
		id.Email = strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
	}
	switch v := claims[ContextIsAdmin].(type) {
	case bool:
		id.IsAdmin = v
	case string:
		id.IsAdmin = strings.EqualFold(v, "true")
	}
	return id
}
