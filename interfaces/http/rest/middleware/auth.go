package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/pkg/auth"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// Authenticator resolves the caller of a request. Behind API Gateway the JWT
// authorizer has already verified the token and the claims are read from the
// request context. Anywhere else the bearer token is verified locally.
type Authenticator struct {
	validator  *auth.JWTValidator
	adminGroup string
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewAuthenticator creates an authenticator. validator may be nil when every
// request arrives through API Gateway.
func NewAuthenticator(validator *auth.JWTValidator, adminGroup string, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		validator:  validator,
		adminGroup: adminGroup,
		errors:     errs,
		logger:     logger,
	}
}

// Authenticate rejects requests without a valid identity.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.resolve(r)
		if err != nil {
			a.logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			a.errors.Handle(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
	})
}

func (a *Authenticator) resolve(r *http.Request) (*auth.UserContext, error) {
	if user, ok := a.fromGateway(r); ok {
		if user.Email == "" {
			return nil, pkgerrors.NewUnauthorizedError("Missing email claim")
		}
		return user, nil
	}

	token := bearerToken(r)
	if token == "" {
		return nil, pkgerrors.NewUnauthorizedError("Missing authorization header")
	}
	if a.validator == nil {
		return nil, pkgerrors.NewUnauthorizedError("Token validation is not configured")
	}

	claims, err := a.validator.ValidateToken(token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			return nil, pkgerrors.NewUnauthorizedError("Token has expired").WithCause(err)
		case errors.Is(err, auth.ErrInvalidSignature):
			return nil, pkgerrors.NewUnauthorizedError("Invalid token signature").WithCause(err)
		default:
			return nil, pkgerrors.NewUnauthorizedError("Invalid token").WithCause(err)
		}
	}
	if claims.Email == "" {
		return nil, pkgerrors.NewUnauthorizedError("Missing email claim")
	}

	return auth.NewUserContext(claims.Subject, claims.Email, claims.Groups, a.adminGroup), nil
}

// fromGateway reads the identity API Gateway attached to the proxied event.
// JWT authorizers expose string claims, Lambda authorizers an arbitrary map.
func (a *Authenticator) fromGateway(r *http.Request) (*auth.UserContext, bool) {
	reqCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
	if !ok || reqCtx.Authorizer == nil {
		return nil, false
	}

	if jwt := reqCtx.Authorizer.JWT; jwt != nil && len(jwt.Claims) > 0 {
		claims := jwt.Claims
		return auth.NewUserContext(
			claims["sub"],
			claims["email"],
			auth.ParseGroupsClaim(claims["cognito:groups"]),
			a.adminGroup,
		), true
	}

	if lambda := reqCtx.Authorizer.Lambda; len(lambda) > 0 {
		user := auth.NewUserContext(
			stringClaim(lambda, "sub"),
			stringClaim(lambda, "email"),
			auth.ParseGroupsClaim(stringClaim(lambda, "groups")),
			a.adminGroup,
		)
		if stringClaim(lambda, "isAdmin") == "true" {
			user.IsAdmin = true
		}
		return user, true
	}

	return nil, false
}

func stringClaim(claims map[string]interface{}, key string) string {
	v, ok := claims[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}

// RequireAdmin rejects authenticated callers outside the admin group.
func RequireAdmin(errs *pkgerrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
				return
			}
			if !user.IsAdmin {
				errs.Handle(w, r, pkgerrors.NewForbiddenError("Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
