// Command cognito-post-signup creates the user profile after a Cognito
// sign-up is confirmed.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/services"
	"github.com/FeroHriadel/tripiabackend/infrastructure/config"
	"github.com/FeroHriadel/tripiabackend/infrastructure/di"
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

// Handler must hand the event back to Cognito unchanged or the sign-up fails.
func Handler(ctx context.Context, event events.CognitoEventUserPoolsPostConfirmation) (events.CognitoEventUserPoolsPostConfirmation, error) {
	user, err := container.Services.Users.CreateFromSignup(ctx, services.SignupInput{
		Email:      event.Request.UserAttributes["email"],
		UserPoolID: event.UserPoolID,
		Username:   event.UserName,
	})
	if err != nil {
		container.Logger.Error("Failed to create user profile",
			zap.String("username", event.UserName),
			zap.Error(err),
		)
		return event, err
	}

	container.Logger.Info("User profile created", zap.String("email", user.Email))
	return event, nil
}

func main() {
	lambda.Start(Handler)
}
