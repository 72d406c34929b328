// Package cognito writes user attributes to a Cognito user pool.
package cognito

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// CognitoAPI is the part of the Cognito client the updater uses.
type CognitoAPI interface {
	AdminUpdateUserAttributes(ctx context.Context, params *cognito.AdminUpdateUserAttributesInput, optFns ...func(*cognito.Options)) (*cognito.AdminUpdateUserAttributesOutput, error)
}

// AttributeUpdater implements ports.UserAttributeUpdater.
type AttributeUpdater struct {
	client CognitoAPI
	logger *zap.Logger
}

var _ ports.UserAttributeUpdater = (*AttributeUpdater)(nil)

func NewAttributeUpdater(client CognitoAPI, logger *zap.Logger) *AttributeUpdater {
	return &AttributeUpdater{client: client, logger: logger}
}

// SetNickname stores nickname as the standard nickname attribute.
func (u *AttributeUpdater) SetNickname(ctx context.Context, userPoolID, username, nickname string) error {
	if _, err := u.client.AdminUpdateUserAttributes(ctx, &cognito.AdminUpdateUserAttributesInput{
		UserPoolId: aws.String(userPoolID),
		Username:   aws.String(username),
		UserAttributes: []cognitotypes.AttributeType{{
			Name:  aws.String("nickname"),
			Value: aws.String(nickname),
		}},
	}); err != nil {
		return pkgerrors.NewExternalError("cognito", err)
	}

	u.logger.Debug("Nickname attribute set",
		zap.String("userPoolID", userPoolID),
		zap.String("username", username),
	)
	return nil
}
