package ports

import (
	"context"
	"time"
)

// ImageDeletion is the outcome of a bulk image delete. Failed maps key to
// the reason it could not be removed.
type ImageDeletion struct {
	Deleted []string
	Failed  map[string]string
}

// ImageStore stores user uploaded images.
type ImageStore interface {
	PresignUpload(ctx context.Context, key string, ttl time.Duration) (string, error)
	DeleteImages(ctx context.Context, keys []string) (ImageDeletion, error)
}

// UserAttributeUpdater writes attributes to the identity provider.
type UserAttributeUpdater interface {
	SetNickname(ctx context.Context, userPoolID, username, nickname string) error
}
