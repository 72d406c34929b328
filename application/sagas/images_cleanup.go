package sagas

import (
	"context"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// ImagesCleanup removes stored images.
type ImagesCleanup struct {
	images ports.ImageStore
	logger *zap.Logger
}

// NewImagesCleanup creates the delete-images subscriber.
func NewImagesCleanup(images ports.ImageStore, logger *zap.Logger) *ImagesCleanup {
	return &ImagesCleanup{images: images, logger: logger}
}

func (s *ImagesCleanup) Name() string { return "delete-images" }

func (s *ImagesCleanup) Handle(ctx context.Context, env events.Envelope, evt events.Event) error {
	e, ok := evt.(events.DeleteImages)
	if !ok {
		return unexpectedEvent(s.Name(), evt)
	}
	_, err := s.Run(ctx, e.Keys)
	return err
}

// Run deletes keys. Keys that are already gone count as deleted; other
// per-key failures are logged and reported, not retried.
func (s *ImagesCleanup) Run(ctx context.Context, keys []string) (ports.ImageDeletion, error) {
	keys = utils.NonEmpty(keys)
	if len(keys) == 0 {
		return ports.ImageDeletion{}, nil
	}

	res, err := s.images.DeleteImages(ctx, keys)
	if err != nil {
		return res, err
	}

	for key, reason := range res.Failed {
		s.logger.Warn("Image could not be deleted",
			zap.String("key", key),
			zap.String("reason", reason),
		)
	}
	s.logger.Info("Images deleted",
		zap.Int("requested", len(keys)),
		zap.Int("deleted", len(res.Deleted)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}
