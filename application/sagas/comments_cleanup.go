package sagas

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/pkg/observability"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// CommentsCleanup removes every comment of a deleted trip.
type CommentsCleanup struct {
	comments   ports.CommentRepository
	dispatcher EventDispatcher
	logger     *zap.Logger
	tracer     *observability.Tracer
	now        func() time.Time
}

// NewCommentsCleanup creates the batch-delete-comments subscriber.
func NewCommentsCleanup(comments ports.CommentRepository, dispatcher EventDispatcher, logger *zap.Logger, tracer *observability.Tracer) *CommentsCleanup {
	return &CommentsCleanup{
		comments:   comments,
		dispatcher: dispatcher,
		logger:     logger,
		tracer:     tracer,
		now:        time.Now,
	}
}

func (s *CommentsCleanup) Name() string { return "batch-delete-comments" }

func (s *CommentsCleanup) Handle(ctx context.Context, env events.Envelope, evt events.Event) error {
	e, ok := evt.(events.DeleteCommentsForTrip)
	if !ok {
		return unexpectedEvent(s.Name(), evt)
	}
	_, err := s.Run(ctx, env, e.TripID)
	return err
}

// Run deletes the comments of tripID. Images are queued in the outbox before
// any comment disappears, so a crash cannot orphan them.
func (s *CommentsCleanup) Run(ctx context.Context, parent events.Envelope, tripID string) (CleanupResult, error) {
	var (
		result    CleanupResult
		comments  []*entities.Comment
		imagesEnv *events.Envelope
	)

	cascade := NewCascade(s.Name(), parent.ID, s.logger, s.tracer).
		AddStep(Step{
			Name:        "load-comments",
			MaxAttempts: 2,
			Run: func(ctx context.Context) error {
				var err error
				comments, err = s.comments.AllByTrip(ctx, tripID)
				return err
			},
		}).
		AddStep(Step{
			Name: "enqueue-images",
			Run: func(ctx context.Context) error {
				images := make([]string, 0, len(comments))
				for _, c := range comments {
					images = append(images, c.Image)
				}
				env, err := enqueueImages(ctx, s.dispatcher, parent, utils.NonEmpty(images), s.now())
				imagesEnv = env
				return err
			},
		}).
		AddStep(Step{
			Name: "delete-comments",
			Run: func(ctx context.Context) error {
				if len(comments) == 0 {
					return nil
				}
				ids := make([]string, 0, len(comments))
				for _, c := range comments {
					ids = append(ids, c.ID)
				}
				res, err := s.comments.DeleteBatch(ctx, ids)
				result = CleanupResult{Deleted: res.Deleted, Batches: res.Batches}
				if err != nil {
					return err
				}
				s.logger.Info(fmt.Sprintf("%d/%d comments deleted.", res.Deleted, len(ids)),
					zap.String("tripID", tripID),
					zap.Int("batches", res.Batches),
				)
				if len(res.Unprocessed) > 0 {
					return fmt.Errorf("%d comments left unprocessed", len(res.Unprocessed))
				}
				return nil
			},
		})

	if err := cascade.Run(ctx); err != nil {
		return result, err
	}

	if len(comments) == 0 {
		s.logger.Info("No comments to delete", zap.String("tripID", tripID))
	}
	if imagesEnv != nil {
		s.dispatcher.Dispatch(ctx, *imagesEnv)
	}
	return result, nil
}

// enqueueImages stores one DeleteImages follow-up for keys in the outbox. A
// redelivered run only sees the rows an earlier attempt left behind, so the
// envelope the first attempt stored is kept and returned instead.
func enqueueImages(ctx context.Context, dispatcher EventDispatcher, parent events.Envelope, keys []string, now time.Time) (*events.Envelope, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	env, err := events.NewDerivedEnvelope(parent, events.DeleteImages{Keys: keys}, now)
	if err != nil {
		return nil, err
	}
	stored, err := dispatcher.Enqueue(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue image cleanup: %w", err)
	}
	if len(stored) == 1 {
		env = stored[0]
	}
	return &env, nil
}
