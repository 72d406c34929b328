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

// PostsCleanup removes every post of a deleted group.
type PostsCleanup struct {
	posts      ports.PostRepository
	dispatcher EventDispatcher
	logger     *zap.Logger
	tracer     *observability.Tracer
	now        func() time.Time
}

// NewPostsCleanup creates the batch-delete-posts subscriber.
func NewPostsCleanup(posts ports.PostRepository, dispatcher EventDispatcher, logger *zap.Logger, tracer *observability.Tracer) *PostsCleanup {
	return &PostsCleanup{
		posts:      posts,
		dispatcher: dispatcher,
		logger:     logger,
		tracer:     tracer,
		now:        time.Now,
	}
}

func (s *PostsCleanup) Name() string { return "batch-delete-posts" }

func (s *PostsCleanup) Handle(ctx context.Context, env events.Envelope, evt events.Event) error {
	e, ok := evt.(events.BatchDeletePostsForGroup)
	if !ok {
		return unexpectedEvent(s.Name(), evt)
	}
	_, err := s.Run(ctx, env, e.GroupID)
	return err
}

// Run deletes the posts of groupID and queues one image cleanup for all of
// their images.
func (s *PostsCleanup) Run(ctx context.Context, parent events.Envelope, groupID string) (CleanupResult, error) {
	var (
		result    CleanupResult
		posts     []*entities.Post
		imagesEnv *events.Envelope
	)

	cascade := NewCascade(s.Name(), parent.ID, s.logger, s.tracer).
		AddStep(Step{
			Name:        "load-posts",
			MaxAttempts: 2,
			Run: func(ctx context.Context) error {
				var err error
				posts, err = s.posts.ListByGroup(ctx, groupID)
				return err
			},
		}).
		AddStep(Step{
			Name: "enqueue-images",
			Run: func(ctx context.Context) error {
				var images []string
				for _, p := range posts {
					images = append(images, p.Images...)
				}
				env, err := enqueueImages(ctx, s.dispatcher, parent, utils.NonEmpty(images), s.now())
				imagesEnv = env
				return err
			},
		}).
		AddStep(Step{
			Name: "delete-posts",
			Run: func(ctx context.Context) error {
				if len(posts) == 0 {
					return nil
				}
				ids := make([]string, 0, len(posts))
				for _, p := range posts {
					ids = append(ids, p.ID)
				}
				res, err := s.posts.DeleteBatch(ctx, ids)
				result = CleanupResult{Deleted: res.Deleted, Batches: res.Batches}
				if err != nil {
					return err
				}
				s.logger.Info(fmt.Sprintf("%d/%d posts deleted.", res.Deleted, len(ids)),
					zap.String("groupID", groupID),
					zap.Int("batches", res.Batches),
				)
				if len(res.Unprocessed) > 0 {
					return fmt.Errorf("%d posts left unprocessed", len(res.Unprocessed))
				}
				return nil
			},
		})

	if err := cascade.Run(ctx); err != nil {
		return result, err
	}

	if imagesEnv != nil {
		s.dispatcher.Dispatch(ctx, *imagesEnv)
	}
	return result, nil
}
