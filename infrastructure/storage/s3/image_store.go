// Package s3 stores user uploaded images in an S3 bucket.
package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// S3 accepts at most 1000 keys per DeleteObjects call.
const deleteBatchSize = 1000

// DeleteObjectsAPI is the part of the S3 client the store needs.
type DeleteObjectsAPI interface {
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// PresignPutAPI is satisfied by *s3.PresignClient.
type PresignPutAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ImageStore implements ports.ImageStore on S3.
type ImageStore struct {
	client  DeleteObjectsAPI
	presign PresignPutAPI
	bucket  string
	logger  *zap.Logger
}

var _ ports.ImageStore = (*ImageStore)(nil)

// NewImageStore creates an image store for bucket.
func NewImageStore(client DeleteObjectsAPI, presign PresignPutAPI, bucket string, logger *zap.Logger) *ImageStore {
	return &ImageStore{
		client:  client,
		presign: presign,
		bucket:  bucket,
		logger:  logger,
	}
}

// PresignUpload returns a URL the client can PUT the image to until ttl
// passes.
func (s *ImageStore) PresignUpload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("image/png"),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", pkgerrors.NewExternalError("s3", fmt.Errorf("failed to presign upload: %w", err))
	}
	return req.URL, nil
}

// DeleteImages removes keys in batches of 1000. Keys that are already gone
// count as deleted. Other per-key failures are reported, not retried.
func (s *ImageStore) DeleteImages(ctx context.Context, keys []string) (ports.ImageDeletion, error) {
	result := ports.ImageDeletion{Deleted: []string{}, Failed: map[string]string{}}
	keys = utils.NonEmpty(keys)

	for _, batch := range utils.Chunk(keys, deleteBatchSize) {
		objects := make([]types.ObjectIdentifier, 0, len(batch))
		for _, key := range batch {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(false),
			},
		})
		if err != nil {
			return result, pkgerrors.NewExternalError("s3", fmt.Errorf("failed to delete images: %w", err))
		}

		for _, deleted := range out.Deleted {
			result.Deleted = append(result.Deleted, aws.ToString(deleted.Key))
		}
		for _, e := range out.Errors {
			key := aws.ToString(e.Key)
			if aws.ToString(e.Code) == "NoSuchKey" {
				result.Deleted = append(result.Deleted, key)
				continue
			}
			result.Failed[key] = fmt.Sprintf("%s: %s", aws.ToString(e.Code), aws.ToString(e.Message))
			s.logger.Warn("Failed to delete image",
				zap.String("key", key),
				zap.String("code", aws.ToString(e.Code)),
				zap.String("message", aws.ToString(e.Message)),
			)
		}
	}

	s.logger.Debug("Images deleted",
		zap.String("bucket", s.bucket),
		zap.Int("requested", len(keys)),
		zap.Int("deleted", len(result.Deleted)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}
