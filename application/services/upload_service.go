package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// DefaultUploadTTL is how long a presigned upload link stays valid.
const DefaultUploadTTL = 5 * time.Minute

// UploadLink is a presigned URL the client PUTs an image to.
type UploadLink struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// UploadService hands out presigned image upload links.
type UploadService struct {
	images ports.ImageStore
	ttl    time.Duration
	logger *zap.Logger
	suffix func() string
}

// NewUploadService creates a new upload service
func NewUploadService(images ports.ImageStore, ttl time.Duration, logger *zap.Logger) *UploadService {
	if ttl <= 0 {
		ttl = DefaultUploadTTL
	}
	return &UploadService{
		images: images,
		ttl:    ttl,
		logger: logger,
		suffix: randomDigits,
	}
}

// CreateUploadLink presigns an upload for fileName. Spaces are removed from
// the name and a random number is appended so uploads do not collide.
func (s *UploadService) CreateUploadLink(ctx context.Context, fileName string) (*UploadLink, error) {
	name := strings.Join(strings.Fields(fileName), "")
	if name == "" {
		return nil, pkgerrors.NewValidationError("fileName is required")
	}

	key := fmt.Sprintf("%s%s.png", name, s.suffix())
	url, err := s.images.PresignUpload(ctx, key, s.ttl)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Upload link created", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return &UploadLink{URL: url, Key: key}, nil
}

func randomDigits() string {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
	}
	return n.String()
}
