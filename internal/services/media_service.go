package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"ecosnap/internal/models"
)

// ObjectStore is the slice of *minio.Client the media service needs.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type UploadInput struct {
	Kind        models.MediaKind
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MediaService struct {
	repo      MediaRepository
	store     ObjectStore
	bucket    string
	publicURL string
	now       func() time.Time
}

func NewMediaService(repo MediaRepository, store ObjectStore, bucket, publicURL string) *MediaService {
	return &MediaService{
		repo:      repo,
		store:     store,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// Upload stores an image in the bucket and records it; the returned media carries the public URL.
func (s *MediaService) Upload(ctx context.Context, p models.Principal, in UploadInput) (*models.Media, error) {
	if p.ID.IsZero() {
		return nil, models.ErrUnauthorized
	}
	if in.Kind == "" {
		in.Kind = models.MediaReport
	}
	if !in.Kind.IsValid() {
		return nil, models.NewValidationError(fmt.Sprintf("kind %q must be one of [report completion avatar]", in.Kind))
	}
	ext, ok := models.ImageExtension(in.ContentType)
	if !ok {
		return nil, models.NewValidationError("file must be a jpeg, png, gif or webp image")
	}
	if in.Size <= 0 || in.Size > models.MaxUploadSize {
		return nil, models.NewValidationError("file must be between 1 byte and 5MB")
	}

	now := s.now()
	objectKey := fmt.Sprintf("%s/%s-%d%s", in.Kind, p.ID.Hex(), now.UnixNano(), ext)
	_, err := s.store.PutObject(ctx, s.bucket, objectKey, in.Body, in.Size, minio.PutObjectOptions{
		ContentType: in.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to object storage: %w", err)
	}

	media := &models.Media{
		Kind:        in.Kind,
		UserID:      p.ID,
		FileName:    in.FileName,
		ObjectKey:   objectKey,
		URL:         fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectKey),
		ContentType: in.ContentType,
		Size:        in.Size,
		CreatedAt:   now,
	}
	if err := s.repo.Save(ctx, media); err != nil {
		return nil, fmt.Errorf("save media record: %w", err)
	}
	return media, nil
}
