package service

import (
	"context"
	"fmt"
	"strings"

	"guitar-service/internal/model"
)

// BlobStore keeps photo bytes outside Postgres.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// PhotoCache holds photo bytes by id. Photos never change once written, so an
// entry stays valid until its photo is deleted.
type PhotoCache interface {
	Get(ctx context.Context, photoID int64) (*model.Photo, error)
	Set(ctx context.Context, photo *model.Photo) error
	Delete(ctx context.Context, photoIDs ...int64) error
}

func ValidatePhoto(photo *model.PhotoUpload, maxBytes int64) error {
	if photo == nil {
		return ErrPhotoRequired
	}
	if len(photo.Data) == 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidPhoto)
	}
	if int64(len(photo.Data)) > maxBytes {
		return fmt.Errorf("%w: larger than %d bytes", ErrInvalidPhoto, maxBytes)
	}
	if !strings.HasPrefix(photo.MimeType, "image/") {
		return fmt.Errorf("%w: %q is not an image type", ErrInvalidPhoto, photo.MimeType)
	}
	return nil
}
