package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"guitar-service/internal/model"
	"guitar-service/internal/repository"
)

type PhotoService interface {
	GetPhoto(ctx context.Context, photoID int64) (*model.Photo, error)
}

type photoService struct {
	guitarRepo repository.GuitarRepository
	blobs      BlobStore
	cache      PhotoCache
}

func NewPhotoService(guitarRepo repository.GuitarRepository, blobs BlobStore, cache PhotoCache) PhotoService {
	return &photoService{guitarRepo: guitarRepo, blobs: blobs, cache: cache}
}

// GetPhoto returns the photo with its bytes loaded, reading through the cache
// when one is configured.
func (s *photoService) GetPhoto(ctx context.Context, photoID int64) (*model.Photo, error) {
	if s.cache != nil {
		if photo, err := s.cache.Get(ctx, photoID); err == nil {
			return photo, nil
		}
	}

	photo, err := s.guitarRepo.GetPhoto(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}

	if photo.StorageKey.Valid {
		if s.blobs == nil {
			return nil, fmt.Errorf("photo %d is held in blob storage, which is not configured", photoID)
		}
		data, err := s.blobs.Get(ctx, photo.StorageKey.String)
		if err != nil {
			return nil, fmt.Errorf("load photo %d: %w", photoID, err)
		}
		photo.ImageData = data
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, photo); err != nil {
			slog.WarnContext(ctx, "photo not cached", "photo_id", photoID, "error", err)
		}
	}

	return photo, nil
}
