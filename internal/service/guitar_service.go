package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"guitar-service/internal/aggregate"
	"guitar-service/internal/events"
	"guitar-service/internal/model"
	"guitar-service/internal/repository"
)

type GuitarService interface {
	ListAll(ctx context.Context) ([]model.GuitarView, error)
	ListByOwner(ctx context.Context, userID int64) ([]model.GuitarView, error)
	ListByBrand(ctx context.Context, brand string) ([]model.GuitarView, error)
	ListByGenre(ctx context.Context, genre string) ([]model.GuitarView, error)
	CountByOwner(ctx context.Context, userID int64) (int, error)
	Create(ctx context.Context, guitar model.NewGuitar) (*model.Guitar, error)
	Update(ctx context.Context, update model.GuitarUpdate) (*model.UpdateResult, error)
	CheckOwner(ctx context.Context, guitarID, ownerID int64) error
	Delete(ctx context.Context, guitarID, ownerID int64) error
}

type guitarService struct {
	guitarRepo repository.GuitarRepository
	photoURL   aggregate.PhotoURLFunc
	blobs      BlobStore
	cache      PhotoCache
	publisher  events.EventPublisher
}

// NewGuitarService wires the collection operations. blobs and cache may be
// nil: photo bytes are then stored inline and never cached.
func NewGuitarService(
	guitarRepo repository.GuitarRepository,
	photoURL aggregate.PhotoURLFunc,
	blobs BlobStore,
	cache PhotoCache,
	publisher events.EventPublisher,
) GuitarService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &guitarService{
		guitarRepo: guitarRepo,
		photoURL:   photoURL,
		blobs:      blobs,
		cache:      cache,
		publisher:  publisher,
	}
}

func (s *guitarService) ListAll(ctx context.Context) ([]model.GuitarView, error) {
	return s.fold(s.guitarRepo.ListAll(ctx))
}

func (s *guitarService) ListByOwner(ctx context.Context, userID int64) ([]model.GuitarView, error) {
	return s.fold(s.guitarRepo.ListByOwner(ctx, userID))
}

func (s *guitarService) ListByBrand(ctx context.Context, brand string) ([]model.GuitarView, error) {
	return s.fold(s.guitarRepo.ListByBrand(ctx, brand))
}

func (s *guitarService) ListByGenre(ctx context.Context, genre string) ([]model.GuitarView, error) {
	return s.fold(s.guitarRepo.ListByGenre(ctx, genre))
}

func (s *guitarService) fold(rows []model.GuitarRow, err error) ([]model.GuitarView, error) {
	if err != nil {
		return nil, err
	}
	return aggregate.Fold(rows, s.photoURL), nil
}

func (s *guitarService) CountByOwner(ctx context.Context, userID int64) (int, error) {
	return s.guitarRepo.CountByOwner(ctx, userID)
}

func (s *guitarService) Create(ctx context.Context, g model.NewGuitar) (*model.Guitar, error) {
	if g.Photo == nil {
		return nil, ErrPhotoRequired
	}

	photo, err := s.storeBlob(ctx, g.Photo)
	if err != nil {
		return nil, err
	}
	g.Photo = photo

	created, err := s.guitarRepo.Create(ctx, g)
	if err != nil {
		s.discardBlob(ctx, photo.StorageKey)
		if errors.Is(err, repository.ErrMissingPhoto) {
			return nil, ErrPhotoRequired
		}
		return nil, err
	}

	if err := s.publisher.PublishGuitarCreated(ctx, created); err != nil {
		slog.WarnContext(ctx, "guitar created event not published", "guitar_id", created.ID, "error", err)
	}

	return created, nil
}

func (s *guitarService) Update(ctx context.Context, u model.GuitarUpdate) (*model.UpdateResult, error) {
	if u.Photo != nil {
		photo, err := s.storeBlob(ctx, u.Photo)
		if err != nil {
			return nil, err
		}
		u.Photo = photo
	}

	result, err := s.guitarRepo.Update(ctx, u)
	if err != nil {
		if u.Photo != nil {
			s.discardBlob(ctx, u.Photo.StorageKey)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFoundOrForbidden
		}
		return nil, err
	}

	s.discardPhoto(ctx, result.ReplacedPhotoID, result.ReplacedStorageKey)

	if err := s.publisher.PublishGuitarUpdated(ctx, u.GuitarID, u.OwnerID, result.LastModified); err != nil {
		slog.WarnContext(ctx, "guitar updated event not published", "guitar_id", u.GuitarID, "error", err)
	}

	return result, nil
}

// CheckOwner reports ErrNotFoundOrForbidden unless ownerID owns guitarID.
func (s *guitarService) CheckOwner(ctx context.Context, guitarID, ownerID int64) error {
	owned, err := s.guitarRepo.IsOwner(ctx, guitarID, ownerID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotFoundOrForbidden
	}
	return nil
}

func (s *guitarService) Delete(ctx context.Context, guitarID, ownerID int64) error {
	result, err := s.guitarRepo.Delete(ctx, guitarID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFoundOrForbidden
		}
		return err
	}

	s.discardPhoto(ctx, result.PhotoID, result.StorageKey)

	if err := s.publisher.PublishGuitarDeleted(ctx, guitarID, ownerID); err != nil {
		slog.WarnContext(ctx, "guitar deleted event not published", "guitar_id", guitarID, "error", err)
	}

	return nil
}

// storeBlob uploads the photo bytes when a blob store is configured and
// returns a copy of the upload carrying the object key.
func (s *guitarService) storeBlob(ctx context.Context, photo *model.PhotoUpload) (*model.PhotoUpload, error) {
	if s.blobs == nil {
		return photo, nil
	}

	stored := *photo
	stored.StorageKey = "photos/" + uuid.NewString()
	if err := s.blobs.Put(ctx, stored.StorageKey, stored.Data, stored.MimeType); err != nil {
		return nil, err
	}

	return &stored, nil
}

func (s *guitarService) discardBlob(ctx context.Context, key string) {
	if s.blobs == nil || key == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.WarnContext(ctx, "orphaned photo blob", "storage_key", key, "error", err)
	}
}

// discardPhoto cleans up after a photo row is gone: the external blob and any
// cached bytes.
func (s *guitarService) discardPhoto(ctx context.Context, photoID int64, key string) {
	s.discardBlob(ctx, key)

	if s.cache == nil || photoID == 0 {
		return
	}
	if err := s.cache.Delete(context.WithoutCancel(ctx), photoID); err != nil {
		slog.WarnContext(ctx, "stale photo left in cache", "photo_id", photoID, "error", err)
	}
}
