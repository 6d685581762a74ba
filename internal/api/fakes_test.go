package api_test

import (
	"context"
	"errors"
	"time"

	"guitar-service/internal/model"
	"guitar-service/internal/repository"
	"guitar-service/internal/service"
)

type fakeAuth struct {
	tokens   map[string]model.Identity
	loginErr error
}

func (f *fakeAuth) Register(_ context.Context, username, _ string) (*model.User, error) {
	if username == "taken" {
		return nil, service.ErrUsernameTaken
	}
	return &model.User{ID: 11, Username: username}, nil
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*model.User, string, error) {
	if f.loginErr != nil {
		return nil, "", f.loginErr
	}
	if username != "alice" || password != "secret" {
		return nil, "", service.ErrInvalidCredentials
	}
	return &model.User{ID: 7, Username: "alice"}, "alice-token", nil
}

func (f *fakeAuth) ResolveToken(_ context.Context, token string) (model.Identity, error) {
	if token == "broken-db" {
		return model.Identity{}, repository.ErrStorageUnavailable
	}
	identity, ok := f.tokens[token]
	if !ok {
		return model.Identity{}, service.ErrUnauthenticated
	}
	return identity, nil
}

type fakeGuitars struct {
	views       []model.GuitarView
	listErr     error
	lastFilter  string
	lastOwnerID int64
	count       int
	created     *model.NewGuitar
	updated     *model.GuitarUpdate
	updateErr   error
	ownerErr    error
	ownerChecks int
	deleteErr   error
	deadline    bool
}

func (f *fakeGuitars) ListAll(ctx context.Context) ([]model.GuitarView, error) {
	_, f.deadline = ctx.Deadline()
	return f.views, f.listErr
}

func (f *fakeGuitars) ListByOwner(_ context.Context, userID int64) ([]model.GuitarView, error) {
	f.lastOwnerID = userID
	return f.views, f.listErr
}

func (f *fakeGuitars) ListByBrand(_ context.Context, brand string) ([]model.GuitarView, error) {
	f.lastFilter = brand
	return f.views, f.listErr
}

func (f *fakeGuitars) ListByGenre(_ context.Context, genre string) ([]model.GuitarView, error) {
	f.lastFilter = genre
	return f.views, f.listErr
}

func (f *fakeGuitars) CountByOwner(_ context.Context, userID int64) (int, error) {
	f.lastOwnerID = userID
	return f.count, f.listErr
}

func (f *fakeGuitars) Create(_ context.Context, g model.NewGuitar) (*model.Guitar, error) {
	f.created = &g
	return &model.Guitar{
		ID:       42,
		Brand:    g.Fields.Brand,
		Model:    g.Fields.Model,
		Year:     g.Fields.Year,
		PhotoID:  9,
		Caption:  g.Caption,
		UserID:   g.Owner.UserID,
		Username: g.Owner.Username,
	}, nil
}

func (f *fakeGuitars) Update(_ context.Context, u model.GuitarUpdate) (*model.UpdateResult, error) {
	f.updated = &u
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &model.UpdateResult{LastModified: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeGuitars) CheckOwner(context.Context, int64, int64) error {
	f.ownerChecks++
	return f.ownerErr
}

func (f *fakeGuitars) Delete(context.Context, int64, int64) error {
	return f.deleteErr
}

type fakePhotos struct{}

func (fakePhotos) GetPhoto(_ context.Context, photoID int64) (*model.Photo, error) {
	switch photoID {
	case 12:
		return &model.Photo{ID: 12, ImageData: []byte("png-bytes"), MimeType: "image/png"}, nil
	case 13:
		return nil, errors.New("connection reset")
	default:
		return nil, service.ErrPhotoNotFound
	}
}
