package service_test

import (
	"context"
	"database/sql"
	"time"

	"guitar-service/internal/model"
	"guitar-service/internal/repository"
)

type fakeUserRepo struct {
	users     map[string]*model.User
	passwords map[string]string
	err       error
	nextID    int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}, passwords: map[string]string{}, nextID: 1}
}

func (r *fakeUserRepo) add(id int64, username, password string) {
	r.users[username] = &model.User{ID: id, Username: username}
	r.passwords[username] = password
}

func (r *fakeUserRepo) Create(_ context.Context, username, passwordHash string) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	if _, ok := r.users[username]; ok {
		return nil, repository.ErrDuplicate
	}
	u := &model.User{ID: r.nextID, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.nextID++
	r.users[username] = u
	return u, nil
}

func (r *fakeUserRepo) FindByCredentials(_ context.Context, username, password string) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[username]
	if !ok || r.passwords[username] != password {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeGuitarRepo struct {
	rows         []model.GuitarRow
	count        int
	listErr      error
	created      *model.NewGuitar
	createErr    error
	updated      *model.GuitarUpdate
	updateResult *model.UpdateResult
	updateErr    error
	deleteResult *model.DeleteResult
	deleteErr    error
	photos       map[int64]*model.Photo
	photoCalls   int
	owners       map[int64]int64
	ownerErr     error
}

func (r *fakeGuitarRepo) ListAll(context.Context) ([]model.GuitarRow, error) {
	return r.rows, r.listErr
}

func (r *fakeGuitarRepo) ListByOwner(context.Context, int64) ([]model.GuitarRow, error) {
	return r.rows, r.listErr
}

func (r *fakeGuitarRepo) ListByBrand(context.Context, string) ([]model.GuitarRow, error) {
	return r.rows, r.listErr
}

func (r *fakeGuitarRepo) ListByGenre(context.Context, string) ([]model.GuitarRow, error) {
	return r.rows, r.listErr
}

func (r *fakeGuitarRepo) IsOwner(_ context.Context, guitarID, ownerID int64) (bool, error) {
	if r.ownerErr != nil {
		return false, r.ownerErr
	}
	owner, ok := r.owners[guitarID]
	return ok && owner == ownerID, nil
}

func (r *fakeGuitarRepo) CountByOwner(context.Context, int64) (int, error) {
	return r.count, r.listErr
}

func (r *fakeGuitarRepo) Create(_ context.Context, g model.NewGuitar) (*model.Guitar, error) {
	r.created = &g
	if r.createErr != nil {
		return nil, r.createErr
	}
	return &model.Guitar{ID: 42, Brand: g.Fields.Brand, PhotoID: 9, UserID: g.Owner.UserID, Username: g.Owner.Username}, nil
}

func (r *fakeGuitarRepo) Update(_ context.Context, u model.GuitarUpdate) (*model.UpdateResult, error) {
	r.updated = &u
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if r.updateResult != nil {
		return r.updateResult, nil
	}
	return &model.UpdateResult{LastModified: time.Now()}, nil
}

func (r *fakeGuitarRepo) Delete(context.Context, int64, int64) (*model.DeleteResult, error) {
	if r.deleteErr != nil {
		return nil, r.deleteErr
	}
	if r.deleteResult != nil {
		return r.deleteResult, nil
	}
	return &model.DeleteResult{}, nil
}

func (r *fakeGuitarRepo) GetPhoto(_ context.Context, photoID int64) (*model.Photo, error) {
	r.photoCalls++
	p, ok := r.photos[photoID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

type fakeBlobs struct {
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBlobs) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return data, nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.deleted = append(b.deleted, key)
	delete(b.objects, key)
	return nil
}

type fakeCache struct {
	photos  map[int64]*model.Photo
	deleted []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{photos: map[int64]*model.Photo{}}
}

func (c *fakeCache) Get(_ context.Context, photoID int64) (*model.Photo, error) {
	p, ok := c.photos[photoID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (c *fakeCache) Set(_ context.Context, photo *model.Photo) error {
	c.photos[photo.ID] = photo
	return nil
}

func (c *fakeCache) Delete(_ context.Context, photoIDs ...int64) error {
	for _, id := range photoIDs {
		c.deleted = append(c.deleted, id)
		delete(c.photos, id)
	}
	return nil
}

type fakePublisher struct {
	created []int64
	updated []int64
	deleted []int64
}

func (p *fakePublisher) PublishGuitarCreated(_ context.Context, g *model.Guitar) error {
	p.created = append(p.created, g.ID)
	return nil
}

func (p *fakePublisher) PublishGuitarUpdated(_ context.Context, guitarID, _ int64, _ time.Time) error {
	p.updated = append(p.updated, guitarID)
	return nil
}

func (p *fakePublisher) PublishGuitarDeleted(_ context.Context, guitarID, _ int64) error {
	p.deleted = append(p.deleted, guitarID)
	return nil
}
