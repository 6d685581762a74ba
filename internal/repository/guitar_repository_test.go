package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"guitar-service/internal/model"
	repo "guitar-service/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var guitarRowColumns = []string{
	"guitar_id", "brand", "model", "year", "serial_number", "genre", "body_type",
	"last_modified", "photo_id", "caption", "user_id", "username",
}

var alice = model.Identity{UserID: 7, Username: "alice"}

func TestPostgresGuitarRepository_ListAll(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(guitarRowColumns).
		AddRow(int64(2), "Gibson", "Les Paul", "1959", nil, "Rock", nil, now, int64(20), "burst", int64(7), "alice").
		AddRow(int64(1), "Fender", "Telecaster", "1952", "SN1", nil, nil, now, nil, nil, int64(8), "bob")
	mock.ExpectQuery(`LEFT JOIN photos p ON g.photo_id = p.photo_id\s+ORDER BY g.guitar_id DESC`).WillReturnRows(rows)

	got, err := r.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(2), got[0].GuitarID)
	require.True(t, got[0].PhotoID.Valid)
	require.False(t, got[1].PhotoID.Valid)
	require.Equal(t, "SN1", got[1].SerialNumber.String)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_ListByOwner_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE g.user_id = $1 ORDER BY g.guitar_id DESC`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(guitarRowColumns))

	got, err := r.ListByOwner(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_ListByBrand_OrdersByYear(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE g.brand = $1 ORDER BY g.year DESC`)).
		WithArgs("Fender").
		WillReturnRows(sqlmock.NewRows(guitarRowColumns).
			AddRow(int64(3), "Fender", "Jazzmaster", "1999", nil, nil, nil, now, nil, nil, int64(7), "alice").
			AddRow(int64(5), "Fender", "Stratocaster", "1965", nil, nil, nil, now, nil, nil, int64(7), "alice"))

	got, err := r.ListByBrand(context.Background(), "Fender")
	require.NoError(t, err)
	require.Equal(t, "1999", got[0].Year)
	require.Equal(t, "1965", got[1].Year)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_ListByGenre_UsesStoredFunction(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectQuery(`^` + regexp.QuoteMeta(`SELECT * FROM get_guitars_by_genre($1) ORDER BY guitar_id DESC`) + `$`).
		WithArgs("Jazz").
		WillReturnRows(sqlmock.NewRows(guitarRowColumns).
			AddRow(int64(9), "Gibson", "L-5", "1961", nil, "Jazz", "hollow", time.Now(), int64(41), nil, int64(7), "alice").
			AddRow(int64(4), "Gibson", "ES-175", "1958", nil, "Jazz", "hollow", time.Now(), int64(40), nil, int64(7), "alice"))

	got, err := r.ListByGenre(context.Background(), "Jazz")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Jazz", got[0].Genre.String)
	require.Equal(t, int64(9), got[0].GuitarID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_ListAll_StorageFailure(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectQuery(`FROM guitars g`).WillReturnError(errors.New("boom"))

	_, err := r.ListAll(context.Background())
	require.ErrorIs(t, err, repo.ErrStorageUnavailable)
}

func TestPostgresGuitarRepository_CountByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM guitars WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := r.CountByOwner(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newGuitar() model.NewGuitar {
	return model.NewGuitar{
		Fields: model.GuitarFields{Brand: "Fender", Model: "Stratocaster", Year: "1965", SerialNumber: "L123", Genre: "Blues", BodyType: "solid"},
		Owner:  alice,
		Photo:  &model.PhotoUpload{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg"},
	}
}

func TestPostgresGuitarRepository_Create_InsertsPhotoThenGuitar(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO photos (image_data, storage_key, mime_type, caption) VALUES ($1, $2, $3, $4) RETURNING photo_id`)).
		WithArgs([]byte{0xff, 0xd8}, nil, "image/jpeg", nil).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(11)))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO guitars (brand, model, year, serial_number, genre, body_type, photo_id, user_id)`)).
		WithArgs("Fender", "Stratocaster", "1965", "L123", "Blues", "solid", int64(11), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"guitar_id", "last_modified"}).AddRow(int64(42), now))
	mock.ExpectCommit()

	g, err := r.Create(context.Background(), newGuitar())
	require.NoError(t, err)
	require.Equal(t, int64(42), g.ID)
	require.Equal(t, int64(11), g.PhotoID)
	require.Equal(t, "alice", g.Username)
	require.Equal(t, "L123", *g.SerialNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Create_RollsBackWhenGuitarInsertFails(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO photos`)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(11)))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO guitars`)).
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	_, err := r.Create(context.Background(), newGuitar())
	require.ErrorIs(t, err, repo.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Create_RequiresPhoto(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	g := newGuitar()
	g.Photo = nil

	_, err := r.Create(context.Background(), g)
	require.ErrorIs(t, err, repo.ErrMissingPhoto)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Update_NotOwner(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT photo_id FROM guitars WHERE guitar_id = $1 AND user_id = $2 FOR UPDATE`)).
		WithArgs(int64(42), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}))
	mock.ExpectRollback()

	_, err := r.Update(context.Background(), model.GuitarUpdate{GuitarID: 42, OwnerID: 8, Fields: model.GuitarFields{Brand: "X"}})
	require.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Update_FullReplace(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT photo_id FROM guitars`)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(5)))
	// Omitted optional fields are written as NULL rather than kept.
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE guitars`)).
		WithArgs("Gibson", "Les Paul", "1959", nil, nil, nil, int64(5), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"last_modified"}).AddRow(now))
	mock.ExpectCommit()

	res, err := r.Update(context.Background(), model.GuitarUpdate{
		GuitarID: 42,
		OwnerID:  7,
		Fields:   model.GuitarFields{Brand: "Gibson", Model: "Les Paul", Year: "1959"},
	})
	require.NoError(t, err)
	require.Equal(t, now, res.LastModified)
	require.Zero(t, res.ReplacedPhotoID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Update_CaptionOnly(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT photo_id FROM guitars`)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(5)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE photos SET caption = $1 WHERE photo_id = $2`)).
		WithArgs("new caption", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE guitars`)).
		WillReturnRows(sqlmock.NewRows([]string{"last_modified"}).AddRow(time.Now()))
	mock.ExpectCommit()

	_, err := r.Update(context.Background(), model.GuitarUpdate{GuitarID: 42, OwnerID: 7, Caption: "new caption"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Update_ReplacesPhoto(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT photo_id FROM guitars`)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(5)))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO photos`)).
		WithArgs(nil, "photos/abc.png", "image/png", "front").
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(9)))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE guitars`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(9), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"last_modified"}).AddRow(time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM photos WHERE photo_id = $1 RETURNING storage_key`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).AddRow("photos/old.png"))
	mock.ExpectCommit()

	res, err := r.Update(context.Background(), model.GuitarUpdate{
		GuitarID: 42,
		OwnerID:  7,
		Fields:   model.GuitarFields{Brand: "Fender", Model: "Strat", Year: "1965"},
		Photo:    &model.PhotoUpload{Data: []byte("png"), MimeType: "image/png", StorageKey: "photos/abc.png"},
		Caption:  "front",
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), res.ReplacedPhotoID)
	require.Equal(t, "photos/old.png", res.ReplacedStorageKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Update_RollsBackWhenGuitarUpdateFails(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT photo_id FROM guitars`)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(5)))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO photos`)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(9)))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE guitars`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := r.Update(context.Background(), model.GuitarUpdate{
		GuitarID: 42,
		OwnerID:  7,
		Fields:   model.GuitarFields{Brand: "Fender", Model: "Strat", Year: "1965"},
		Photo:    &model.PhotoUpload{Data: []byte("png"), MimeType: "image/png"},
	})
	require.ErrorIs(t, err, repo.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_IsOwner(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	query := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM guitars WHERE guitar_id = $1 AND user_id = $2)`)
	mock.ExpectQuery(query).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(query).
		WithArgs(int64(42), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(query).
		WillReturnError(errors.New("boom"))

	owned, err := r.IsOwner(context.Background(), 42, 7)
	require.NoError(t, err)
	require.True(t, owned)

	owned, err = r.IsOwner(context.Background(), 42, 8)
	require.NoError(t, err)
	require.False(t, owned)

	_, err = r.IsOwner(context.Background(), 42, 7)
	require.ErrorIs(t, err, repo.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Delete_RemovesGuitarThenPhoto(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT photo_id FROM guitars WHERE guitar_id = $1 AND user_id = $2 FOR UPDATE`)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(5)))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM guitars WHERE guitar_id = $1`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM photos WHERE photo_id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).AddRow(nil))
	mock.ExpectCommit()

	res, err := r.Delete(context.Background(), 42, 7)
	require.NoError(t, err)
	require.Equal(t, int64(5), res.PhotoID)
	require.Equal(t, "", res.StorageKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Delete_WithoutPhoto(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT photo_id FROM guitars`)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(nil))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM guitars WHERE guitar_id = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := r.Delete(context.Background(), 42, 7)
	require.NoError(t, err)
	require.Zero(t, res.PhotoID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Delete_RollsBackWhenPhotoDeleteFails(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT photo_id FROM guitars`)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}).AddRow(int64(5)))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM guitars`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM photos`)).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := r.Delete(context.Background(), 42, 7)
	require.ErrorIs(t, err, repo.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_Delete_NotOwner(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT photo_id FROM guitars`)).
		WithArgs(int64(42), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id"}))
	mock.ExpectRollback()

	_, err := r.Delete(context.Background(), 42, 8)
	require.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGuitarRepository_GetPhoto_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresGuitarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM photos WHERE photo_id = $1`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id", "image_data", "storage_key", "mime_type", "caption"}))

	_, err := r.GetPhoto(context.Background(), 99)
	require.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
