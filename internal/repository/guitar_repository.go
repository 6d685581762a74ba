package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"guitar-service/internal/model"
)

type GuitarRepository interface {
	ListAll(ctx context.Context) ([]model.GuitarRow, error)
	ListByOwner(ctx context.Context, userID int64) ([]model.GuitarRow, error)
	ListByBrand(ctx context.Context, brand string) ([]model.GuitarRow, error)
	ListByGenre(ctx context.Context, genre string) ([]model.GuitarRow, error)
	CountByOwner(ctx context.Context, userID int64) (int, error)
	IsOwner(ctx context.Context, guitarID, ownerID int64) (bool, error)
	Create(ctx context.Context, guitar model.NewGuitar) (*model.Guitar, error)
	Update(ctx context.Context, update model.GuitarUpdate) (*model.UpdateResult, error)
	Delete(ctx context.Context, guitarID, ownerID int64) (*model.DeleteResult, error)
	GetPhoto(ctx context.Context, photoID int64) (*model.Photo, error)
}

const selectGuitarRows = `
	SELECT
		g.guitar_id,
		g.brand,
		g.model,
		g.year,
		g.serial_number,
		g.genre,
		g.body_type,
		g.last_modified,
		p.photo_id,
		p.caption,
		u.user_id,
		u.username
	FROM guitars g
	JOIN users u ON g.user_id = u.user_id
	LEFT JOIN photos p ON g.photo_id = p.photo_id
`

type postgresGuitarRepository struct {
	db *sqlx.DB
}

func NewPostgresGuitarRepository(db *sqlx.DB) GuitarRepository {
	return &postgresGuitarRepository{db: db}
}

func (r *postgresGuitarRepository) ListAll(ctx context.Context) ([]model.GuitarRow, error) {
	return r.selectRows(ctx, selectGuitarRows+` ORDER BY g.guitar_id DESC`)
}

func (r *postgresGuitarRepository) ListByOwner(ctx context.Context, userID int64) ([]model.GuitarRow, error) {
	return r.selectRows(ctx, selectGuitarRows+` WHERE g.user_id = $1 ORDER BY g.guitar_id DESC`, userID)
}

func (r *postgresGuitarRepository) ListByBrand(ctx context.Context, brand string) ([]model.GuitarRow, error) {
	return r.selectRows(ctx, selectGuitarRows+` WHERE g.brand = $1 ORDER BY g.year DESC, g.guitar_id DESC`, brand)
}

// ListByGenre goes through the get_guitars_by_genre stored function, which
// returns the same columns as the other listings.
func (r *postgresGuitarRepository) ListByGenre(ctx context.Context, genre string) ([]model.GuitarRow, error) {
	return r.selectRows(ctx, `SELECT * FROM get_guitars_by_genre($1) ORDER BY guitar_id DESC`, genre)
}

func (r *postgresGuitarRepository) selectRows(ctx context.Context, query string, args ...interface{}) ([]model.GuitarRow, error) {
	var rows []model.GuitarRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageError(err)
	}

	if rows == nil {
		rows = []model.GuitarRow{}
	}

	return rows, nil
}

func (r *postgresGuitarRepository) CountByOwner(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM guitars WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, storageError(err)
	}

	return count, nil
}

func (r *postgresGuitarRepository) IsOwner(ctx context.Context, guitarID, ownerID int64) (bool, error) {
	var owned bool
	query := `SELECT EXISTS (SELECT 1 FROM guitars WHERE guitar_id = $1 AND user_id = $2)`
	if err := r.db.GetContext(ctx, &owned, query, guitarID, ownerID); err != nil {
		return false, storageError(err)
	}

	return owned, nil
}

// Create inserts the photo and then the guitar referencing it, in one transaction.
func (r *postgresGuitarRepository) Create(ctx context.Context, g model.NewGuitar) (*model.Guitar, error) {
	if g.Photo == nil {
		return nil, ErrMissingPhoto
	}

	created := &model.Guitar{
		Brand:    g.Fields.Brand,
		Model:    g.Fields.Model,
		Year:     g.Fields.Year,
		Genre:    g.Fields.Genre,
		BodyType: g.Fields.BodyType,
		Caption:  g.Caption,
		UserID:   g.Owner.UserID,
		Username: g.Owner.Username,
	}
	if g.Fields.SerialNumber != "" {
		serial := g.Fields.SerialNumber
		created.SerialNumber = &serial
	}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		photoID, err := insertPhoto(ctx, tx, g.Photo, g.Caption)
		if err != nil {
			return err
		}
		created.PhotoID = photoID

		query := `
			INSERT INTO guitars (brand, model, year, serial_number, genre, body_type, photo_id, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING guitar_id, last_modified
		`
		return tx.QueryRowxContext(ctx, query,
			g.Fields.Brand, g.Fields.Model, g.Fields.Year,
			nullString(g.Fields.SerialNumber), nullString(g.Fields.Genre), nullString(g.Fields.BodyType),
			photoID, g.Owner.UserID,
		).Scan(&created.ID, &created.LastModified)
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Update replaces every scalar column of an owned guitar. A new photo is
// inserted and repointed, and the superseded photo row is removed; without a
// new photo a non-empty caption is written to the current photo.
func (r *postgresGuitarRepository) Update(ctx context.Context, u model.GuitarUpdate) (*model.UpdateResult, error) {
	result := &model.UpdateResult{}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		currentPhotoID, err := lockOwnedGuitar(ctx, tx, u.GuitarID, u.OwnerID)
		if err != nil {
			return err
		}

		photoID := currentPhotoID
		if u.Photo != nil {
			newID, err := insertPhoto(ctx, tx, u.Photo, u.Caption)
			if err != nil {
				return err
			}
			photoID = sql.NullInt64{Int64: newID, Valid: true}
		} else if u.Caption != "" && currentPhotoID.Valid {
			query := `UPDATE photos SET caption = $1 WHERE photo_id = $2`
			if _, err := tx.ExecContext(ctx, query, u.Caption, currentPhotoID.Int64); err != nil {
				return err
			}
		}

		query := `
			UPDATE guitars
			SET brand = $1, model = $2, year = $3, serial_number = $4, genre = $5, body_type = $6,
				photo_id = $7, last_modified = now()
			WHERE guitar_id = $8
			RETURNING last_modified
		`
		err = tx.QueryRowxContext(ctx, query,
			u.Fields.Brand, u.Fields.Model, u.Fields.Year,
			nullString(u.Fields.SerialNumber), nullString(u.Fields.Genre), nullString(u.Fields.BodyType),
			photoID, u.GuitarID,
		).Scan(&result.LastModified)
		if err != nil {
			return err
		}

		if u.Photo != nil && currentPhotoID.Valid {
			key, err := deletePhoto(ctx, tx, currentPhotoID.Int64)
			if err != nil {
				return err
			}
			result.ReplacedPhotoID = currentPhotoID.Int64
			result.ReplacedStorageKey = key
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Delete removes an owned guitar and then its photo. The guitar goes first
// because it holds the foreign key.
func (r *postgresGuitarRepository) Delete(ctx context.Context, guitarID, ownerID int64) (*model.DeleteResult, error) {
	result := &model.DeleteResult{}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		photoID, err := lockOwnedGuitar(ctx, tx, guitarID, ownerID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM guitars WHERE guitar_id = $1`, guitarID); err != nil {
			return err
		}

		if !photoID.Valid {
			return nil
		}

		key, err := deletePhoto(ctx, tx, photoID.Int64)
		if err != nil {
			return err
		}
		result.PhotoID = photoID.Int64
		result.StorageKey = key

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *postgresGuitarRepository) GetPhoto(ctx context.Context, photoID int64) (*model.Photo, error) {
	var photo model.Photo
	query := `SELECT photo_id, image_data, storage_key, mime_type, caption FROM photos WHERE photo_id = $1`
	if err := r.db.GetContext(ctx, &photo, query, photoID); err != nil {
		return nil, storageError(err)
	}

	return &photo, nil
}

// lockOwnedGuitar returns the photo id of a guitar owned by ownerID and locks
// its row. A guitar that does not exist and one owned by someone else both
// yield ErrNotFound.
func lockOwnedGuitar(ctx context.Context, tx *sqlx.Tx, guitarID, ownerID int64) (sql.NullInt64, error) {
	var photoID sql.NullInt64
	query := `SELECT photo_id FROM guitars WHERE guitar_id = $1 AND user_id = $2 FOR UPDATE`
	if err := tx.GetContext(ctx, &photoID, query, guitarID, ownerID); err != nil {
		return photoID, storageError(err)
	}

	return photoID, nil
}

func insertPhoto(ctx context.Context, tx *sqlx.Tx, photo *model.PhotoUpload, caption string) (int64, error) {
	var imageData interface{}
	if photo.StorageKey == "" {
		imageData = photo.Data
	}

	var photoID int64
	query := `INSERT INTO photos (image_data, storage_key, mime_type, caption) VALUES ($1, $2, $3, $4) RETURNING photo_id`
	err := tx.QueryRowxContext(ctx, query, imageData, nullString(photo.StorageKey), photo.MimeType, nullString(caption)).Scan(&photoID)

	return photoID, err
}

func deletePhoto(ctx context.Context, tx *sqlx.Tx, photoID int64) (string, error) {
	var key sql.NullString
	query := `DELETE FROM photos WHERE photo_id = $1 RETURNING storage_key`
	if err := tx.QueryRowxContext(ctx, query, photoID).Scan(&key); err != nil {
		return "", err
	}

	return key.String, nil
}
