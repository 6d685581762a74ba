package model

import (
	"database/sql"
	"time"
)

type Guitar struct {
	ID           int64     `json:"guitar_id"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Year         string    `json:"year"`
	SerialNumber *string   `json:"serial_number"`
	Genre        string    `json:"genre"`
	BodyType     string    `json:"body_type"`
	PhotoID      int64     `json:"photo_id"`
	Caption      string    `json:"caption"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	LastModified time.Time `json:"last_modified"`
}

// GuitarFields are the scalar columns a caller submits on create and update.
// Update writes every field, so an empty optional field clears the column.
type GuitarFields struct {
	Brand        string
	Model        string
	Year         string
	SerialNumber string
	Genre        string
	BodyType     string
}

type NewGuitar struct {
	Fields  GuitarFields
	Owner   Identity
	Photo   *PhotoUpload
	Caption string
}

type GuitarUpdate struct {
	GuitarID int64
	OwnerID  int64
	Fields   GuitarFields
	Photo    *PhotoUpload
	Caption  string
}

type UpdateResult struct {
	LastModified time.Time
	// ReplacedStorageKey is the external blob key of a photo superseded by this update.
	ReplacedStorageKey string
	ReplacedPhotoID    int64
}

type DeleteResult struct {
	PhotoID    int64
	StorageKey string
}

// GuitarRow is one row of the guitars/photos/users join. Photo columns are
// null when the guitar has no photo.
type GuitarRow struct {
	GuitarID     int64          `db:"guitar_id"`
	Brand        string         `db:"brand"`
	Model        string         `db:"model"`
	Year         string         `db:"year"`
	SerialNumber sql.NullString `db:"serial_number"`
	Genre        sql.NullString `db:"genre"`
	BodyType     sql.NullString `db:"body_type"`
	LastModified time.Time      `db:"last_modified"`
	PhotoID      sql.NullInt64  `db:"photo_id"`
	Caption      sql.NullString `db:"caption"`
	UserID       int64          `db:"user_id"`
	Username     string         `db:"username"`
}

type PhotoView struct {
	PhotoID int64  `json:"photo_id"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

type OwnerView struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type GuitarView struct {
	GuitarID     int64       `json:"guitar_id"`
	Brand        string      `json:"brand"`
	Model        string      `json:"model"`
	Year         string      `json:"year"`
	SerialNumber string      `json:"serial_number"`
	Genre        string      `json:"genre"`
	BodyType     string      `json:"body_type"`
	LastModified time.Time   `json:"last_modified"`
	Photos       []PhotoView `json:"photos"`
	User         OwnerView   `json:"user"`
}
