package model

import "database/sql"

type Photo struct {
	ID         int64          `db:"photo_id"`
	ImageData  []byte         `db:"image_data"`
	StorageKey sql.NullString `db:"storage_key"`
	MimeType   string         `db:"mime_type"`
	Caption    sql.NullString `db:"caption"`
}

// PhotoUpload is an image accepted at the HTTP boundary, before it is stored.
type PhotoUpload struct {
	Data       []byte
	MimeType   string
	StorageKey string
}
