package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePhotosTable, downCreatePhotosTable)
}

// Photo bytes live either inline in image_data or in the object store under storage_key.
func upCreatePhotosTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE photos (
			photo_id BIGSERIAL PRIMARY KEY,
			image_data BYTEA,
			storage_key TEXT,
			mime_type TEXT NOT NULL,
			caption TEXT,
			CONSTRAINT photos_has_content CHECK (image_data IS NOT NULL OR storage_key IS NOT NULL)
		);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreatePhotosTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS photos;`)
	return err
}
