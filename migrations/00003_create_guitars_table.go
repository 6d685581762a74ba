package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateGuitarsTable, downCreateGuitarsTable)
}

func upCreateGuitarsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE guitars (
			guitar_id BIGSERIAL PRIMARY KEY,
			brand TEXT NOT NULL,
			model TEXT NOT NULL,
			year TEXT NOT NULL,
			serial_number TEXT,
			genre TEXT,
			body_type TEXT,
			photo_id BIGINT REFERENCES photos(photo_id),
			user_id BIGINT NOT NULL REFERENCES users(user_id),
			last_modified TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE INDEX idx_guitars_user_id ON guitars(user_id);
		CREATE INDEX idx_guitars_brand ON guitars(brand);
		CREATE INDEX idx_guitars_genre ON guitars(genre);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateGuitarsTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS guitars;`)
	return err
}
