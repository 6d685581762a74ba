package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateGetGuitarsByGenre, downCreateGetGuitarsByGenre)
}

func upCreateGetGuitarsByGenre(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE OR REPLACE FUNCTION get_guitars_by_genre(p_genre TEXT)
		RETURNS TABLE (
			guitar_id BIGINT,
			brand TEXT,
			model TEXT,
			year TEXT,
			serial_number TEXT,
			genre TEXT,
			body_type TEXT,
			last_modified TIMESTAMP WITH TIME ZONE,
			photo_id BIGINT,
			caption TEXT,
			user_id BIGINT,
			username TEXT
		)
		LANGUAGE sql STABLE
		AS $$
			SELECT
				g.guitar_id, g.brand, g.model, g.year, g.serial_number, g.genre, g.body_type, g.last_modified,
				p.photo_id, p.caption, u.user_id, u.username
			FROM guitars g
			JOIN users u ON g.user_id = u.user_id
			LEFT JOIN photos p ON g.photo_id = p.photo_id
			WHERE g.genre = p_genre
			ORDER BY g.guitar_id DESC
		$$;
	`)
	return err
}

func downCreateGetGuitarsByGenre(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP FUNCTION IF EXISTS get_guitars_by_genre(TEXT);`)
	return err
}
