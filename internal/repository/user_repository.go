package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"guitar-service/internal/model"
)

var ErrDuplicate = errors.New("record already exists")

var (
	comparePassword = bcrypt.CompareHashAndPassword

	dummyHash = sync.OnceValue(func() []byte {
		hash, _ := bcrypt.GenerateFromPassword([]byte("guitar-service-unknown-user"), bcrypt.DefaultCost)
		return hash
	})
)

type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (*model.User, error)
	FindByCredentials(ctx context.Context, username, password string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, username, passwordHash string) (*model.User, error) {
	user := model.User{Username: username, PasswordHash: passwordHash}
	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING user_id, created_at`

	err := r.db.QueryRowxContext(ctx, query, username, passwordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, storageError(err)
	}

	return &user, nil
}

// FindByCredentials returns the user whose stored hash matches password. A
// wrong password is indistinguishable from an unknown username.
func (r *postgresUserRepository) FindByCredentials(ctx context.Context, username, password string) (*model.User, error) {
	user, err := r.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Unknown usernames pay for a comparison too, keeping response time flat.
			_ = comparePassword(dummyHash(), []byte(password))
		}
		return nil, err
	}

	if err := comparePassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrNotFound
	}

	return user, nil
}

func (r *postgresUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	query := `SELECT user_id, username, password_hash, created_at FROM users WHERE username = $1`

	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, storageError(err)
	}

	return &user, nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	query := `SELECT user_id, username, created_at FROM users WHERE user_id = $1`

	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, storageError(err)
	}

	return &user, nil
}
