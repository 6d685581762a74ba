package model

import "time"

type User struct {
	ID           int64     `db:"user_id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Identity is the resolved caller attached to an authenticated request.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username}
}
