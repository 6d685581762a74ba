package service

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrForbidden           = errors.New("caller does not own this collection")
	ErrNotFoundOrForbidden = errors.New("guitar not found or not owned by caller")
	ErrPhotoRequired       = errors.New("photo is required")
	ErrInvalidPhoto        = errors.New("invalid photo")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrPhotoNotFound       = errors.New("photo not found")
)
