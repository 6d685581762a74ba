package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"guitar-service/internal/jwt"
	"guitar-service/internal/model"
	"guitar-service/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, string, error)
	ResolveToken(ctx context.Context, token string) (model.Identity, error)
}

type authService struct {
	userRepo repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, secret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo: userRepo,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, username, password string) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, username, string(hashedPassword))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return user, nil
}

// Login checks the credentials and issues a signed token for the user.
func (s *authService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	token, err := jwt.GenerateToken(user.Identity(), s.secret, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	return user, token, nil
}

// ResolveToken maps a bearer token to the identity of an existing user. Any
// token problem, and a user that no longer exists, is ErrUnauthenticated.
func (s *authService) ResolveToken(ctx context.Context, token string) (model.Identity, error) {
	claims, err := jwt.ValidateToken(token, s.secret)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	userID, err := claims.UserID()
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Identity{}, ErrUnauthenticated
		}
		return model.Identity{}, err
	}

	return user.Identity(), nil
}
