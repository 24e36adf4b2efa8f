package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/hired/internal/config"
	"github.com/jonathan/hired/internal/store"
	"github.com/jonathan/hired/internal/types"
)

// UserStore is the part of the store the user service needs.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*types.UserRecord, error)
	GetUser(ctx context.Context, id uuid.UUID) (*types.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error)
}

// UserService provides business logic for user authentication operations
type UserService struct {
	store          UserStore
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(s UserStore, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		store:          s,
		passwordConfig: passwordConfig,
	}
}

// publicUser strips the password hash
func publicUser(rec *types.UserRecord) *types.User {
	if rec == nil {
		return nil
	}
	u := rec.User
	return &u
}

// Register creates a new user with password authentication
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	rec, err := s.store.CreateUser(ctx, req.Name, req.Email, passwordHash)
	if errors.Is(err, store.ErrEmailTaken) {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return publicUser(rec), nil
}

// Login authenticates a user and returns user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	rec, err := s.store.GetUserByEmail(ctx, req.Email)
	// Unknown email and wrong password look the same to the caller
	if errors.Is(err, store.ErrNotFound) {
		return nil, &ErrInvalidCredentials{}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !s.passwordConfig.VerifyPassword(req.Password, rec.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return publicUser(rec), nil
}

// Get returns the account for id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	rec, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &ErrUserNotFound{UserID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return publicUser(rec), nil
}
