package service

import (
	"context"
	"errors"
	"strings"

	dom "github.com/khatriaman123/Todo/internal/domain"
	"github.com/khatriaman123/Todo/internal/repo"
	"github.com/khatriaman123/Todo/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnknownEmail and ErrWrongPassword carry the same text on purpose:
	// login failures must not reveal whether the email exists.
	ErrUnknownEmail  = errors.New("invalid credentials")
	ErrWrongPassword = errors.New("invalid credentials")

	ErrMissingFields = errors.New("all fields are required")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUserNotFound  = errors.New("user not found")
	ErrSamePassword  = errors.New("new password must be different from the current password")
)

// UserService handles registration, login and password changes.
type UserService struct {
	repo       repo.UserRepo
	bcryptCost int
}

// NewUserService returns a new UserService. cost <= 0 falls back to
// bcrypt.DefaultCost.
func NewUserService(repo repo.UserRepo, cost int) *UserService {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, bcryptCost: cost}
}

// Register creates a new user with a hashed password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (dom.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return dom.User{}, ErrMissingFields
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return dom.User{}, err
	}
	u, err := s.repo.Create(ctx, name, email, string(hash))
	if err != nil {
		if utils.IsPGUniqueViolation(err) {
			return dom.User{}, ErrEmailTaken
		}
		return dom.User{}, err
	}
	return u, nil
}

// Login checks email and password; returns the user if valid.
func (s *UserService) Login(ctx context.Context, email, password string) (dom.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, ErrUnknownEmail
		}
		return dom.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return dom.User{}, ErrWrongPassword
	}
	return u, nil
}

// GetByID returns a user by primary key.
func (s *UserService) GetByID(ctx context.Context, id int64) (dom.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, ErrUserNotFound
		}
		return dom.User{}, err
	}
	return u, nil
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]dom.User, error) {
	return s.repo.List(ctx)
}

// ChangePassword verifies the current password and replaces the stored hash.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}
	if newPassword == currentPassword {
		return ErrSamePassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}
