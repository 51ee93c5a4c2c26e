package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/citybeat-app/server/internal/auth"
	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/citybeat-app/server/internal/domain/ids"
	"github.com/citybeat-app/server/internal/sanitize"
	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Account struct {
	ID           string
	ULID         string
	Name         string
	Email        string
	PasswordHash string
	Admin        bool
	AvatarPath   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UpdateParams struct {
	Name       *string
	AvatarPath *string
}

type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByULID(ctx context.Context, ulid string) (*Account, error)
	Update(ctx context.Context, ulid string, params UpdateParams) (*Account, error)
	AddFavorite(ctx context.Context, accountULID, venueULID string) error
	RemoveFavorite(ctx context.Context, accountULID, venueULID string) error
	ListFavorites(ctx context.Context, accountULID string) ([]catalog.Venue, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type registerInput struct {
	Name     string `validate:"required,min=1,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type Service struct {
	repo Repository
	jwt  *auth.JWTManager
}

func NewService(repo Repository, jwt *auth.JWTManager) *Service {
	return &Service{repo: repo, jwt: jwt}
}

// Register creates an account and returns it with a signed bearer token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Account, string, error) {
	name = sanitize.Text(name)
	email = normalizeEmail(email)
	if err := validate.Struct(registerInput{Name: name, Email: email, Password: password}); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			return nil, "", catalog.FieldError{
				Field:   strings.ToLower(invalid[0].Field()),
				Message: fmt.Sprintf("failed %q validation", invalid[0].Tag()),
			}
		}
		return nil, "", catalog.FieldError{Message: err.Error()}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", catalog.FieldError{Field: "password", Message: "must be at least 8 characters"}
	}

	account := &Account{
		ULID:         ids.MustNewULID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, "", err
	}

	token, err := s.jwt.Generate(account.ULID, account.Admin)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return account, token, nil
}

// Login verifies credentials and returns the account with a signed token.
// Unknown email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, string, error) {
	account, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.Generate(account.ULID, account.Admin)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return account, token, nil
}

func (s *Service) Get(ctx context.Context, ulid string) (*Account, error) {
	return s.repo.GetByULID(ctx, ulid)
}

func (s *Service) UpdateProfile(ctx context.Context, ulid string, params UpdateParams) (*Account, error) {
	if params.Name != nil {
		name := sanitize.Text(*params.Name)
		if name == "" {
			return nil, catalog.FieldError{Field: "name", Message: "must not be empty"}
		}
		params.Name = &name
	}
	return s.repo.Update(ctx, ulid, params)
}

func (s *Service) AddFavorite(ctx context.Context, accountULID, venueULID string) error {
	return s.repo.AddFavorite(ctx, accountULID, venueULID)
}

func (s *Service) RemoveFavorite(ctx context.Context, accountULID, venueULID string) error {
	return s.repo.RemoveFavorite(ctx, accountULID, venueULID)
}

func (s *Service) ListFavorites(ctx context.Context, accountULID string) ([]catalog.Venue, error) {
	return s.repo.ListFavorites(ctx, accountULID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
