package user

import (
	"context"
	"strings"

	"watchshop-be/internal/logger"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID int64, email, role string) (string, error)
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
}

func NewService(repo Repository, tokens TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		Email:        email,
		PasswordHash: hashed,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         RoleUser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		log.Warn("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	token, err := s.tokens.Generate(u.ID, u.Email, string(u.Role))
	if err != nil {
		log.Error("failed to generate jwt", zap.Int64("user_id", u.ID), zap.Error(err))
		return nil, err
	}

	log.Info("register service completed", zap.Int64("user_id", u.ID))
	return &AuthResult{Token: token, User: u}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "Login"))

	u, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrUserNotFound) {
		log.Debug("email not found")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		log.Debug("password not match", zap.Int64("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(u.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}
