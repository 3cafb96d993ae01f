package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/auth"
	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/repository"
)

const minPasswordLength = 8

// Register creates a patient or doctor account.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrInvalidInput)
	}
	role := req.Role
	if role == "" {
		role = domain.UserRolePatient
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Email: email, FullName: name, Role: role, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error) {
	if s.tokens == nil {
		return nil, auth.ErrNoSecret
	}
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		return nil, ErrUnauthenticated
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if s.tokens == nil {
		return nil, ErrUnauthenticated
	}
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// ListDoctors returns the doctor directory.
func (s *Service) ListDoctors(ctx context.Context) ([]domain.User, error) {
	doctors, err := s.store.ListUsersByRole(ctx, domain.UserRoleDoctor)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
