package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketdash/internal/middleware"
	"marketdash/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// ServiceInterface defines the contract for the user service.
type ServiceInterface interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
}

// Service implements the user service logic.
type Service struct {
	repo      RepositoryInterface
	jwtSecret string
	logger    zerolog.Logger
}

// NewService creates a new user service.
func NewService(repo RepositoryInterface, jwtSecret string, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("service", "users").Logger(),
	}
}

// Register creates an account and immediately logs it in. Admin accounts are
// provisioned out of band, never through this endpoint.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Register: hash: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	token, err := middleware.NewToken(s.jwtSecret, u.ID, u.Role, tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("service.Register: token: %w", err)
	}
	s.logger.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("user registered")
	return &models.AuthResponse{Token: token, User: u}, nil
}

// Login verifies credentials and mints a token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := middleware.NewToken(s.jwtSecret, u.ID, u.Role, tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("service.Login: token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: u}, nil
}

// GetProfile returns the caller's own user record.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.FindByID(ctx, userID)
}
