package service

import (
	"context"
	"errors"

	"payflow/config"
	"payflow/internal/apperr"
	"payflow/internal/auth"
	"payflow/internal/models"
	"payflow/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCreds = apperr.UnauthorizedErr("Invalid API credentials")

type AuthService struct {
	cfg          *config.Config
	merchantRepo *repository.MerchantRepository
}

func NewAuthService(cfg *config.Config, merchantRepo *repository.MerchantRepository) *AuthService {
	return &AuthService{cfg: cfg, merchantRepo: merchantRepo}
}

// Authenticate resolves the merchant owning an API key/secret pair.
func (s *AuthService) Authenticate(ctx context.Context, apiKey, apiSecret string) (*models.Merchant, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrInvalidCreds
	}
	m, err := s.merchantRepo.GetByAPIKey(ctx, apiKey)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCreds
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(m.APISecretHash), []byte(apiSecret)) != nil {
		return nil, ErrInvalidCreds
	}
	return m, nil
}

// Login checks the dashboard credentials (email + API secret) and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, apiSecret string) (*models.Merchant, string, error) {
	m, err := s.merchantRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCreds
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(m.APISecretHash), []byte(apiSecret)) != nil {
		return nil, "", ErrInvalidCreds
	}
	token, err := auth.GenerateAccessToken(&s.cfg.JWT, m.ID, m.Email)
	if err != nil {
		return nil, "", err
	}
	return m, token, nil
}

// MerchantFromToken resolves a dashboard session token.
func (s *AuthService) MerchantFromToken(ctx context.Context, token string) (*models.Merchant, error) {
	claims, err := auth.ParseAccessToken(&s.cfg.JWT, token)
	if err != nil {
		return nil, apperr.UnauthorizedErr("Invalid or expired token")
	}
	m, err := s.merchantRepo.GetByID(ctx, claims.MerchantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.UnauthorizedErr("Invalid or expired token")
	}
	return m, err
}
