package service

import (
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/repository"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// AuthService authenticates operator accounts and issues JWTs.
type AuthService struct {
	repo *repository.AdminUserRepository
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo *repository.AdminUserRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(username, password string) (string, error) {
	user, err := s.repo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) {
			return "", utils.ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", utils.ErrInvalidCredentials
	}
	return utils.GenerateJWT(user.ID, user.Username)
}

// EnsureAdmin seeds (or refreshes) the configured operator account at boot.
func (s *AuthService) EnsureAdmin(username, password string) error {
	if username == "" || password == "" {
		log.Warn().Msg("admin credentials not configured, skipping seed")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.Upsert(username, string(hash)); err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("admin account seeded")
	return nil
}
