package services

import (
	"errors"
	"time"

	"servio_backend/internal/auth"
	"servio_backend/internal/models"
	"servio_backend/internal/repositories"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService issues the tokens the websocket handshake verifies.
type AuthService interface {
	Login(email, password string) (string, *models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
	secret   string
	ttl      time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, secret string, ttl time.Duration) AuthService {
	return &authService{userRepo: userRepo, secret: secret, ttl: ttl}
}

func (s *authService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.secret, user, s.ttl)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
