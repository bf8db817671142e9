package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/nutriplan/backend/internal/domain"
)

const (
	defaultTokenTTL   = 72 * time.Hour
	defaultBcryptCost = 12
)

// AuthConfig holds configuration for the auth service
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthService registers users and issues/validates access tokens
type AuthService struct {
	users    domain.UserStore
	secret   []byte
	tokenTTL time.Duration
	cost     int
}

// NewAuthService creates the auth service with the given configuration
func NewAuthService(users domain.UserStore, config AuthConfig) *AuthService {
	tokenTTL := config.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	cost := config.BcryptCost
	if cost <= 0 {
		cost = defaultBcryptCost
	}
	return &AuthService{
		users:    users,
		secret:   []byte(config.JWTSecret),
		tokenTTL: tokenTTL,
		cost:     cost,
	}
}

// Register creates an account and returns it with a signed access token
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, string, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(ctx, email, string(hash))
	if err != nil {
		return nil, "", err
	}

	token, err := s.sign(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns a signed access token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	return s.sign(user)
}

// ParseToken validates an access token and returns the user id it carries
func (s *AuthService) ParseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.ErrInvalidCredentials
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, domain.ErrInvalidCredentials
	}
	return uint(sub), nil
}

func (s *AuthService) sign(user *domain.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   float64(user.ID),
		"email": user.Email,
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}
