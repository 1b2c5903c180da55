package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/wardenhq/warden/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService authenticates the operator account from configuration and
// issues the bearer tokens guarding the control surface. There is no user
// table: Warden has a single operator identity whose bcrypt hash comes from
// the environment.
type AuthService struct {
	cfg config.Config
}

// NewAuthService returns an AuthService over the loaded configuration.
func NewAuthService(cfg config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// Login verifies the operator credentials and returns a signed token valid
// for 24 hours.
func (s *AuthService) Login(username, password string) (string, error) {
	if s.cfg.AdminPasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if username != s.cfg.AdminUser {
		// Burn a bcrypt comparison anyway so the response time does not
		// reveal whether the username exists.
		_ = bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		Issuer:    "warden",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken checks a bearer token and returns its subject.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
