package services

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/artcatalog/backend/internal/config"
	"github.com/artcatalog/backend/pkg/crypto"
	jwtpkg "github.com/artcatalog/backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// AuthResult is the outcome of checking a bearer token.
type AuthResult struct {
	Valid  bool
	Claims *jwtpkg.Claims
}

// AuthService signs in the single operator account configured by
// API_USERNAME / API_PASSWORD_HASH and checks issued tokens.
type AuthService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	if cfg.APIUsername == "" || cfg.APIPasswordHash == "" {
		log.Println("WARN: API_USERNAME or API_PASSWORD_HASH not set, operator login disabled")
	}
	return &AuthService{cfg: cfg}
}

// Login returns an access token for the operator
func (s *AuthService) Login(username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if s.cfg.APIUsername == "" || s.cfg.APIPasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.APIUsername)) != 1 {
		return "", ErrInvalidCredentials
	}
	if !crypto.CheckPassword(password, s.cfg.APIPasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := jwtpkg.GenerateToken(username, s.cfg.JWTSecret, s.cfg.JWTTokenDuration)
	if err != nil {
		return "", err
	}
	log.Printf("Operator %s signed in", username)
	return token, nil
}

// Authenticate validates a token with or without its "Bearer " prefix. It never fails;
// anything unusable yields Valid=false.
func (s *AuthService) Authenticate(token string) AuthResult {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return AuthResult{}
	}

	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return AuthResult{}
	}
	return AuthResult{Valid: true, Claims: claims}
}

// HashPassword bcrypt-hashes password with cost saltCount (0 means the configured default).
func (s *AuthService) HashPassword(password string, saltCount int) (string, error) {
	if password == "" {
		return "", invalid("password", "is required")
	}
	if saltCount == 0 {
		saltCount = s.cfg.BcryptCost
	}
	if saltCount < bcrypt.MinCost || saltCount > bcrypt.MaxCost {
		return "", invalid("saltCount", "must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return crypto.HashPassword(password, saltCount)
}
