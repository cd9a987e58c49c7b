package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zeroscroll/zeroscroll/internal/config"
)

// TokenClass identifies which of the four token kinds a signed JWT is.
// Each class has its own secret, so a token of one class never verifies
// as another.
type TokenClass string

const (
	TokenAccess  TokenClass = "access"
	TokenRefresh TokenClass = "refresh"
	TokenEmail   TokenClass = "email"
	TokenReset   TokenClass = "reset"
)

// TokenError is the single failure shape token verification produces.
// Callers branch on Class; the message deliberately does not leak
// whether the token was malformed, forged or merely expired.
type TokenError struct {
	Class TokenClass
}

func (e *TokenError) Error() string {
	switch e.Class {
	case TokenRefresh:
		return "Invalid or expired refresh token"
	case TokenEmail:
		return "Invalid or expired email verification token"
	case TokenReset:
		return "Invalid or expired reset token"
	default:
		return "Invalid or expired access token"
	}
}

// TokenService signs and verifies the four token classes. Expiries and
// secrets come from Config, built once at process start.
type TokenService struct {
	secrets map[TokenClass][]byte
	ttls    map[TokenClass]time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secrets: map[TokenClass][]byte{
			TokenAccess:  []byte(cfg.AccessTokenSecret),
			TokenRefresh: []byte(cfg.RefreshTokenSecret),
			TokenEmail:   []byte(cfg.EmailTokenSecret),
			TokenReset:   []byte(cfg.ResetTokenSecret),
		},
		ttls: map[TokenClass]time.Duration{
			TokenAccess:  cfg.AccessTokenTTL,
			TokenRefresh: cfg.RefreshTokenTTL,
			TokenEmail:   cfg.EmailTokenTTL,
			TokenReset:   cfg.ResetTokenTTL,
		},
	}
}

// Sign issues a token of the given class for userID.
func (s *TokenService) Sign(class TokenClass, userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.ttls[class]).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secrets[class])
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", class, err)
	}

	return signed, nil
}

// Verify checks a token against the given class's secret and returns
// the user ID it was issued for. Any failure collapses to a *TokenError
// for that class.
func (s *TokenService) Verify(class TokenClass, tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secrets[class], nil
	})

	if err != nil || !token.Valid {
		return 0, &TokenError{Class: class}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, &TokenError{Class: class}
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, &TokenError{Class: class}
	}

	return uint(userIDFloat), nil
}
