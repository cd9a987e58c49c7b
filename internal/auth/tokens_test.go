package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/zeroscroll/zeroscroll/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		EmailTokenSecret:   "email-secret",
		ResetTokenSecret:   "reset-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		EmailTokenTTL:      10 * time.Minute,
		ResetTokenTTL:      10 * time.Minute,
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService(testConfig())

	for _, class := range []TokenClass{TokenAccess, TokenRefresh, TokenEmail, TokenReset} {
		t.Run(string(class), func(t *testing.T) {
			signed, err := svc.Sign(class, 42)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}

			userID, err := svc.Verify(class, signed)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if userID != 42 {
				t.Errorf("Verify returned user %d, want 42", userID)
			}
		})
	}
}

func TestVerifyRejectsWrongClass(t *testing.T) {
	svc := NewTokenService(testConfig())

	// An access token must not pass as a refresh token even though both
	// are HS256 JWTs with the same claim shape.
	signed, err := svc.Sign(TokenAccess, 7)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, err = svc.Verify(TokenRefresh, signed)
	if err == nil {
		t.Fatal("expected cross-class verification to fail")
	}

	var tokenErr *TokenError
	if !errors.As(err, &tokenErr) {
		t.Fatalf("expected *TokenError, got %T", err)
	}
	if tokenErr.Class != TokenRefresh {
		t.Errorf("error class = %q, want %q", tokenErr.Class, TokenRefresh)
	}
	if tokenErr.Error() != "Invalid or expired refresh token" {
		t.Errorf("unexpected message %q", tokenErr.Error())
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	svc := NewTokenService(cfg)

	signed, err := svc.Sign(TokenAccess, 7)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := svc.Verify(TokenAccess, signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewTokenService(testConfig())

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Verify(TokenAccess, token); err == nil {
			t.Errorf("expected %q to be rejected", token)
		}
	}
}
