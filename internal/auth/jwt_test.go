package auth

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, "user-1", "parent")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	claims, err := ParseToken("secret", "issuer", TokenTypeAccess, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if claims.UserID != "user-1" || claims.Role != "parent" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti to be assigned")
	}
}

func TestRefreshTokensGetUniqueIDs(t *testing.T) {
	first, err := NewRefreshToken("secret", "issuer", time.Hour, "user-1", "parent")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	second, err := NewRefreshToken("secret", "issuer", time.Hour, "user-1", "parent")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	firstClaims, err := ParseToken("secret", "issuer", TokenTypeRefresh, first)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	secondClaims, err := ParseToken("secret", "issuer", TokenTypeRefresh, second)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if firstClaims.ID == secondClaims.ID {
		t.Fatalf("expected distinct jti per issued token")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, "user-1", "parent")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("other-secret", "issuer", TokenTypeAccess, token); err == nil {
		t.Fatalf("expected signature rejection")
	}
}

func TestParseTokenRejectsWrongIssuer(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, "user-1", "parent")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "someone-else", TokenTypeAccess, token); err == nil {
		t.Fatalf("expected issuer rejection")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", -time.Minute, "user-1", "parent")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	_, err = ParseToken("secret", "issuer", TokenTypeAccess, token)
	if err == nil {
		t.Fatalf("expected expiry rejection")
	}
	if !IsExpired(err) {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestParseTokenRejectsTypeConfusion(t *testing.T) {
	refresh, err := NewRefreshToken("secret", "issuer", time.Hour, "user-1", "parent")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "issuer", TokenTypeAccess, refresh); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}

	access, err := NewAccessToken("secret", "issuer", time.Hour, "user-1", "parent")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "issuer", TokenTypeRefresh, access); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestRemainingLifetime(t *testing.T) {
	token, err := NewRefreshToken("secret", "issuer", time.Hour, "user-1", "parent")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	claims, err := ParseToken("secret", "issuer", TokenTypeRefresh, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	remaining := RemainingLifetime(claims, time.Now().UTC())
	if remaining <= 0 || remaining > time.Hour {
		t.Fatalf("unexpected remaining lifetime %s", remaining)
	}
	if RemainingLifetime(claims, time.Now().UTC().Add(2*time.Hour)) != 0 {
		t.Fatalf("expected zero lifetime after expiry")
	}
}
