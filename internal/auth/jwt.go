package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func NewAccessToken(secret, issuer string, ttl time.Duration, userID, role string) (string, error) {
	return newToken(secret, issuer, TokenTypeAccess, ttl, userID, role)
}

func NewRefreshToken(secret, issuer string, ttl time.Duration, userID, role string) (string, error) {
	return newToken(secret, issuer, TokenTypeRefresh, ttl, userID, role)
}

func newToken(secret, issuer, tokenType string, ttl time.Duration, userID, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates signature, expiry and issuer, and checks the
// token_type claim so access and refresh tokens cannot stand in for
// each other.
func ParseToken(secret, issuer, tokenType, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// IsExpired reports whether a parse failure was caused solely by the
// expiry clock, as opposed to a malformed or tampered token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

// RemainingLifetime returns how long the token is still valid for,
// clamped at zero.
func RemainingLifetime(claims *Claims, now time.Time) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	remaining := claims.ExpiresAt.Time.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
