package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token scopes. A customer token must never open an admin route and vice versa.
const (
	ScopeCustomer = "customer"
	ScopeAdmin    = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

func secretKey() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	// Development fallback only; main logs a warning when JWT_SECRET is unset.
	return []byte("lunaria-dev-secret")
}

// GenerateToken creates a signed JWT for the given subject ID and scope.
func GenerateToken(subjectID int64, scope string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   subjectID,
		"scope": scope,
		"exp":   time.Now().Add(72 * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses a token string and returns its subject ID and scope.
func ValidateToken(tokenString string) (int64, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	subFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	scope, ok := claims["scope"].(string)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	return int64(subFloat), scope, nil
}
