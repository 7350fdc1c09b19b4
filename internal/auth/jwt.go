package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OpsClaims are the claims carried by operator tokens guarding the direct
// assist API and the monitor websocket.
type OpsClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

const RoleOperator = "operator"

var ErrMissingSecret = errors.New("OPS_JWT_SECRET is not configured")

func secret() ([]byte, error) {
	s := os.Getenv("OPS_JWT_SECRET")
	if s == "" {
		return nil, ErrMissingSecret
	}
	return []byte(s), nil
}

// GenerateOperatorToken issues a 24h operator token. Used by the token
// issuing path, not by request handling.
func GenerateOperatorToken() (string, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}

	claims := &OpsClaims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken validates an operator token and returns its claims.
func ValidateToken(tokenString string) (*OpsClaims, error) {
	key, err := secret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &OpsClaims{}, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*OpsClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrInvalidKey
}
