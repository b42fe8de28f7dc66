package testbackend

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT payload the fake backend issues.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// tokenIssuer handles JWT creation and validation.
type tokenIssuer struct {
	secret    []byte
	expiresIn time.Duration
}

func newTokenIssuer(secret string, expiresIn time.Duration) *tokenIssuer {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return &tokenIssuer{secret: []byte(secret), expiresIn: expiresIn}
}

func (t *tokenIssuer) issue(username string) (string, error) {
	if username == "" {
		return "", errors.New("token: username is required")
	}

	now := time.Now().UTC()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *tokenIssuer) validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("token: unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("token: invalid claims")
}
