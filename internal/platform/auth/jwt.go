// Package auth implements the JWT validator consumed by the auth middleware.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"recproxy/internal/platform/middleware"
)

// Validator validates HMAC-signed bearer tokens issued by the research
// platform's login service.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	return &middleware.JWTClaims{UserID: sub}, nil
}
