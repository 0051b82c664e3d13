package handler

import (
	"errors"
	"fmt"
	"time"

	"marketplace/internal/service"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is issued by the identity service; this service only verifies it.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
}

func BuildToken(userID int64, role, secret string, lifetime time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
		},
		UserID: userID,
		Role:   role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ErrNoSecret is returned when verification is attempted without a signing key.
var ErrNoSecret = errors.New("jwt secret is not configured")

func ParseToken(tokenString, secret string) (service.Actor, error) {
	if secret == "" {
		return service.Actor{}, ErrNoSecret
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return service.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return service.Actor{}, fmt.Errorf("token is not valid")
	}

	switch claims.Role {
	case service.RoleBuyer, service.RoleSeller, service.RoleAdmin:
	default:
		return service.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	if claims.UserID <= 0 {
		return service.Actor{}, fmt.Errorf("token has no user")
	}

	return service.Actor{UserID: claims.UserID, Role: claims.Role}, nil
}
