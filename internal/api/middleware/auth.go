package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"
	"github.com/akhbar-news/backoffice/internal/core/service"
)

// BearerResolver validates an HS256 JWT from the Authorization header. A
// malformed or invalid token is treated as no identity. When sessions is set,
// the token's jti must still name a live session, so logout revokes it.
type BearerResolver struct {
	secret   []byte
	sessions ports.SessionStore
}

func NewBearerResolver(jwtSecret string, sessions ports.SessionStore) *BearerResolver {
	return &BearerResolver{secret: []byte(jwtSecret), sessions: sessions}
}

func (r *BearerResolver) Resolve(c echo.Context) (*ports.Identity, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return nil, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, nil
	}

	claims := &service.TokenClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return r.secret, nil
	})
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, nil
	}

	if r.sessions != nil {
		if claims.ID == "" {
			return nil, nil
		}
		if _, err := r.sessions.Get(c.Request().Context(), claims.ID); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("load token session: %w", err)
		}
	}

	return &ports.Identity{UserID: claims.Subject, Email: claims.Email, SessionID: claims.ID}, nil
}
