package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

type contextKey string

const claimsContextKey contextKey = "claims"

const (
	jwtClaimSubject = "sub"
	jwtClaimRole    = "role"

	RoleAdmin = "admin"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid or expired token")
)

// RequireAdmin пропускает только запросы с HS256 JWT, где role = admin.
// Пустой secret отключает проверку.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	if secret == "" {
		log.Warn().Msg("JWT_SECRET_KEY is empty, admin routes are not protected")
		return func(next http.Handler) http.Handler { return next }
	}
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseBearer(r, key)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("admin authentication failed")
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			if role, _ := claims[jwtClaimRole].(string); role != RoleAdmin {
				writeError(w, http.StatusForbidden, "admin role required")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseBearer(r *http.Request, key []byte) (jwt.MapClaims, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, errMissingToken
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	return claims, nil
}
