package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"customer-health/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const subjectKey contextKey = "auth.subject"

var (
	errMissingHeader = errors.New("missing Authorization header")
	errBadScheme     = errors.New("authorization header is not a bearer token")
)

// SubjectFromContext returns the token subject stored by AuthMiddleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey).(string)
	return sub, ok
}

func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	logger = logger.With("component", "AuthMiddleware")
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	secret := []byte(cfg.JWTSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := authenticate(r, parser, secret)
			if err != nil {
				logger.WarnContext(r.Context(), "Rejected unauthenticated request", slog.String("path", r.URL.Path), slog.Any("error", err))
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized.")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey, subject)))
		})
	}
}

func authenticate(r *http.Request, parser *jwt.Parser, secret []byte) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingHeader
	}

	scheme, tokenString, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenString) == "" {
		return "", errBadScheme
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return "", err
	}
	return claims.Subject, nil
}
