package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

type contextKey int

const authoritiesKey contextKey = iota

// FromContext returns the authorities attached by the middleware, or an
// empty set for unauthenticated requests.
func FromContext(ctx context.Context) Authorities {
	if a, ok := ctx.Value(authoritiesKey).(Authorities); ok {
		return a
	}
	return Authorities{}
}

func withAuthorities(ctx context.Context, a Authorities) context.Context {
	return context.WithValue(ctx, authoritiesKey, a)
}

// Middleware authenticates bearer tokens. Signature and expiry checks are
// delegated to the JWT library against the issuer's public key; this layer
// only turns verified claims into authorities on the request context.
type Middleware struct {
	publicKey *rsa.PublicKey
	logger    *logrus.Logger
}

func NewMiddleware(publicKey *rsa.PublicKey, logger *logrus.Logger) *Middleware {
	return &Middleware{publicKey: publicKey, logger: logger}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondUnauthorized(w, r, "missing Authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondUnauthorized(w, r, "invalid Authorization header format")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return m.publicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		if err != nil || !token.Valid {
			m.logger.WithError(err).WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			}).Warn("Token validation failed")
			m.respondUnauthorized(w, r, "invalid token")
			return
		}

		authorities := FromClaims(claims)
		m.logger.WithFields(logrus.Fields{
			"path":        r.URL.Path,
			"authorities": authorities.List(),
		}).Debug("Authentication successful")

		next.ServeHTTP(w, r.WithContext(withAuthorities(r.Context(), authorities)))
	})
}

func (m *Middleware) respondUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
