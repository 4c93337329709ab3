package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Auth authenticates requests with an HMAC-signed bearer token.
// Claims: sub (user id), role, verified (optional bool).
type Auth struct {
	secret []byte
	logger logx.Logger
}

// NewAuth creates the auth middleware.
func NewAuth(secret string, logger logx.Logger) *Auth {
	return &Auth{secret: []byte(secret), logger: logger}
}

// ParseToken validates a raw token and extracts the caller's identity.
// Shared by the REST middleware and the websocket handshake.
func (a *Auth) ParseToken(raw string) (domain.AuthIdentity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return domain.AuthIdentity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.AuthIdentity{}, errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return domain.AuthIdentity{}, errors.New("token missing sub claim")
	}
	role, _ := claims["role"].(string)
	if !domain.Role(role).Valid() {
		return domain.AuthIdentity{}, fmt.Errorf("unknown role %q", role)
	}
	verified, _ := claims["verified"].(bool)

	return domain.AuthIdentity{ID: sub, Role: domain.Role(role), Verified: verified}, nil
}

// Wrap rejects requests without a valid bearer token and stores the
// identity in the request context.
func (a *Auth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			a.unauthorized(w, "missing bearer token")
			return
		}

		identity, err := a.ParseToken(raw)
		if err != nil {
			a.logger.Debug("auth rejected", logx.Err(err))
			a.unauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireRole returns middleware allowing only the listed roles. Must run
// after Wrap.
func (a *Auth) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				a.unauthorized(w, "missing bearer token")
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
		})
	}
}

// WithIdentity stores an authenticated identity in the context.
func WithIdentity(ctx context.Context, identity domain.AuthIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the authenticated identity stored by Wrap.
func IdentityFromContext(ctx context.Context) (domain.AuthIdentity, bool) {
	identity, ok := ctx.Value(identityContextKey).(domain.AuthIdentity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		// The browser websocket API cannot set headers, so the
		// handshake may carry the token as a query parameter.
		return r.URL.Query().Get("token")
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func (a *Auth) unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
