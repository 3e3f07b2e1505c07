// Package middleware holds the HTTP middleware chain: bearer-token
// authentication, request id and request time stamping, and caller-platform
// labeling.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"grievance/internal/complaint/models"
)

type callerKey struct{}

// Claims is the token payload issued by the identity gateway.
type Claims struct {
	jwt.RegisteredClaims
	UserType     string   `json:"userType"`
	Name         string   `json:"name"`
	MobileNumber string   `json:"mobileNumber"`
	TenantID     string   `json:"tenantId"`
	Roles        []string `json:"roles"`
}

// CallerFrom retrieves the authenticated caller from the context. The zero
// Caller means the request never passed Authenticate.
func CallerFrom(ctx context.Context) models.Caller {
	if caller, ok := ctx.Value(callerKey{}).(models.Caller); ok {
		return caller
	}
	return models.Caller{}
}

// WithCaller injects a caller into the context. Exposed for handler tests.
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// Authenticate verifies the bearer token and stores the caller it describes
// in the request context. Requests without a valid token are rejected.
func Authenticate(signingKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return signingKey, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
			if err != nil || !token.Valid {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			caller := models.Caller{
				ID:           claims.Subject,
				Type:         models.CallerType(claims.UserType),
				Name:         claims.Name,
				MobileNumber: claims.MobileNumber,
				TenantID:     claims.TenantID,
				Roles:        claims.Roles,
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}
