package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"deedledger/internal/jwttoken"
)

// TokenValidator verifies an access token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// RevocationChecker reports whether a token JTI has been revoked (logout).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type contextKeyClaims struct{}

// ContextKeyClaims is exported for tests that need context.WithValue directly.
var ContextKeyClaims = contextKeyClaims{}

// GetClaims retrieves the verified token claims from the context.
func GetClaims(ctx context.Context) *jwttoken.Claims {
	claims, ok := ctx.Value(ContextKeyClaims).(*jwttoken.Claims)
	if !ok {
		return nil
	}
	return claims
}

// WithClaims injects claims into a context. Useful for handler tests that
// skip the middleware chain.
func WithClaims(ctx context.Context, claims *jwttoken.Claims) context.Context {
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + desc + `"}`))
}

// RequireAuth validates the bearer token, rejects revoked tokens, and stores
// the verified claims in the request context.
func RequireAuth(validator TokenValidator, revocation RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if revocation != nil && claims.ID != "" {
				revoked, err := revocation.IsRevoked(ctx, claims.ID)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.ID,
						"request_id", requestID,
					)
					writeUnauthorized(w, "Token has been revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}
