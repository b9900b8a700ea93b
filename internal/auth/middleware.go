package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gorm.io/gorm"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// AuthContextKey is the key for storing AuthContext in request context
	AuthContextKey ContextKey = "authContext"
)

// Middleware creates an HTTP middleware that extracts and injects
// authentication context. It:
// 1. Extracts the Authorization header
// 2. Parses the token to get the company ID
// 3. Looks up the company context from the database
// 4. Injects the company context into the request
//
// If any step fails (missing token, invalid token), the request proceeds
// without auth context. Handlers should check for context availability.
// This allows public, protected and optional-auth endpoints to share one
// middleware stack.
func Middleware(authService *AuthService, tokenExtractor *TokenExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			// If no Authorization header, continue without auth context
			if authHeader == "" {
				slog.Debug("no authorization header provided")
				next.ServeHTTP(w, r)
				return
			}

			companyID, err := tokenExtractor.ExtractCompanyIDFromHeader(authHeader)
			if err != nil {
				slog.Warn("failed to extract company ID from token",
					"error", err,
					"auth_header_length", len(authHeader),
				)
				next.ServeHTTP(w, r)
				return
			}

			companyCtx, err := authService.GetCompanyContext(companyID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Company doesn't have context yet - create empty context
					slog.Info("company context not found, initializing empty context",
						"company_id", companyID,
					)
					companyCtx = &CompanyContext{
						CompanyID:      companyID,
						CompanyContext: json.RawMessage(`{}`),
					}
				} else {
					// Database error - log and continue without auth context
					slog.Warn("failed to get company context from database",
						"company_id", companyID,
						"error", err,
					)
					next.ServeHTTP(w, r)
					return
				}
			}

			authCtx := &AuthContext{
				CompanyContext: companyCtx,
			}

			ctx := context.WithValue(r.Context(), AuthContextKey, authCtx)
			r = r.WithContext(ctx)

			slog.Debug("auth context injected successfully",
				"company_id", companyID,
			)

			next.ServeHTTP(w, r)
		})
	}
}

// GetAuthContext extracts the AuthContext from a request context.
// Returns nil if no auth context is available (request had no valid token).
func GetAuthContext(ctx context.Context) *AuthContext {
	authCtx, ok := ctx.Value(AuthContextKey).(*AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// RequireAuth returns a middleware that requires authentication.
// If no auth context is found, returns 401 Unauthorized.
// This middleware should be applied to protected endpoints.
func RequireAuth(authService *AuthService, tokenExtractor *TokenExtractor) func(http.Handler) http.Handler {
	// Create the auth middleware once, not on every request
	authMiddleware := Middleware(authService, tokenExtractor)

	return func(next http.Handler) http.Handler {
		return authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r.Context())
			if authCtx == nil {
				slog.Warn("authentication required but not provided",
					"method", r.Method,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"authentication required"}`))
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}
