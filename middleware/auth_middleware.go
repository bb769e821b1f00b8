package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/file-upload-api/utils"
	"go.uber.org/zap"
)

const (
	bearerPrefix = "Bearer "

	// MissingAuthHeaderDetail is returned when no usable bearer credential is sent
	MissingAuthHeaderDetail = "Missing or invalid Authorization header"
)

// TokenVerifier defines the interface for verifying ID tokens
type TokenVerifier interface {
	// VerifyToken verifies an ID token and returns its claims
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// RequireAuth is a middleware that requires a valid bearer ID token.
// Tokens are verified on every request.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token, ok := extractBearerToken(r)
		if !ok {
			m.logger.Warn("missing or malformed authorization header",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, MissingAuthHeaderDetail)
			return
		}

		claims, err := m.verifier.VerifyToken(ctx, token)
		if err != nil {
			m.logger.Warn("token verification failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid token: "+err.Error())
			return
		}

		ctx = WithClaims(ctx, claims)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("uid", claims.UID),
			zap.String("email", claims.Email))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken extracts the credential following an exact "Bearer "
// prefix in the Authorization header.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(authHeader, bearerPrefix)
	if !found {
		return "", false
	}
	return token, true
}
