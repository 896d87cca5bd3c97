package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/fitrackapp/fitrack/internal/auth"
	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
	"github.com/fitrackapp/fitrack/pkg"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddlewareHandler struct {
	verifier             TokenVerifier
	allowedPaths         map[string]bool
	allowedPathsPrefixes []string
}

func NewAuthMiddlewareHandler(verifier TokenVerifier) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		verifier: verifier,
		allowedPaths: map[string]bool{
			"/":                     true,
			"/version":              true,
			"/api/v1/health":        true,
			"/api/v1/auth/register": true,
			"/api/v1/auth/login":    true,
			"/api/v1/auth/logout":   true,
		},
		allowedPathsPrefixes: []string{},
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(path string) bool {
	if h.allowedPaths[path] {
		return true
	}
	for _, prefix := range h.allowedPathsPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// readToken returns the token from the Authorization header
// (Bearer scheme), falling back to the token cookie
func readToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.pathIsAlwaysAllowed(r.URL.Path) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := readToken(r)
			if token == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			claims, err := h.verifier.Verify(token)
			if err != nil {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			ctx = auth.ContextWithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
