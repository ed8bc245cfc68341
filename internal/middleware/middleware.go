package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"talehub/internal/config"
	handlers "talehub/internal/handler"
)

type Middleware func(http.Handler) http.Handler

// publicRoutes lists method+path prefixes reachable without a token.
// Reading the feed, stories and storyteller profiles is open to
// everyone; submission and moderation are not.
var publicRoutes = []struct {
	method string
	prefix string
}{
	{http.MethodPost, "/api/auth/register"},
	{http.MethodPost, "/api/auth/login"},
	{http.MethodPost, "/api/auth/refresh-token"},
	{http.MethodPost, "/api/auth/reset-password"},
	{http.MethodGet, "/health"},
	{http.MethodGet, "/api/feed"},
	{http.MethodGet, "/api/stories/"},
	{http.MethodPost, "/api/stories/"}, // only the /read sub-path, checked below
	{http.MethodGet, "/api/storytellers"},
	{http.MethodGet, "/api/localities"},
	{http.MethodGet, "/api/genres"},
}

func isPublic(r *http.Request) bool {
	for _, route := range publicRoutes {
		if r.Method != route.method {
			continue
		}
		if !strings.HasPrefix(r.URL.Path, route.prefix) {
			continue
		}
		// Anonymous POSTs under /api/stories/ are limited to read
		// tracking; everything else there needs a token.
		if route.method == http.MethodPost && route.prefix == "/api/stories/" && !strings.HasSuffix(r.URL.Path, "/read") {
			continue
		}
		return true
	}
	return false
}

// AuthMiddleware verifies the JWT token and adds the profile claims to
// the request context. Public routes pass through; when they carry a
// valid token anyway, the claims are still attached so handlers can
// personalize the response.
func AuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			public := isPublic(r)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				handlers.WriteError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				handlers.WriteError(w, "Invalid token format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(cfg.JWTSecretKey), nil
			})
			if err != nil || !token.Valid {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				handlers.WriteError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				handlers.WriteError(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			profileID, ok1 := claims["profileId"].(string)
			email, ok2 := claims["email"].(string)
			role, ok3 := claims["role"].(string)
			if !ok1 || !ok2 || !ok3 {
				handlers.WriteError(w, "Invalid token payload", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, "profileID", profileID)
			ctx = context.WithValue(ctx, "email", email)
			ctx = context.WithValue(ctx, "role", role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleMiddleware restricts a route to the listed role names.
func RoleMiddleware(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole, ok := r.Context().Value("role").(string)
			if !ok {
				handlers.WriteError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			allowed := false
			for _, role := range allowedRoles {
				if userRole == role {
					allowed = true
					break
				}
			}

			if !allowed {
				handlers.WriteError(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s from %s", r.Method, r.RequestURI, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
