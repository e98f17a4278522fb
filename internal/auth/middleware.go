package auth

import (
	"net/http"
	"strings"

	"parley/infrastructure"
	"parley/internal/user"
	"parley/pkg/jwt"
)

// Middleware resolves the bearer token into an ACTIVE user and puts it
// in the request context. Refresh tokens are not accepted here.
type Middleware struct {
	jwt   *jwt.JWT
	users user.Repository
}

func NewMiddleware(j *jwt.JWT, users user.Repository) *Middleware {
	return &Middleware{jwt: j, users: users}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "missing bearer token")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}
		if claims.Refresh {
			unauthorized(w, "refresh token cannot be used for access")
			return
		}

		u, err := m.users.ByID(r.Context(), claims.UserID)
		if err != nil {
			unauthorized(w, "unknown user")
			return
		}
		if u.Status != user.StatusActive {
			unauthorized(w, "account is deactivated")
			return
		}

		ctx := user.WithCaller(r.Context(), u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	infrastructure.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": msg})
}
