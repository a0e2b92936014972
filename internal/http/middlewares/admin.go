package middlewares

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	httperrors "github.com/dropDatabas3/hellodir/internal/http/errors"
)

// AdminConfig configura la autenticación de la API administrativa.
type AdminConfig struct {
	// Enforce en false deja pasar todo (modo desarrollo).
	Enforce bool
	// APIKey habilita el header X-Admin-API-Key.
	APIKey string
	// JWTSecret habilita Authorization: Bearer <HS256 JWT> con claim
	// role=admin.
	JWTSecret string
}

// RequireAdmin valida la autenticación de admin. Reglas (en este orden):
//  1. Si Enforce es false: permitir.
//  2. Si X-Admin-API-Key coincide (comparación constante): permitir.
//  3. Si hay Bearer token HS256 válido con role=admin: permitir.
//     Si no, 401.
func RequireAdmin(cfg AdminConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enforce {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.APIKey != "" {
				got := strings.TrimSpace(r.Header.Get("X-Admin-API-Key"))
				if got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(cfg.APIKey)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			if cfg.JWTSecret != "" {
				if ok := validBearer(r, cfg.JWTSecret); ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		})
	}
}

func validBearer(r *http.Request, secret string) bool {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return false
	}
	raw := strings.TrimSpace(ah[len("Bearer "):])

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}
