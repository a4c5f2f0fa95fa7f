package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/ChatbotX/internal/models"
)

type ctxKey int

const principalKey ctxKey = iota

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok && p.UserID != ""
}

// JWTMiddleware validates the HS256 bearer token and attaches the caller's
// Principal to the request context. The user id is read from "sub", falling
// back to "user_id".
func JWTMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w, "missing or invalid token")
				return
			}

			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				unauthorized(w, "invalid token")
				return
			}

			p := principalFromClaims(claims)
			if p.UserID == "" {
				unauthorized(w, "invalid token claims")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func principalFromClaims(claims jwt.MapClaims) models.Principal {
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	id := str("sub")
	if id == "" {
		id = str("user_id")
	}
	return models.Principal{
		UserID:          id,
		Email:           str("email"),
		FirstName:       str("first_name"),
		LastName:        str("last_name"),
		ProfileImageURL: str("profile_image_url"),
	}
}

// UserReconciler is satisfied by services.UserService.
type UserReconciler interface {
	Reconcile(ctx context.Context, p models.Principal) (*models.User, error)
}

// UserSync upserts the authenticated user before the handler runs so that
// every row the handler writes can reference it.
func UserSync(users UserReconciler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				unauthorized(w, "unauthorized")
				return
			}
			if _, err := users.Reconcile(r.Context(), p); err != nil {
				log.Error().Err(err).Str("user_id", p.UserID).Msg("user reconciliation failed")
				writeError(w, http.StatusInternalServerError, "failed to load user")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "message": msg})
}
