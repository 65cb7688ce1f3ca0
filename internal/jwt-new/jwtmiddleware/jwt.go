package jwtmiddleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	security "github.com/linemk/marketplace/internal/jwt-new"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Identity — типизированный вариант владельца токена: либо покупатель, либо продавец.
// Заполнено ровно одно из полей UserID/MerchantID, в зависимости от Role.
type Identity struct {
	UserID     int64
	MerchantID int64
	Role       string
}

func (i Identity) IsUser() bool     { return i.Role == security.RoleUser }
func (i Identity) IsMerchant() bool { return i.Role == security.RoleMerchant }

// NewJWTMiddleware создаёт middleware для проверки JWT, секрет берётся из переменной окружения.
// requiredRole ограничивает маршрут одной ролью: токен с чужой ролью получает 403,
// чтобы, например, токен продавца не мог оформить заказ из корзины.
func NewJWTMiddleware(requiredRole string) func(http.Handler) http.Handler {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Извлекаем токен из заголовка Authorization (формат: "Bearer <token>")
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusUnauthorized)
				return
			}
			tokenStr := parts[1]

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				http.Error(w, "invalid token claims: sub not found", http.StatusUnauthorized)
				return
			}
			id, err := strconv.ParseInt(sub, 10, 64)
			if err != nil {
				http.Error(w, "invalid token claims: invalid subject id", http.StatusUnauthorized)
				return
			}

			role, ok := claims["role"].(string)
			if !ok {
				http.Error(w, "invalid token claims: role not found", http.StatusUnauthorized)
				return
			}
			if role != requiredRole {
				http.Error(w, "forbidden for this role", http.StatusForbidden)
				return
			}

			identity := Identity{Role: role}
			switch role {
			case security.RoleUser:
				identity.UserID = id
			case security.RoleMerchant:
				identity.MerchantID = id
			default:
				http.Error(w, "unknown role", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext извлекает Identity из контекста.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(Identity)
	return identity, ok
}
