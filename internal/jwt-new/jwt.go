package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/marketplace/internal/domain/models"
)

// Роли, которые может нести токен. Токен пользователя и токен продавца
// различаются только значением claim "role" и смыслом поля "sub".
const (
	RoleUser     = "user"
	RoleMerchant = "merchant"
)

// NewUserToken генерирует JWT-токен покупателя с заданным временем жизни.
func NewUserToken(ctx context.Context, user *models.User, ttl time.Duration) (string, error) {
	return newToken(user.ID, user.Email, RoleUser, ttl)
}

// NewMerchantToken генерирует JWT-токен продавца.
func NewMerchantToken(ctx context.Context, merchant *models.Merchant, ttl time.Duration) (string, error) {
	return newToken(merchant.ID, merchant.Email, RoleMerchant, ttl)
}

func newToken(id int64, email, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", id),
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	secretStr := os.Getenv("JWT_SECRET")
	if secretStr == "" {
		return "", errors.New("JWT_SECRET environment variable is not set")
	}
	return token.SignedString([]byte(secretStr))
}
