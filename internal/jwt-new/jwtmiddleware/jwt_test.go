package jwtmiddleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/linemk/marketplace/internal/domain/models"
	security "github.com/linemk/marketplace/internal/jwt-new"
	"github.com/linemk/marketplace/internal/jwt-new/jwtmiddleware"
	"github.com/stretchr/testify/assert"
)

func TestJWTMiddleware(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	userToken, err := security.NewUserToken(context.Background(), &models.User{ID: 7, Email: "buyer@example.com"}, time.Hour)
	assert.NoError(t, err)

	merchantToken, err := security.NewMerchantToken(context.Background(), &models.Merchant{ID: 2, Email: "shop@example.com"}, time.Hour)
	assert.NoError(t, err)

	tests := []struct {
		name         string
		requiredRole string
		authHeader   string
		wantStatus   int
	}{
		{
			name:         "missing header",
			requiredRole: security.RoleUser,
			authHeader:   "",
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "invalid format",
			requiredRole: security.RoleUser,
			authHeader:   "Token " + userToken,
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "garbage token",
			requiredRole: security.RoleUser,
			authHeader:   "Bearer not.a.token",
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "valid user token",
			requiredRole: security.RoleUser,
			authHeader:   "Bearer " + userToken,
			wantStatus:   http.StatusOK,
		},
		{
			name:         "merchant token on user route",
			requiredRole: security.RoleUser,
			authHeader:   "Bearer " + merchantToken,
			wantStatus:   http.StatusForbidden,
		},
		{
			name:         "user token on merchant route",
			requiredRole: security.RoleMerchant,
			authHeader:   "Bearer " + userToken,
			wantStatus:   http.StatusForbidden,
		},
		{
			name:         "valid merchant token",
			requiredRole: security.RoleMerchant,
			authHeader:   "Bearer " + merchantToken,
			wantStatus:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler := jwtmiddleware.NewJWTMiddleware(tt.requiredRole)(next)

			req := httptest.NewRequest("GET", "/api/cart", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestJWTMiddleware_IdentityInContext(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	token, err := security.NewUserToken(context.Background(), &models.User{ID: 7, Email: "buyer@example.com"}, time.Hour)
	assert.NoError(t, err)

	var got jwtmiddleware.Identity
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = jwtmiddleware.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := jwtmiddleware.NewJWTMiddleware(security.RoleUser)(next)

	req := httptest.NewRequest("GET", "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, found)
	assert.True(t, got.IsUser())
	assert.Equal(t, int64(7), got.UserID)
	assert.Zero(t, got.MerchantID)
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	token, err := security.NewUserToken(context.Background(), &models.User{ID: 7, Email: "buyer@example.com"}, -time.Minute)
	assert.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := jwtmiddleware.NewJWTMiddleware(security.RoleUser)(next)

	req := httptest.NewRequest("GET", "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestFromContext_Missing(t *testing.T) {
	_, ok := jwtmiddleware.FromContext(context.Background())
	assert.False(t, ok)
}
