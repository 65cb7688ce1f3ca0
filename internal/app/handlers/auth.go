package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/marketplace/internal/service"
)

// RegisterUserRequest представляет структуру запроса регистрации пользователя с тегами валидации
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest общая для пользователя и продавца
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse представляет ответ с JWT-токеном
type TokenResponse struct {
	Token string `json:"token"`
}

// RegisterUserHandler обрабатывает POST /api/users/register
func RegisterUserHandler(log *slog.Logger, authService service.UserAuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterUserHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		user, err := authService.Register(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrAlreadyRegistered) {
				writeError(w, logger, http.StatusBadRequest, "email or username already registered")
				return
			}
			logger.Error("registration failed", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "internal server error")
			return
		}

		writeSuccess(w, logger, http.StatusCreated, "User registered successfully", user)
	}
}

// LoginUserHandler обрабатывает POST /api/users/login
func LoginUserHandler(log *slog.Logger, authService service.UserAuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginUserHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		token, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, logger, http.StatusUnauthorized, "invalid email or password")
				return
			}
			logger.Error("login failed", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "internal server error")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Login successful", TokenResponse{Token: token})
	}
}

// RegisterMerchantRequest представляет структуру запроса регистрации продавца
type RegisterMerchantRequest struct {
	ShopName string `json:"shopName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterMerchantHandler обрабатывает POST /api/merchants/register
func RegisterMerchantHandler(log *slog.Logger, authService service.MerchantAuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterMerchantHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterMerchantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		merchant, err := authService.Register(r.Context(), req.ShopName, req.Email, req.Address, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrAlreadyRegistered) {
				writeError(w, logger, http.StatusBadRequest, "email already registered")
				return
			}
			logger.Error("registration failed", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "internal server error")
			return
		}

		writeSuccess(w, logger, http.StatusCreated, "Merchant registered successfully", merchant)
	}
}

// LoginMerchantHandler обрабатывает POST /api/merchants/login
func LoginMerchantHandler(log *slog.Logger, authService service.MerchantAuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginMerchantHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		token, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, logger, http.StatusUnauthorized, "invalid email or password")
				return
			}
			logger.Error("login failed", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "internal server error")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Login successful", TokenResponse{Token: token})
	}
}
