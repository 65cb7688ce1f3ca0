package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/marketplace/internal/domain/models"
	security "github.com/linemk/marketplace/internal/jwt-new"
	"github.com/linemk/marketplace/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("already registered")
)

// UserAuthService определяет регистрацию и вход покупателей.
type UserAuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type userAuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokenTTL time.Duration
}

func NewUserAuthService(log *slog.Logger, userRepo storage.UserStorage, tokenTTL time.Duration) UserAuthService {
	return &userAuthService{
		log:      log,
		userRepo: userRepo,
		tokenTTL: tokenTTL,
	}
}

// Register создаёт нового пользователя. Пароль хэшируется через bcrypt
// (соль добавляется автоматически). Занятые email и username отклоняются.
func (a *userAuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	const op = "service.UserAuthService.Register"
	logger := a.log.With(slog.String("op", op), slog.String("email", email))
	logger.Info("registering user")

	if _, err := a.userRepo.GetUserByEmail(ctx, email); err == nil {
		logger.Warn("email already registered")
		return nil, fmt.Errorf("%s: email: %w", op, ErrAlreadyRegistered)
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: failed to check email: %w", op, err)
	}
	if _, err := a.userRepo.GetUserByUsername(ctx, username); err == nil {
		logger.Warn("username already taken")
		return nil, fmt.Errorf("%s: username: %w", op, ErrAlreadyRegistered)
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: failed to check username: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Username: username,
		Email:    email,
		PassHash: passHash,
		Role:     security.RoleUser,
	})
	if err != nil {
		// гонка двух одновременных регистраций ловится уникальным индексом
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyRegistered)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Login сравнивает пароль с хэшем и выдаёт JWT-токен с ролью "user".
func (a *userAuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service.UserAuthService.Login"
	logger := a.log.With(slog.String("op", op), slog.String("email", email))
	logger.Info("logging in user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewUserToken(ctx, user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, nil
}

// MerchantAuthService определяет регистрацию и вход продавцов.
type MerchantAuthService interface {
	Register(ctx context.Context, shopName, email, address, password string) (*models.Merchant, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type merchantAuthService struct {
	log          *slog.Logger
	merchantRepo storage.MerchantStorage
	tokenTTL     time.Duration
}

func NewMerchantAuthService(log *slog.Logger, merchantRepo storage.MerchantStorage, tokenTTL time.Duration) MerchantAuthService {
	return &merchantAuthService{
		log:          log,
		merchantRepo: merchantRepo,
		tokenTTL:     tokenTTL,
	}
}

func (a *merchantAuthService) Register(ctx context.Context, shopName, email, address, password string) (*models.Merchant, error) {
	const op = "service.MerchantAuthService.Register"
	logger := a.log.With(slog.String("op", op), slog.String("email", email))
	logger.Info("registering merchant")

	if _, err := a.merchantRepo.GetMerchantByEmail(ctx, email); err == nil {
		logger.Warn("email already registered")
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyRegistered)
	} else if !errors.Is(err, storage.ErrMerchantNotFound) {
		return nil, fmt.Errorf("%s: failed to check email: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	merchant, err := a.merchantRepo.CreateMerchant(ctx, &models.Merchant{
		ShopName: shopName,
		Email:    email,
		PassHash: passHash,
		Address:  address,
		Role:     security.RoleMerchant,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyRegistered)
		}
		logger.Error("failed to create merchant", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create merchant: %w", op, err)
	}

	logger.Info("merchant registered", slog.Int64("merchantID", merchant.ID))
	return merchant, nil
}

func (a *merchantAuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service.MerchantAuthService.Login"
	logger := a.log.With(slog.String("op", op), slog.String("email", email))
	logger.Info("logging in merchant")

	merchant, err := a.merchantRepo.GetMerchantByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrMerchantNotFound) {
			logger.Warn("merchant not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get merchant", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get merchant: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(merchant.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewMerchantToken(ctx, merchant, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("merchant logged in successfully", slog.Int64("merchantID", merchant.ID))
	return token, nil
}
