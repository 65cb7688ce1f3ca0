package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/marketplace/internal/domain/models"
	"github.com/linemk/marketplace/internal/storage"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartService определяет операции над корзиной пользователя.
type CartService interface {
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	AddToCart(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart возвращает корзину с позициями; если корзины ещё нет, возвращается пустая.
func (s *cartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.GetCart"

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return &models.Cart{UserID: userID, Items: []*models.CartItem{}}, nil
		}
		s.log.Error("failed to get cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}
	return cart, nil
}

// AddToCart кладёт товар в корзину, создавая корзину при первом добавлении.
// Просроченный товар отклоняется сразу, по живой проверке даты.
func (s *cartService) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	const op = "service.CartService.AddToCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			logger.Warn("product not found")
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}
	if product.ExpiredAt(time.Now()) {
		logger.Warn("product expired", slog.String("product", product.Name))
		return nil, fmt.Errorf("%s: %w: %s", op, ErrProductExpired, product.Name)
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		logger.Error("failed to get or create cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get or create cart: %w", op, err)
	}

	item, err := s.cartRepo.AddItem(ctx, cart.ID, productID, quantity)
	if err != nil {
		logger.Error("failed to add cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to add cart item: %w", op, err)
	}

	logger.Info("item added to cart", slog.Int64("itemID", item.ID), slog.Int("quantity", item.Quantity))
	return item, nil
}

// UpdateItem меняет количество в позиции; чужие позиции недоступны.
func (s *cartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*models.CartItem, error) {
	const op = "service.CartService.UpdateItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("itemID", itemID))

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		logger.Error("failed to update cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update cart item: %w", op, err)
	}
	item.Quantity = quantity

	logger.Info("cart item updated", slog.Int("quantity", quantity))
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	const op = "service.CartService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("itemID", itemID))

	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.RemoveItem(ctx, itemID); err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return fmt.Errorf("%s: %w", op, ErrCartItemNotFound)
		}
		logger.Error("failed to remove cart item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to remove cart item: %w", op, err)
	}

	logger.Info("cart item removed")
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, userID int64) error {
	const op = "service.CartService.ClearCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return fmt.Errorf("%s: %w", op, ErrCartNotFound)
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get cart: %w", op, err)
	}

	if err := s.cartRepo.ClearItems(ctx, cart.ID); err != nil {
		logger.Error("failed to clear cart", slog.Any("error", err))
		return fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}

	logger.Info("cart cleared")
	return nil
}

// ownedItem возвращает позицию, только если она лежит в корзине этого пользователя.
// Чужая и несуществующая позиции неразличимы для вызывающего.
func (s *cartService) ownedItem(ctx context.Context, userID, itemID int64) (*models.CartItem, error) {
	item, err := s.cartRepo.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, ErrCartItemNotFound
	}
	return item, nil
}
