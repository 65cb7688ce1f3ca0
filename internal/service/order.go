package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/marketplace/internal/domain/models"
	"github.com/linemk/marketplace/internal/storage"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAccessDenied — заказ существует, но не содержит товаров продавца.
	ErrOrderAccessDenied = errors.New("order access denied")
)

// OrderService определяет чтение истории заказов для пользователя и продавца.
type OrderService interface {
	// ListUserOrders возвращает заказы пользователя, новые первыми.
	ListUserOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	// GetUserOrder возвращает заказ пользователя; чужой заказ неотличим от отсутствующего.
	GetUserOrder(ctx context.Context, userID, orderID int64) (*models.Order, error)
	// ListMerchantOrders возвращает заказы, содержащие товары продавца.
	ListMerchantOrders(ctx context.Context, merchantID int64) ([]*models.Order, error)
	GetMerchantOrder(ctx context.Context, merchantID, orderID int64) (*models.Order, error)
}

type orderService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
}

func NewOrderService(log *slog.Logger, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:       log,
		orderRepo: orderRepo,
	}
}

func (s *orderService) ListUserOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.ListUserOrders"

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) GetUserOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.GetUserOrder"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	if order.UserID != userID {
		// не раскрываем существование чужого заказа
		return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
	}
	return order, nil
}

func (s *orderService) ListMerchantOrders(ctx context.Context, merchantID int64) ([]*models.Order, error) {
	const op = "service.OrderService.ListMerchantOrders"

	orders, err := s.orderRepo.GetOrdersByMerchantID(ctx, merchantID)
	if err != nil {
		s.log.Error("failed to get merchant orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get merchant orders: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) GetMerchantOrder(ctx context.Context, merchantID, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.GetMerchantOrder"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	owns, err := s.orderRepo.OrderHasMerchantProduct(ctx, orderID, merchantID)
	if err != nil {
		s.log.Error("failed to check order ownership", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to check order ownership: %w", op, err)
	}
	if !owns {
		return nil, fmt.Errorf("%s: %w", op, ErrOrderAccessDenied)
	}
	return order, nil
}
