package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/marketplace/internal/domain/models"
	"github.com/linemk/marketplace/internal/storage"
)

var (
	// ErrEmptyCart — у пользователя нет корзины или в ней нет позиций.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInsufficientStock — остатка товара не хватает на запрошенное количество.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrProductExpired — товар просрочен и не может быть заказан.
	ErrProductExpired = errors.New("product is expired")
	// ErrStockConflict — конкурентное оформление исчерпало остаток между
	// проверкой и списанием; клиенту следует обновить корзину и повторить.
	ErrStockConflict = errors.New("stock depleted by a concurrent checkout")
)

// CheckoutService определяет интерфейс оформления заказа из корзины.
type CheckoutService interface {
	Checkout(ctx context.Context, userID int64) (*models.Order, error)
}

type checkoutService struct {
	log         *slog.Logger
	db          *sql.DB
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
}

func NewCheckoutService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, productRepo storage.ProductStorage, orderRepo storage.OrderStorage) CheckoutService {
	return &checkoutService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// Checkout превращает корзину пользователя в заказ: проверяет каждую позицию
// по актуальному состоянию товара, снимает цены на момент оформления и одной
// транзакцией создаёт заказ, списывает остатки и очищает корзину.
// Любая ошибка откатывает транзакцию целиком — частичных эффектов не бывает.
func (s *checkoutService) Checkout(ctx context.Context, userID int64) (*models.Order, error) {
	const op = "service.CheckoutService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Загружаем корзину вместе с позициями и текущим состоянием товаров
	cart, err := s.cartRepo.GetCartWithProductsTx(ctx, tx, userID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrCartNotFound) {
			logger.Warn("cart not found")
			return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
		}
		logger.Error("failed to load cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to load cart: %w", op, err)
	}
	if len(cart.Items) == 0 {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("cart has no items")
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	// Проверяем каждую позицию по живому состоянию товара и считаем итог.
	// Любое нарушение отменяет всё оформление — оно выполняется целиком или никак.
	now := time.Now()
	var total int64
	orderItems := make([]*models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product := item.Product
		if product.Stock < item.Quantity {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Warn("insufficient stock",
				slog.String("product", product.Name),
				slog.Int("stock", product.Stock),
				slog.Int("quantity", item.Quantity),
			)
			return nil, fmt.Errorf("%s: %w for %s", op, ErrInsufficientStock, product.Name)
		}
		// Живое сравнение с датой истечения авторитетно даже при устаревшем
		// кэшированном флаге is_expired
		if product.ExpiredAt(now) {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Warn("product expired", slog.String("product", product.Name))
			return nil, fmt.Errorf("%s: %w: %s", op, ErrProductExpired, product.Name)
		}

		// Цена фиксируется на момент оформления; дальнейшие изменения каталога
		// на заказ не влияют
		subtotal := int64(item.Quantity) * product.Price
		total += subtotal
		orderItems = append(orderItems, &models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			Price:       product.Price,
		})
	}

	// Создаем заказ с позициями
	order, err := s.orderRepo.CreateOrderTx(ctx, tx, userID, total, orderItems)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	// Списываем остатки условным UPDATE: если конкурентное оформление успело
	// исчерпать товар после нашей проверки, списание не пройдет и вся
	// транзакция откатится — остаток не может уйти в минус
	for _, item := range cart.Items {
		if err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			if errors.Is(err, storage.ErrInsufficientStock) {
				logger.Warn("stock depleted concurrently", slog.String("product", item.Product.Name))
				return nil, fmt.Errorf("%s: %w: %s", op, ErrStockConflict, item.Product.Name)
			}
			logger.Error("failed to decrement stock", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to decrement stock: %w", op, err)
		}
	}

	// Очищаем корзину (сама корзина остаётся, пустая)
	if err := s.cartRepo.ClearItemsTx(ctx, tx, cart.ID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("checkout completed successfully",
		slog.Int64("orderID", order.ID),
		slog.Int64("total", order.Total),
	)
	return order, nil
}
