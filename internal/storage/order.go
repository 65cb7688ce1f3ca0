package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/marketplace/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ и его позиции в рамках транзакции оформления.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, total int64, items []*models.OrderItem) (*models.Order, error)
	// GetOrdersByUserID возвращает заказы пользователя, новые первыми, с позициями.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	// GetOrdersByMerchantID возвращает заказы, содержащие хотя бы один товар продавца.
	GetOrdersByMerchantID(ctx context.Context, merchantID int64) ([]*models.Order, error)
	// OrderHasMerchantProduct сообщает, есть ли в заказе товар данного продавца.
	OrderHasMerchantProduct(ctx context.Context, orderID, merchantID int64) (bool, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, total int64, items []*models.OrderItem) (*models.Order, error) {
	order := &models.Order{
		UserID: userID,
		Total:  total,
		Status: models.OrderStatusPending,
	}
	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total, status, created_at) VALUES ($1, $2, $3, NOW())
		 RETURNING id, created_at`,
		userID, total, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range items {
		item.OrderID = order.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			order.ID, item.ProductID, item.Quantity, item.Price,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, total, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		items, err := r.getOrderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return orders, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, total, status, created_at FROM orders WHERE id = $1", orderID)
	if err := row.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.getOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) GetOrdersByMerchantID(ctx context.Context, merchantID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT o.id, o.user_id, o.total, o.status, o.created_at
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE p.merchant_id = $1
		ORDER BY o.created_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		items, err := r.getOrderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return orders, nil
}

func (r *orderRepository) OrderHasMerchantProduct(ctx context.Context, orderID, merchantID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = $1 AND p.merchant_id = $2
		)`, orderID, merchantID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// getOrderItems возвращает позиции заказа с именами товаров через JOIN с таблицей products.
func (r *orderRepository) getOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
