package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/marketplace/internal/domain/models"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartStorage описывает методы для работы с корзиной и её позициями.
type CartStorage interface {
	// GetCartByUserID возвращает корзину пользователя вместе с позициями и товарами.
	GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	// GetOrCreateCart возвращает корзину пользователя, создавая её при первом обращении.
	GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	GetItemByID(ctx context.Context, itemID int64) (*models.CartItem, error)
	GetItemByProduct(ctx context.Context, cartID, productID int64) (*models.CartItem, error)
	AddItem(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, itemID int64) error
	ClearItems(ctx context.Context, cartID int64) error
	// GetCartWithProductsTx загружает корзину, позиции и актуальное состояние
	// товаров внутри транзакции оформления заказа.
	GetCartWithProductsTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error)
	// ClearItemsTx удаляет все позиции корзины в рамках транзакции (сама корзина остаётся).
	ClearItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

const cartItemsQuery = `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
		       p.id, p.merchant_id, p.name, p.description, p.price, p.stock, p.expired, p.is_expired
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	row := r.db.QueryRowContext(ctx, "SELECT id, user_id FROM carts WHERE user_id = $1", userID)
	if err := row.Scan(&cart.ID, &cart.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, cartItemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanCartItems(rows)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

func (r *cartRepository) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := r.GetCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	cart = &models.Cart{UserID: userID}
	// ON CONFLICT покрывает гонку двух первых добавлений в корзину
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO carts (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING id`, userID,
	).Scan(&cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) GetItemByID(ctx context.Context, itemID int64) (*models.CartItem, error) {
	item := &models.CartItem{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, cart_id, product_id, quantity FROM cart_items WHERE id = $1", itemID)
	if err := row.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *cartRepository) GetItemByProduct(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	item := &models.CartItem{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, cart_id, product_id, quantity FROM cart_items WHERE cart_id = $1 AND product_id = $2", cartID, productID)
	if err := row.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *cartRepository) AddItem(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error) {
	item := &models.CartItem{CartID: cartID, ProductID: productID}
	// позиция уникальна в рамках (корзина, товар): повторное добавление наращивает количество
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING id, quantity`,
		cartID, productID, quantity,
	).Scan(&item.ID, &item.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return item, nil
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx, "UPDATE cart_items SET quantity = $1 WHERE id = $2", quantity, itemID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, itemID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE id = $1", itemID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID)
	return err
}

func (r *cartRepository) GetCartWithProductsTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	row := tx.QueryRowContext(ctx, "SELECT id, user_id FROM carts WHERE user_id = $1", userID)
	if err := row.Scan(&cart.ID, &cart.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, cartItemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanCartItems(rows)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

func (r *cartRepository) ClearItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	return nil
}

func scanCartItems(rows *sql.Rows) ([]*models.CartItem, error) {
	var items []*models.CartItem
	for rows.Next() {
		item := &models.CartItem{Product: &models.Product{}}
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Quantity,
			&item.Product.ID, &item.Product.MerchantID, &item.Product.Name, &item.Product.Description,
			&item.Product.Price, &item.Product.Stock, &item.Product.Expired, &item.Product.IsExpired,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
