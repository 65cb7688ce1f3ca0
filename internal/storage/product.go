package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/marketplace/internal/domain/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock возвращается условным списанием, когда остаток
	// не покрывает запрошенное количество (в том числе при конкурентном списании).
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductStorage описывает методы для работы с таблицей товаров.
type ProductStorage interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts возвращает товары, доступные для заказа (просроченные скрыты).
	ListProducts(ctx context.Context) ([]*models.Product, error)
	// DecrementStock условно списывает qty со склада в рамках транзакции.
	// Списание применяется только если остатка достаточно; иначе ErrInsufficientStock.
	DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, qty int) error
	// MarkExpired выставляет кэшированный флаг просроченности.
	MarkExpired(ctx context.Context, id int64) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (merchant_id, name, description, price, stock, expired, is_expired)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		product.MerchantID, product.Name, product.Description, product.Price, product.Stock, product.Expired, product.IsExpired,
	).Scan(&product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, merchant_id, name, description, price, stock, expired, is_expired FROM products WHERE id = $1", id)
	if err := row.Scan(&product.ID, &product.MerchantID, &product.Name, &product.Description,
		&product.Price, &product.Stock, &product.Expired, &product.IsExpired); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, merchant_id, name, description, price, stock, expired, is_expired
		FROM products
		WHERE is_expired = FALSE AND (expired IS NULL OR expired > NOW())
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.MerchantID, &product.Name, &product.Description,
			&product.Price, &product.Stock, &product.Expired, &product.IsExpired); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock выполняет оптимистичное списание: условие stock >= qty проверяется
// атомарно с самим UPDATE, поэтому остаток не может уйти в минус даже при
// конкурентных оформлениях одного и того же товара.
func (r *productRepository) DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, qty int) error {
	if qty < 0 {
		return fmt.Errorf("negative decrement quantity %d", qty)
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1", qty, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *productRepository) MarkExpired(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE products SET is_expired = TRUE WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
