package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/linemk/marketplace/internal/domain/models"
)

var ErrMerchantNotFound = errors.New("merchant not found")

// MerchantStorage описывает методы для работы с таблицей продавцов.
type MerchantStorage interface {
	CreateMerchant(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error)
	GetMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error)
	GetMerchantByID(ctx context.Context, id int64) (*models.Merchant, error)
}

type merchantRepository struct {
	db *sql.DB
}

func NewMerchantRepository(db *sql.DB) MerchantStorage {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) CreateMerchant(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO merchants (shop_name, email, pass_hash, address, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id, created_at`,
		merchant.ShopName, merchant.Email, merchant.PassHash, merchant.Address, merchant.Role,
	).Scan(&merchant.ID, &merchant.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return merchant, nil
}

func (r *merchantRepository) GetMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	return r.getMerchant(ctx, "SELECT id, shop_name, email, pass_hash, address, role, created_at FROM merchants WHERE email = $1", email)
}

func (r *merchantRepository) GetMerchantByID(ctx context.Context, id int64) (*models.Merchant, error) {
	return r.getMerchant(ctx, "SELECT id, shop_name, email, pass_hash, address, role, created_at FROM merchants WHERE id = $1", id)
}

func (r *merchantRepository) getMerchant(ctx context.Context, query string, arg interface{}) (*models.Merchant, error) {
	merchant := &models.Merchant{}
	row := r.db.QueryRowContext(ctx, query, arg)
	if err := row.Scan(&merchant.ID, &merchant.ShopName, &merchant.Email, &merchant.PassHash, &merchant.Address, &merchant.Role, &merchant.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return merchant, nil
}
