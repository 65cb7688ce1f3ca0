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

var ErrInvalidProduct = errors.New("invalid product")

// CatalogService определяет чтение каталога и добавление товаров продавцом.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	AddProduct(ctx context.Context, merchantID int64, product *models.Product) (*models.Product, error)
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage) CatalogService {
	return &catalogService{
		log:         log,
		productRepo: productRepo,
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "service.CatalogService.ListProducts"

	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	return products, nil
}

// GetProduct возвращает товар и освежает кэшированный флаг просроченности,
// если дата истечения уже прошла.
func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.GetProduct"

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	if !product.IsExpired && product.ExpiredAt(time.Now()) {
		if err := s.productRepo.MarkExpired(ctx, id); err != nil {
			// устаревший флаг не критичен для чтения: проверки всё равно живые
			s.log.Warn("failed to refresh expired flag", slog.String("op", op), slog.Any("error", err))
		} else {
			product.IsExpired = true
		}
	}
	return product, nil
}

func (s *catalogService) AddProduct(ctx context.Context, merchantID int64, product *models.Product) (*models.Product, error) {
	const op = "service.CatalogService.AddProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("merchantID", merchantID))

	if product.Name == "" || product.Price < 0 || product.Stock < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidProduct)
	}

	product.MerchantID = merchantID
	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}
