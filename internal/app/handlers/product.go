package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/marketplace/internal/domain/models"
	"github.com/linemk/marketplace/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/marketplace/internal/service"
)

// AddProductRequest представляет входной JSON для добавления товара продавцом.
type AddProductRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Price       int64      `json:"price" validate:"gte=0"`
	Stock       int        `json:"stock" validate:"gte=0"`
	Expired     *time.Time `json:"expired,omitempty"`
}

// ListProductsHandler обрабатывает GET /api/products — публичный каталог,
// просроченные товары скрыты.
func ListProductsHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalogService.ListProducts(r.Context())
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Products retrieved successfully", products)
	}
}

// GetProductHandler обрабатывает GET /api/products/{id}.
func GetProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid product ID")
			return
		}

		product, err := catalogService.GetProduct(r.Context(), id)
		if err != nil {
			if errors.Is(err, service.ErrProductNotFound) {
				writeError(w, logger, http.StatusNotFound, "Product not found")
				return
			}
			logger.Error("failed to get product", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Product retrieved successfully", product)
	}
}

// AddProductHandler обрабатывает POST /api/products (только для продавцов).
func AddProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddProductHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsMerchant() {
			logger.Error("merchant identity not found in context")
			writeError(w, logger, http.StatusForbidden, "Unauthorized — only merchant can add product")
			return
		}

		var req AddProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "Fields name, price, and stock are required")
			return
		}

		product, err := catalogService.AddProduct(r.Context(), identity.MerchantID, &models.Product{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
			Expired:     req.Expired,
		})
		if err != nil {
			if errors.Is(err, service.ErrInvalidProduct) {
				writeError(w, logger, http.StatusBadRequest, "invalid product")
				return
			}
			logger.Error("failed to add product", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeSuccess(w, logger, http.StatusCreated, "Product added successfully", product)
	}
}
