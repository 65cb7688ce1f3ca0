package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/marketplace/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/marketplace/internal/service"
)

// AddToCartRequest представляет входной JSON для добавления товара в корзину.
type AddToCartRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1"`
}

// UpdateCartItemRequest представляет входной JSON для изменения количества.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// GetCartHandler обрабатывает GET /api/cart.
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsUser() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		cart, err := cartService.GetCart(r.Context(), identity.UserID)
		if err != nil {
			logger.Error("failed to get cart", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Failed to get cart")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Cart retrieved successfully", cart)
	}
}

// AddToCartHandler обрабатывает POST /api/cart.
func AddToCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsUser() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req AddToCartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "productId and quantity are required")
			return
		}

		item, err := cartService.AddToCart(r.Context(), identity.UserID, req.ProductID, req.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrProductNotFound):
				writeError(w, logger, http.StatusNotFound, "Product not found")
			case errors.Is(err, service.ErrProductExpired):
				writeError(w, logger, http.StatusBadRequest, "Product already expired")
			default:
				logger.Error("failed to add to cart", slog.Any("error", err))
				writeError(w, logger, http.StatusInternalServerError, "Failed to add to cart")
			}
			return
		}

		writeSuccess(w, logger, http.StatusCreated, "Added to cart", item)
	}
}

// UpdateCartItemHandler обрабатывает PUT /api/cart/item/{itemId}.
func UpdateCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartItemHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsUser() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid item id")
			return
		}

		var req UpdateCartItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "quantity must be at least 1")
			return
		}

		item, err := cartService.UpdateItem(r.Context(), identity.UserID, itemID, req.Quantity)
		if err != nil {
			if errors.Is(err, service.ErrCartItemNotFound) {
				writeError(w, logger, http.StatusNotFound, "Cart item not found")
				return
			}
			logger.Error("failed to update cart item", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Failed to update cart item")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Cart item updated", item)
	}
}

// RemoveCartItemHandler обрабатывает DELETE /api/cart/item/{itemId}.
func RemoveCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsUser() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid item id")
			return
		}

		if err := cartService.RemoveItem(r.Context(), identity.UserID, itemID); err != nil {
			if errors.Is(err, service.ErrCartItemNotFound) {
				writeError(w, logger, http.StatusNotFound, "Cart item not found")
				return
			}
			logger.Error("failed to remove cart item", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Failed to remove item")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Item removed from cart", nil)
	}
}

// ClearCartHandler обрабатывает DELETE /api/cart/clear.
func ClearCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearCartHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsUser() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := cartService.ClearCart(r.Context(), identity.UserID); err != nil {
			if errors.Is(err, service.ErrCartNotFound) {
				writeError(w, logger, http.StatusNotFound, "Cart not found")
				return
			}
			logger.Error("failed to clear cart", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Failed to clear cart")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Cart cleared", nil)
	}
}
