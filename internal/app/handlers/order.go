package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/marketplace/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/marketplace/internal/service"
)

// CheckoutHandler обрабатывает POST /api/orders/checkout.
// Тело не требуется: весь набор позиций берётся из текущей корзины пользователя.
func CheckoutHandler(log *slog.Logger, checkoutService service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsUser() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		order, err := checkoutService.Checkout(r.Context(), identity.UserID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmptyCart):
				writeError(w, logger, http.StatusBadRequest, "Your cart is empty.")
			case errors.Is(err, service.ErrInsufficientStock),
				errors.Is(err, service.ErrProductExpired):
				// в тексте ошибки назван конкретный товар
				writeError(w, logger, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrStockConflict):
				writeError(w, logger, http.StatusConflict, err.Error())
			default:
				logger.Error("checkout failed", slog.Any("error", err))
				writeError(w, logger, http.StatusInternalServerError, "Failed to create order.")
			}
			return
		}

		writeSuccess(w, logger, http.StatusCreated, "Order created successfully.", order)
	}
}

// ListOrdersHandler обрабатывает GET /api/orders — история заказов пользователя.
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsUser() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		orders, err := orderService.ListUserOrders(r.Context(), identity.UserID)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Failed to fetch order history.")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Order history retrieved successfully.", orders)
	}
}

// GetOrderHandler обрабатывает GET /api/orders/{id}.
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsUser() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := orderService.GetUserOrder(r.Context(), identity.UserID, orderID)
		if err != nil {
			if errors.Is(err, service.ErrOrderNotFound) {
				writeError(w, logger, http.StatusNotFound, "Order not found or not accessible.")
				return
			}
			logger.Error("failed to get order", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Failed to fetch order details.")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Order details retrieved successfully.", order)
	}
}

// ListMerchantOrdersHandler обрабатывает GET /api/merchant/orders —
// заказы, содержащие товары продавца.
func ListMerchantOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListMerchantOrdersHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsMerchant() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		orders, err := orderService.ListMerchantOrders(r.Context(), identity.MerchantID)
		if err != nil {
			logger.Error("failed to list merchant orders", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "Failed to fetch merchant orders.")
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Orders retrieved successfully.", orders)
	}
}

// GetMerchantOrderHandler обрабатывает GET /api/merchant/orders/{id}.
func GetMerchantOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetMerchantOrderHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok || !identity.IsMerchant() {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := orderService.GetMerchantOrder(r.Context(), identity.MerchantID, orderID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrOrderNotFound):
				writeError(w, logger, http.StatusNotFound, "Order not found.")
			case errors.Is(err, service.ErrOrderAccessDenied):
				writeError(w, logger, http.StatusForbidden, "You are not authorized to view this order.")
			default:
				logger.Error("failed to get merchant order", slog.Any("error", err))
				writeError(w, logger, http.StatusInternalServerError, "Failed to fetch order details.")
			}
			return
		}

		writeSuccess(w, logger, http.StatusOK, "Order details retrieved successfully.", order)
	}
}
