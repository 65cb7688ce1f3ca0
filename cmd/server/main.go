package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/marketplace/internal/app"
	"github.com/linemk/marketplace/internal/app/handlers"
	"github.com/linemk/marketplace/internal/config"
	security "github.com/linemk/marketplace/internal/jwt-new"
	"github.com/linemk/marketplace/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/marketplace/internal/lib/logger"
	"github.com/linemk/marketplace/internal/lib/logger/handlers/urllog"
	"github.com/linemk/marketplace/internal/service"
	"github.com/linemk/marketplace/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	merchantRepo := storage.NewMerchantRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	tokenTTL := time.Duration(application.Config.JWT.TokenTTL) * time.Minute
	userAuthService := service.NewUserAuthService(application.Logger, userRepo, tokenTTL)
	merchantAuthService := service.NewMerchantAuthService(application.Logger, merchantRepo, tokenTTL)
	catalogService := service.NewCatalogService(application.Logger, productRepo)
	cartService := service.NewCartService(application.Logger, cartRepo, productRepo)
	checkoutService := service.NewCheckoutService(application.Logger, application.DB, cartRepo, productRepo, orderRepo)
	orderService := service.NewOrderService(application.Logger, orderRepo)

	// публичные эндпоинты: регистрация, вход, каталог
	router.Post("/api/users/register", handlers.RegisterUserHandler(application.Logger, userAuthService))
	router.Post("/api/users/login", handlers.LoginUserHandler(application.Logger, userAuthService))
	router.Post("/api/merchants/register", handlers.RegisterMerchantHandler(application.Logger, merchantAuthService))
	router.Post("/api/merchants/login", handlers.LoginMerchantHandler(application.Logger, merchantAuthService))
	router.Get("/api/products", handlers.ListProductsHandler(application.Logger, catalogService))
	router.Get("/api/products/{id}", handlers.GetProductHandler(application.Logger, catalogService))

	// эндпоинты покупателя: корзина и заказы, токен с ролью user обязателен
	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(security.RoleUser))
		r.Get("/api/cart", handlers.GetCartHandler(application.Logger, cartService))
		r.Post("/api/cart", handlers.AddToCartHandler(application.Logger, cartService))
		r.Put("/api/cart/item/{itemId}", handlers.UpdateCartItemHandler(application.Logger, cartService))
		r.Delete("/api/cart/item/{itemId}", handlers.RemoveCartItemHandler(application.Logger, cartService))
		r.Delete("/api/cart/clear", handlers.ClearCartHandler(application.Logger, cartService))
		// оформление заказа из корзины
		r.Post("/api/orders/checkout", handlers.CheckoutHandler(application.Logger, checkoutService))
		r.Get("/api/orders", handlers.ListOrdersHandler(application.Logger, orderService))
		r.Get("/api/orders/{id}", handlers.GetOrderHandler(application.Logger, orderService))
	})

	// эндпоинты продавца: управление товарами и просмотр заказов со своими товарами
	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(security.RoleMerchant))
		r.Post("/api/products", handlers.AddProductHandler(application.Logger, catalogService))
		r.Get("/api/merchant/orders", handlers.ListMerchantOrdersHandler(application.Logger, orderService))
		r.Get("/api/merchant/orders/{id}", handlers.GetMerchantOrderHandler(application.Logger, orderService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
