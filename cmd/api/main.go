package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/harlow/go-storefront-api/internal/config"
	"github.com/harlow/go-storefront-api/internal/handler"
	"github.com/harlow/go-storefront-api/internal/mailer"
	"github.com/harlow/go-storefront-api/internal/middleware"
	"github.com/harlow/go-storefront-api/internal/repository"
	"github.com/harlow/go-storefront-api/internal/service"
	"github.com/harlow/go-storefront-api/internal/worker"
	"github.com/harlow/go-storefront-api/migrations"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	if err := runMigrations(ctx, dbPool); err != nil {
		log.Error("run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// SMTP
	mailSender, err := mailer.New(cfg.SMTP)
	if err != nil {
		log.Error("create mailer", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	addressRepo := repository.NewAddressRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	shippingRepo := repository.NewShippingRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	paymentRepo := repository.NewPaymentRepository(dbPool)
	wishlistRepo := repository.NewWishlistRepository(dbPool)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	userSvc := service.NewUserService(userRepo, addressRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, categoryRepo, redisClient)
	shippingSvc := service.NewShippingService(shippingRepo)
	cartSvc := service.NewCartService(cartRepo, productRepo)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, productRepo, addressRepo, userRepo, amqpCh, log)
	paymentSvc := service.NewPaymentService(paymentRepo, orderRepo)
	wishlistSvc := service.NewWishlistService(wishlistRepo, productRepo)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	categoryH := handler.NewCategoryHandler(categorySvc)
	productH := handler.NewProductHandler(productSvc)
	shippingH := handler.NewShippingHandler(shippingSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	paymentH := handler.NewPaymentHandler(paymentSvc)
	wishlistH := handler.NewWishlistHandler(wishlistSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Worker
	mailWorker := worker.NewMailWorker(amqpCh, orderRepo, mailSender, redisClient, log)

	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret, userRepo)
	adminOnly := middleware.AdminOnly()

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)

		users := v1.Group("/users", authRequired)
		users.GET("/me", userH.GetMe)
		users.GET("/:id", userH.GetByID)
		users.PATCH("/:id", userH.Update)
		users.DELETE("/:id", userH.Delete)
		users.POST("/me/addresses", userH.CreateAddress)
		users.GET("/me/addresses", userH.ListAddresses)
		users.DELETE("/me/addresses/:id", userH.DeleteAddress)

		categories := v1.Group("/categories")
		categories.GET("", categoryH.List)
		categories.GET("/:id", categoryH.GetByID)

		categoriesAdmin := categories.Group("", authRequired, adminOnly)
		categoriesAdmin.POST("", categoryH.Create)
		categoriesAdmin.PATCH("/:id", categoryH.Update)
		categoriesAdmin.DELETE("/:id", categoryH.Delete)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)

		productsAdmin := products.Group("", authRequired, adminOnly)
		productsAdmin.POST("", productH.Create)
		productsAdmin.PATCH("/:id", productH.Update)
		productsAdmin.DELETE("/:id", productH.Delete)

		shipping := v1.Group("/shipping-methods")
		shipping.GET("", shippingH.List)
		shipping.GET("/:id", shippingH.GetByID)

		shippingAdmin := shipping.Group("", authRequired, adminOnly)
		shippingAdmin.POST("", shippingH.Create)
		shippingAdmin.PATCH("/:id", shippingH.Update)
		shippingAdmin.DELETE("/:id", shippingH.Delete)

		cart := v1.Group("/cart", authRequired)
		cart.GET("", cartH.GetCart)
		cart.POST("/items", cartH.UpsertItem)
		cart.PUT("", cartH.Replace)
		cart.DELETE("/items/:productID", cartH.DeleteItem)

		orders := v1.Group("/orders", authRequired)
		orders.POST("", orderH.CreateOrder)
		orders.POST("/checkout", orderH.Checkout)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)
		orders.GET("/:id/payments", paymentH.ListByOrder)
		orders.PATCH("/:id/status", adminOnly, orderH.UpdateStatus)

		payments := v1.Group("/payments", authRequired)
		payments.POST("", paymentH.Create)
		payments.GET("/:id", paymentH.GetByID)
		payments.PATCH("/:id/status", adminOnly, paymentH.UpdateStatus)

		wishlist := v1.Group("/wishlist", authRequired)
		wishlist.GET("", wishlistH.Get)
		wishlist.POST("/items", wishlistH.AddProduct)
		wishlist.DELETE("/items/:productID", wishlistH.RemoveProduct)
	}

	if err := mailWorker.Start(ctx); err != nil {
		log.Error("start mail worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	mailWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
