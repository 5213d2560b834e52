// main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-ecommerce-carts/controllers"
	"go-ecommerce-carts/routes"
	"go-ecommerce-carts/services"
	"go-ecommerce-carts/store"
	"go-ecommerce-carts/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file
	envLoaded := utils.LoadEnv()

	cfg, err := utils.LoadConfig()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	log := utils.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if !envLoaded {
		log.Info("No .env file found. Proceeding with environment variables.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		tp, err := utils.InitTracerProvider(ctx, cfg.OTLPEndpoint, "cartservice")
		if err != nil {
			log.Fatalf("failed to initialize tracer provider: %v", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Printf("Error shutting down tracer provider: %v", err)
			}
		}()
	}

	var (
		carts    store.CartStore
		products store.ProductStore
		checks   []store.Pinger
	)
	switch cfg.StoreDriver {
	case utils.StoreDriverMemory:
		carts = store.NewMemoryCartStore()
		products = store.NewMemoryProductStore()
		log.Warn("using in-memory stores; data is lost on exit")
	default:
		client, err := utils.ConnectDB(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error(err)
			}
		}()
		db := client.Database(cfg.MongoDatabase)
		cartStore := store.NewMongoCartStore(db)
		carts = cartStore
		products = store.NewMongoProductStore(db)
		checks = append(checks, cartStore)
	}

	if cfg.RedisAddr != "" {
		rdb, err := utils.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		cached := store.NewCachedProductStore(products, rdb, cfg.ProductCacheTTL, log.WithField("component", "product_cache"))
		products = cached
		checks = append(checks, cached)
		log.WithField("ttl", cfg.ProductCacheTTL.String()).Info("product cache enabled")
	}

	// Initialize services and controllers
	cartService := services.NewCartService(carts, products, log.WithField("component", "cart_service"))
	productController := controllers.NewProductController(products, log, cfg.RequestTimeout)
	cartController := controllers.NewCartController(cartService, log, cfg.RequestTimeout)
	healthController := controllers.NewHealthController(checks...)

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, log, productController, cartController, healthController)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server is running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorf("http server error: %v", err)
		}
	case <-ctx.Done():
		log.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown error: %v", err)
	}
	log.Info("bye")
}
