package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/telk/go_shop/internal/cache"
	"github.com/telk/go_shop/internal/client"
	"github.com/telk/go_shop/internal/consumer"
	"github.com/telk/go_shop/internal/domain"
	h "github.com/telk/go_shop/internal/http"
	"github.com/telk/go_shop/internal/poller"
	"github.com/telk/go_shop/internal/publisher"
	"github.com/telk/go_shop/internal/repository"
	"github.com/telk/go_shop/internal/service"
)

type Config struct {
	HTTPPort         string
	MongoURI         string
	MongoDatabase    string
	RedisAddr        string
	KafkaBrokers     string
	ProductBaseURL   string
	InventoryBaseURL string
	CartExpiry       time.Duration
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
	Postgres         *repository.Credentials
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}
	cartExpiry, err := time.ParseDuration(getEnv("CART_EXPIRY", "720h"))
	if err != nil {
		log.Fatalf("Invalid CART_EXPIRY: %v", err)
	}

	return &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "purchase"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:     getEnv("KAFKA_BROKERS", "localhost:9092"),
		ProductBaseURL:   getEnv("PRODUCT_SERVICE_URL", "http://localhost:8081"),
		InventoryBaseURL: getEnv("INVENTORY_SERVICE_URL", "http://localhost:8082"),
		CartExpiry:       cartExpiry,
		RequestTimeout:   30 * time.Second,
		ShutdownTimeout:  10 * time.Second,
		Postgres: &repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "purchase"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("purchase-service starting...")
	cfg := loadConfig()
	var wg sync.WaitGroup

	// MongoDB for carts
	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repository.OpenMongoDatabase(mongoCtx, repository.DefaultMongoConfig(cfg.MongoURI, cfg.MongoDatabase))
	mongoCancel()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	cartRepo := repository.NewMongoCartRepository(db)

	// PostgreSQL for orders
	orderRepo, err := repository.NewPostgresOrderRepository(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer orderRepo.Close()

	if err := orderRepo.RunMigrations(cfg.Postgres); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Redis cache
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	cartCache := cache.NewRedisCache(redisClient)
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("error closing redis client: %v", err)
		}
	}()

	// Upstream services
	productClient := client.NewProductClient(cfg.ProductBaseURL, cfg.RequestTimeout)
	inventoryClient := client.NewInventoryClient(cfg.InventoryBaseURL, cfg.RequestTimeout)

	cartService := service.NewCartService(cartRepo, cartCache, productClient, inventoryClient, domain.SystemTime)
	orderService := service.NewOrderService(orderRepo, cartRepo, cartCache, productClient, inventoryClient, domain.SystemTime)

	// Background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	brokers := strings.Split(cfg.KafkaBrokers, ",")

	outboxPoller := publisher.NewOutboxPoller(orderRepo, brokers...)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outboxPoller.Run(workerCtx)
	}()

	stockConsumer := consumer.NewStockConsumer(cartRepo, cartService, brokers...)
	wg.Add(1)
	go func() {
		defer wg.Done()
		stockConsumer.Run(workerCtx)
	}()

	expirySweeper := poller.NewExpirySweeper(cartRepo, cartCache, domain.SystemTime, cfg.CartExpiry)
	wg.Add(1)
	go func() {
		defer wg.Done()
		expirySweeper.Run(workerCtx)
	}()

	// HTTP server
	router := h.NewRouter(
		h.NewCartHandler(cartService, cfg.RequestTimeout),
		h.NewOrderHandler(orderService, cfg.RequestTimeout),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "purchase-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("purchase-service listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down purchase-service...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	workerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Println("workers stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("workers didn't stop in time")
	}

	outboxPoller.Close()
	stockConsumer.Close()
	log.Println("purchase-service stopped")
}
