package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"

	"storefront-service/internal/api"
	"storefront-service/internal/cache"
	"storefront-service/internal/config"
	"storefront-service/internal/consumer"
	"storefront-service/internal/gateway"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
	"storefront-service/internal/sharding"
	"storefront-service/migrations"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func connectDBEnv(shard int, cfg config.DBConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				logger.Info().Int("shard", shard).Str("db", cfg.Name).Msg("Connected to DB")
				return db, nil
			}
			db.Close()
		}
		logger.Warn().Err(err).Int("attempt", i+1).Str("db", cfg.Name).Str("addr", cfg.Host+":"+cfg.Port).Msg("Failed to connect to DB, retrying")
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", cfg.Name, cfg.Host, cfg.Port, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	level, _ := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	zerolog.SetGlobalLevel(level)

	dbs := make([]*sql.DB, 0, len(cfg.DBShards))
	for i, shardCfg := range cfg.DBShards {
		db, err := connectDBEnv(i, shardCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		dbs = append(dbs, db)
	}
	catalogDB := dbs[0]

	if err := migrations.AutoMigrateProducts(3, catalogDB); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate products table")
	}
	if err := migrations.AutoMigrateCoupons(3, dbs...); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate coupons table")
	}
	if err := migrations.AutoMigrateOrders(3, dbs...); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate orders tables")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	gw, err := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		KeyID:     cfg.Gateway.KeyID,
		KeySecret: cfg.Gateway.KeySecret,
		Timeout:   cfg.Gateway.Timeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create payment gateway client")
	}

	router := sharding.NewShardRouter(len(dbs))

	productRepo := repository.NewProductRepository(catalogDB)
	couponRepo := repository.NewCouponRepository(dbs, router)
	orderRepo := repository.NewOrderRepository(dbs, router)
	cartRepo := repository.NewCartRepository(rdb)

	productService := service.NewProductService(productRepo, cache.New(rdb, cfg.FeaturedCacheTTL))
	couponService := service.NewCouponService(couponRepo, service.CouponConfig{
		DiscountPercent: cfg.Reward.DiscountPercent,
		Validity:        cfg.Reward.CouponValidity,
		ReissueInactive: cfg.Reward.ReissueInactive,
	})
	cartService := service.NewCartService(cartRepo, productRepo)

	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := productService.PreWarmFeatured(warmCtx); err != nil {
			logger.Warn().Err(err).Msg("Featured cache not warmed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		rewards      service.RewardPublisher
		orderEvents  service.OrderEventPublisher
		asyncRewards *service.AsyncRewardPublisher
		writers      []*kafka.Writer
		consumerDone = make(chan struct{})
	)
	if cfg.Kafka.Enabled() {
		rewardWriter := config.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.RewardTopic)
		orderWriter := config.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
		writers = append(writers, rewardWriter, orderWriter)
		rewards = service.NewKafkaRewardPublisher(rewardWriter)
		orderEvents = service.NewKafkaOrderPublisher(orderWriter)

		reader := config.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.RewardTopic, cfg.Kafka.RewardGroup)
		go func() {
			defer close(consumerDone)
			consumer.NewConsumer(reader, couponService).Run(ctx)
		}()
	} else {
		logger.Warn().Msg("KAFKA_BROKERS not set, issuing reward coupons in process")
		asyncRewards = service.NewAsyncRewardPublisher(couponService)
		rewards = asyncRewards
		close(consumerDone)
	}

	checkoutService := service.NewCheckoutService(productService, couponService, gw, rewards, service.CheckoutConfig{
		Currency:              cfg.Gateway.Currency,
		RewardThreshold:       cfg.Reward.Threshold,
		RewardDiscountPercent: cfg.Reward.DiscountPercent,
	})
	orderService := service.NewOrderService(orderRepo, cartRepo, orderEvents)
	paymentService := service.NewPaymentService(gw, cfg.Gateway.KeySecret, orderService)

	e := echo.New()
	e.HideBanner = true

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"message": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	api.RegisterRoutes(e, api.Handlers{
		Payments: api.NewPaymentHandler(checkoutService, paymentService),
		Coupons:  api.NewCouponHandler(couponService),
		Carts:    api.NewCartHandler(cartService),
		Products: api.NewProductHandler(productService),
	}, cfg.JWTSecret)

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting storefront-service")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		logger.Error().Err(err).Msg("Server failed")
		stop()
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful server shutdown failed")
	}

	<-consumerDone
	if asyncRewards != nil {
		asyncRewards.Wait()
	}
	for _, w := range writers {
		if err := w.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing kafka writer")
		}
	}
	if err := rdb.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing redis client")
	}
	for _, db := range dbs {
		db.Close()
	}
	logger.Info().Msg("Server gracefully stopped")
}
