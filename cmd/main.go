package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/inkdesk/storefront/internal/cache"
	"github.com/inkdesk/storefront/internal/config"
	h "github.com/inkdesk/storefront/internal/http"
	"github.com/inkdesk/storefront/internal/logger"
	"github.com/inkdesk/storefront/internal/media"
	"github.com/inkdesk/storefront/internal/notifier"
	"github.com/inkdesk/storefront/internal/pricing"
	"github.com/inkdesk/storefront/internal/repository"
	"github.com/inkdesk/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	log.Info().Str("env", cfg.AppEnv).Msg("storefront starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.MongoConnectTimeout+cfg.MongoServerSelectionTimeout)
	db, err := repository.ConnectMongoDB(connectCtx, repository.MongoConfig{
		URI:                    cfg.MongoURI,
		Database:               cfg.MongoDBName,
		MaxPoolSize:            cfg.MongoMaxPoolSize,
		MinPoolSize:            cfg.MongoMinPoolSize,
		ConnectTimeout:         cfg.MongoConnectTimeout,
		ServerSelectionTimeout: cfg.MongoServerSelectionTimeout,
	})
	connectCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}()

	if err := repository.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	products := repository.NewProductRepository(db)
	categories := repository.NewCategoryRepository(db)
	banners := repository.NewBannerRepository(db)
	users := repository.NewUserRepository(db)
	orders := repository.NewOrderRepository(db)
	reviews := repository.NewReviewRepository(db)

	// Redis backs the product cache and rate limiting; both degrade when it is down.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, continuing without cache")
	}
	productCache := cache.NewRedisCache(redisClient)

	// Notifications
	var wg sync.WaitGroup
	var dispatcher notifier.Dispatcher
	var kafkaDispatcher *notifier.KafkaDispatcher
	var emailWorker *notifier.EmailWorker
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaDispatcher = notifier.NewKafkaDispatcher(log, cfg.NotificationTopic, brokers...)
		dispatcher = kafkaDispatcher

		mailer := notifier.NewSMTPMailer(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, log)
		emailWorker = notifier.NewEmailWorker(mailer, log, cfg.NotificationTopic, brokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			emailWorker.Run(ctx)
		}()
	} else {
		log.Warn().Msg("KAFKA_BROKERS not set, order notifications are only logged")
		dispatcher = notifier.NewLogDispatcher(log)
	}

	uploader := media.NewHTTPUploader(cfg.MediaBaseURL, cfg.MediaAPIKey, log)

	// Services
	rules := pricing.NewRules(cfg.FreeShippingThreshold, cfg.FlatShippingFee, cfg.TaxRate)
	orderService := service.NewOrderService(products, users, orders, productCache, dispatcher, rules, log)
	cartService := service.NewCartService(users, products)
	catalogService := service.NewCatalogService(categories, products, productCache, uploader, log)
	reviewService := service.NewReviewService(reviews, products, productCache, log)
	bannerService := service.NewBannerService(banners, uploader, log)

	// HTTP
	resp := h.NewResponder(cfg.IsDevelopment(), log)
	handlers := h.Handlers{
		Orders:  h.NewOrderHandler(orderService, resp, cfg.RequestTimeout),
		Cart:    h.NewCartHandler(cartService, resp, cfg.RequestTimeout),
		Catalog: h.NewCatalogHandler(catalogService, resp, cfg.RequestTimeout),
		Reviews: h.NewReviewHandler(reviewService, resp, cfg.RequestTimeout),
		Banners: h.NewBannerHandler(bannerService, resp, cfg.RequestTimeout),
		Uploads: h.NewUploadHandler(uploader, resp, cfg.RequestTimeout),
	}
	middleware := h.NewMiddleware(resp, h.NewTokenVerifier(cfg.JWTSecret), redisClient, log)
	router := h.NewRouter(handlers, middleware, h.RouterConfig{
		OrderRateLimit:  cfg.OrderRateLimit,
		OrderRateWindow: time.Minute,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// gRPC health
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen")
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("grpc health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("grpc server error")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down storefront...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}
	grpcServer.GracefulStop()

	waitOrTimeout(shutdownCtx, &wg, log)
	if emailWorker != nil {
		emailWorker.Close()
	}
	if kafkaDispatcher != nil {
		if err := kafkaDispatcher.Close(); err != nil {
			log.Error().Err(err).Msg("close kafka dispatcher")
		}
	}
	log.Info().Msg("storefront stopped")
}

func waitOrTimeout(ctx context.Context, wg *sync.WaitGroup, log zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("email worker stopped cleanly")
	case <-ctx.Done():
		log.Warn().Msg("email worker didn't stop in time")
	}
}
