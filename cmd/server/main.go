package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/config"
	"github.com/fekuna/omnipos-catalog-sync/internal/cache"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalog"
	catalogClient "github.com/fekuna/omnipos-catalog-sync/internal/catalog/client"
	"github.com/fekuna/omnipos-catalog-sync/internal/content"
	"github.com/fekuna/omnipos-catalog-sync/internal/database"
	"github.com/fekuna/omnipos-catalog-sync/internal/events"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/notify"
	"github.com/fekuna/omnipos-catalog-sync/internal/override"
	"github.com/fekuna/omnipos-catalog-sync/internal/poller"
	"github.com/fekuna/omnipos-catalog-sync/internal/search"
	"github.com/fekuna/omnipos-catalog-sync/internal/server"
	"github.com/fekuna/omnipos-catalog-sync/internal/view"

	colH "github.com/fekuna/omnipos-catalog-sync/internal/collection/handler"
	colRepoPkg "github.com/fekuna/omnipos-catalog-sync/internal/collection/repository"
	colUCPkg "github.com/fekuna/omnipos-catalog-sync/internal/collection/usecase"

	ovrH "github.com/fekuna/omnipos-catalog-sync/internal/override/handler"
	ovrRepoPkg "github.com/fekuna/omnipos-catalog-sync/internal/override/repository"
	ovrUCPkg "github.com/fekuna/omnipos-catalog-sync/internal/override/usecase"

	prodH "github.com/fekuna/omnipos-catalog-sync/internal/product/handler"
	prodUCPkg "github.com/fekuna/omnipos-catalog-sync/internal/product/usecase"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to Database
	db, err := database.NewPostgres(ctx, &database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis; the override store works without it
	var overrideCache override.Cache
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Redis, override reads go straight to Postgres", zap.Error(err))
	} else {
		defer redisClient.Close()
		overrideCache = redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Catalog client, cache and fetcher
	// Per-call deadlines are set by the callers; the client timeout only
	// catches calls that escape them.
	httpClient := &http.Client{Timeout: 2 * max(cfg.Catalog.PaginatedRequestTimeout, cfg.Catalog.MutationTimeout)}
	catalogSvc, err := catalogClient.NewGraphQLClient(cfg.Catalog.Endpoint, cfg.Catalog.Token, httpClient, appLogger)
	if err != nil {
		appLogger.Fatal("Invalid catalog configuration", zap.Error(err))
	}
	catalogCache := catalog.NewCache(cfg.Catalog.CacheTTL)
	fetcher := catalog.NewFetcher(catalogSvc, catalogCache, catalog.FetcherConfig{
		BroadFetchThreshold:     cfg.Catalog.BroadFetchThreshold,
		SinglePageSize:          cfg.Catalog.SinglePageSize,
		SingleRequestTimeout:    cfg.Catalog.SingleRequestTimeout,
		PaginatedRequestTimeout: cfg.Catalog.PaginatedRequestTimeout,
	}, appLogger)

	// 6. Kafka publisher for batch outcomes
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), appLogger)
		appLogger.Info("Kafka publisher ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer publisher.Close()

	// 7. Elasticsearch; search falls back to the catalog when absent
	var searchIndex prodUCPkg.SearchIndex
	if cfg.Elastic.Enabled {
		if indexer, err := newIndexer(ctx, cfg, appLogger); err != nil {
			appLogger.Warn("Could not connect to Elasticsearch (Search features might be limited)", zap.Error(err))
		} else {
			searchIndex = indexer
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 8. Content generation is optional
	var contentSvc *content.Service
	if cfg.AI.GeminiAPIKey != "" {
		gen, err := content.NewGeminiGenerator(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model)
		if err != nil {
			appLogger.Warn("Could not initialize Gemini, content generation disabled", zap.Error(err))
		} else {
			defer gen.Close()
			contentSvc = content.NewService(gen, appLogger, content.WithAttemptTimeout(cfg.AI.GenerationTimeout))
		}
	}

	notifier, err := notify.New(cfg.I18n.DefaultLanguage)
	if err != nil {
		appLogger.Fatal("Could not load notification messages", zap.Error(err))
	}

	// 9. Initialize UseCases
	ovrUC := ovrUCPkg.NewOverrideUseCase(ovrRepoPkg.NewPGRepository(db), overrideCache, appLogger)
	colUC := colUCPkg.NewCollectionUseCase(colRepoPkg.NewPGRepository(db), appLogger)

	productView := view.New()
	prodUC := prodUCPkg.NewProductUseCase(prodUCPkg.Deps{
		Catalog:     catalogSvc,
		Fetcher:     fetcher,
		Overrides:   ovrUC,
		Collections: colUC,
		Content:     contentSvc,
		Search:      searchIndex,
		View:        productView,
		Notifier:    notifier,
		Publisher:   publisher,
		BatchLimit:  cfg.Sync.BatchLimit,

		SingleTimeout:   cfg.Catalog.SingleRequestTimeout,
		MutationTimeout: cfg.Catalog.MutationTimeout,
	}, appLogger)

	// 10. Mount the product view and start reconciliation polling
	initial, err := fetcher.Refresh(ctx, cfg.Sync.PollCount)
	if err != nil {
		appLogger.Warn("Initial catalog fetch failed, the first poll will fill the view", zap.Error(err))
		initial = []model.CatalogProduct{}
	}
	productView.Mount(initial)
	if err := prodUC.IndexCatalog(ctx, initial); err != nil {
		appLogger.Warn("Initial search indexing failed", zap.Error(err))
	}

	catalogPoller := poller.New(fetcher, poller.Config{
		Interval: cfg.Sync.PollInterval,
		Count:    cfg.Sync.PollCount,
	}, appLogger, productView.Apply, prodUC.IndexCatalog)
	if err := catalogPoller.Start(ctx); err != nil {
		appLogger.Fatal("Could not start catalog poller", zap.Error(err))
	}

	// 11. Initialize Handlers and HTTP server
	opts := []server.Option{
		server.WithRoutes(
			prodH.NewProductHandler(prodUC, appLogger).Routes,
			colH.NewCollectionHandler(colUC, appLogger).Routes,
			ovrH.NewOverrideHandler(ovrUC, appLogger).Routes,
		),
		server.WithReadinessCheck("postgres", db.PingContext),
	}
	if redisClient != nil {
		opts = append(opts, server.WithReadinessCheck("redis", func(ctx context.Context) error {
			return redisClient.Client.Ping(ctx).Err()
		}))
	}
	httpServer := &http.Server{
		Addr:         normalizePort(cfg.Server.HTTPPort),
		Handler:      server.NewRouter(appLogger, opts...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	// 12. Start gRPC health server
	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", grpcPort), zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)
	go func() {
		appLogger.Info("Starting gRPC health server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	catalogPoller.Stop()
	productView.Unmount()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func newIndexer(ctx context.Context, cfg *config.Config, log logger.ZapLogger) (*search.Indexer, error) {
	client, err := search.NewClient(search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
		Index:     cfg.Elastic.Index,
	})
	if err != nil {
		return nil, err
	}
	indexer := search.NewIndexer(client, cfg.Elastic.Index, log)

	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := indexer.EnsureIndex(ensureCtx); err != nil {
		return nil, err
	}
	return indexer, nil
}

func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
