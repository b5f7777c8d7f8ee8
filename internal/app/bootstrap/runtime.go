package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	auditadapter "github.com/viralforge/account-service/internal/adapters/audit"
	cacheadapter "github.com/viralforge/account-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/account-service/internal/adapters/events"
	httpadapter "github.com/viralforge/account-service/internal/adapters/http"
	"github.com/viralforge/account-service/internal/adapters/postgres"
	"github.com/viralforge/account-service/internal/adapters/security"
	"github.com/viralforge/account-service/internal/application"
)

type Runtime struct {
	cfg         Config
	logger      *slog.Logger
	httpServer  *http.Server
	grpcServer  *grpc.Server
	grpcLis     net.Listener
	auditWorker *eventadapter.AuditPublishWorker
	dispatcher  *auditadapter.Dispatcher
	cleanupFn   func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger = logger.With("service", cfg.ServiceID)
	logger.Info("bootstrapping account service",
		"environment", cfg.Environment,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	users := postgres.NewUserRepository(db)
	auditLog := postgres.NewAuditLogRepository(db)

	issuer, err := security.NewJWTIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init jwt issuer: %w", err)
	}

	auditSink := auditadapter.NewFanoutSink(
		auditadapter.NewSlogSink(logger),
		auditadapter.NewRepositorySink(auditLog, logger),
	)
	dispatcher := auditadapter.NewDispatcher(auditSink, cfg.AuditBufferSize)

	svc := application.NewService(application.Dependencies{
		Users:  users,
		Hasher: security.NewBcryptHasher(cfg.BcryptCost),
		Tokens: security.NewRefreshTokenHasher(cfg.BcryptCost),
		Issuer: issuer,
		Audit:  dispatcher,
		Logger: logger,
	})

	limiter := httpadapter.NewRateLimiter(
		cacheadapter.NewRedisRateLimitStore(redisClient, ""),
		dispatcher,
		logger,
	)
	handler := httpadapter.NewHandler(svc, cfg.Production(), map[string]func(context.Context) error{
		"postgres": sqlDB.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})
	router := httpadapter.NewRouter(handler, httpadapter.Guards{
		RateLimiter: limiter,
		DefaultTier: []httpadapter.TierLimit{
			{Name: "short", Limit: int64(cfg.ShortTierLimit), Window: cfg.ShortTierWindow},
			{Name: "long", Limit: int64(cfg.LongTierLimit), Window: cfg.LongTierWindow},
		},
		StrictTier: []httpadapter.TierLimit{
			{Name: "strict", Limit: int64(cfg.StrictTierLimit), Window: cfg.StrictTierWindow},
		},
		CSRF:    httpadapter.NewCSRFGuard(cfg.Production(), cfg.AllowedOrigins, dispatcher, logger),
		Auth:    httpadapter.NewAuthGuard(issuer, dispatcher),
		Refresh: httpadapter.NewRefreshGuard(issuer, dispatcher),
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           http.TimeoutHandler(router, cfg.RequestTimeout, `{"statusCode":503,"message":"Request timed out"}`),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	var auditWorker *eventadapter.AuditPublishWorker
	var closePublisher func() error
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			_ = lis.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		auditWorker = eventadapter.NewAuditPublishWorker(
			logger,
			auditLog,
			publisher,
			cfg.AuditPollInterval,
			cfg.AuditBatchSize,
			cfg.AuditMaxRetries,
		)
		closePublisher = publisher.Close
	}

	return &Runtime{
		cfg:         cfg,
		logger:      logger,
		httpServer:  httpServer,
		grpcServer:  grpcServer,
		grpcLis:     lis,
		auditWorker: auditWorker,
		dispatcher:  dispatcher,
		cleanupFn: func(ctx context.Context) {
			dispatcher.Close()
			if closePublisher != nil {
				_ = closePublisher()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r.auditWorker == nil {
		return fmt.Errorf("audit worker requires KAFKA_BROKERS")
	}

	r.logger.Info("audit publish worker started")
	err := r.auditWorker.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
