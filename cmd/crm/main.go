package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/config"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/handler"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/seed"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/sse"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/middleware"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/cache"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/limiter"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/storage"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const driverPostgres = "postgres"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}
	Execute()
}

// deps 服务运行所需的外部依赖
type deps struct {
	db       *gorm.DB
	rdb      *redis.Client
	hub      *sse.Hub
	services *service.Services
}

// ready 数据库与 Redis 连通性
func (d *deps) ready() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if d.db != nil {
		sqlDB, err := d.db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if d.rdb != nil {
		if err := d.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func buildDeps(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (*deps, func(), error) {
	d := &deps{}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var repos *repository.Repositories
	switch cfg.Storage.Driver {
	case driverPostgres:
		db, err := initDatabase(cfg.Database)
		if err != nil {
			return nil, cleanup, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, cleanup, fmt.Errorf("auto migrate: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { sqlDB.Close() })
		}
		d.db = db
		repos = repository.NewGormRepositories(db)
	default:
		repos = repository.NewMemoryRepositories()
	}
	zapLogger.Info("Storage initialized", zap.String("driver", cfg.Storage.Driver))

	var cacheStore cache.Cache = cache.NewMemoryCache()
	if cfg.Redis.Enabled {
		rdb := initRedis(cfg.Redis)
		if err := rdb.Ping(ctx).Err(); err != nil {
			zapLogger.Warn("Redis unreachable, falling back to in-process cache", zap.Error(err))
			rdb.Close()
		} else {
			closers = append(closers, func() { rdb.Close() })
			d.rdb = rdb
			cacheStore = cache.NewRedisCache(rdb, "crm:")
		}
	}

	blobs, err := initStorage(ctx, cfg)
	if err != nil {
		zapLogger.Warn("File storage unavailable, uploads disabled", zap.Error(err))
		blobs = nil
	}

	d.hub = sse.NewHub(zapLogger)
	d.services = service.NewServices(repos, cacheStore, blobs, d.hub, cfg.Auth, zapLogger)
	return d, cleanup, nil
}

func serve(cfg *config.Config, zapLogger *zap.Logger) error {
	zapLogger.Info("Starting gajrajah-crm service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	d, cleanup, err := buildDeps(context.Background(), cfg, zapLogger)
	defer cleanup()
	if err != nil {
		return err
	}

	if cfg.Storage.Seed {
		res, err := seed.Run(context.Background(), d.services, seedOptions(cfg), zapLogger)
		if err != nil {
			zapLogger.Warn("Demo data seed failed", zap.Error(err))
		} else {
			zapLogger.Info("Demo data", zap.Stringer("result", res))
		}
	}

	gin.SetMode(cfg.Server.Mode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics, err := middleware.NewHTTPMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(httpMetrics.Handler())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/events"})))

	var apiMiddleware []gin.HandlerFunc
	if cfg.RateLimit.Enabled && d.rdb != nil {
		rl, err := limiter.New(d.rdb, "crm:", cfg.RateLimit.Limit, cfg.RateLimit.Interval)
		if err != nil {
			return fmt.Errorf("init rate limiter: %w", err)
		}
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(rl, zapLogger))
	}

	handlers := handler.NewHandlers(d.services, d.hub, zapLogger, handler.Options{
		MaxUploadBytes: cfg.Upload.MaxSizeMB << 20,
	})

	// 注册路由
	handler.RegisterRoutes(router, handlers, handler.RouteOptions{
		Auth: middleware.AuthOptions{
			Secret:     cfg.Auth.JWTSecret,
			MockPrefix: cfg.Auth.MockTokenPrefix,
		},
		Version:       Version,
		BuildTime:     BuildTime,
		Ready:         d.ready,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		APIMiddleware: apiMiddleware,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout, // SSE 长连接需为 0
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
	return nil
}

func seedOptions(cfg *config.Config) seed.Options {
	return seed.Options{
		AdminEmail:    cfg.Storage.AdminEmail,
		AdminPassword: cfg.Storage.AdminPassword,
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// initStorage 配置了 MinIO 用 MinIO，否则落本地目录
func initStorage(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	if cfg.MinIO.Endpoint != "" {
		return storage.NewMinIOStore(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey,
			cfg.MinIO.Bucket, cfg.MinIO.UseSSL)
	}
	return storage.NewLocalStore(cfg.Upload.Dir)
}
