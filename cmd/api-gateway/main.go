// Package main 是应用程序入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/inventory-backend/internal/common/cache"
	"github.com/dumeirei/inventory-backend/internal/common/config"
	"github.com/dumeirei/inventory-backend/internal/common/database"
	"github.com/dumeirei/inventory-backend/internal/common/logger"
	"github.com/dumeirei/inventory-backend/internal/common/metrics"
	"github.com/dumeirei/inventory-backend/internal/common/tracing"
	"github.com/dumeirei/inventory-backend/internal/repository"
	"github.com/dumeirei/inventory-backend/internal/scheduler"
	"github.com/dumeirei/inventory-backend/internal/service/stats"
)

func main() {
	// 加载配置
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("Starting Inventory Backend",
		zap.String("version", "1.0.0"),
		zap.String("env", cfg.Server.Mode),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// 初始化链路追踪
	tracer, err := tracing.Init(&cfg.Tracing, cfg.Server.Mode)
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 初始化数据库连接
	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis 可选，仅用于统计缓存与限流
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewClient(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Redis connected successfully")
	} else {
		log.Info("Redis disabled, stats cache and rate limit are off")
	}

	// 初始化对象存储
	uploader, err := newUploader(&cfg.Storage)
	if err != nil {
		log.Fatal("Failed to init storage", zap.Error(err))
	}
	log.Info("Storage initialized", zap.String("provider", cfg.Storage.Provider))

	m := metrics.Init(cfg.Metrics.Namespace)

	// 设置 Gin 模式
	switch {
	case cfg.IsRelease():
		gin.SetMode(gin.ReleaseMode)
	case cfg.IsTest():
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 设置路由
	setupRouter(engine, &routerDeps{
		cfg:      cfg,
		logger:   log,
		db:       db,
		redis:    redisClient,
		uploader: uploader,
		metrics:  m,
	})

	// 定时刷新统计缓存与低库存告警
	sched := scheduler.NewScheduler()
	statsSvc := stats.NewStatsService(db, cache.NewStore(redisClient), &cfg.Business.Stats, m)
	scheduler.NewTaskHandler(repository.NewProductRepository(db), statsSvc, m).
		Register(sched, cfg.Business.Stats.RefreshDuration())
	sched.Start()

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// 创建超时上下文用于优雅关闭
	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	sched.Stop()

	if err := tracer.Shutdown(ctx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}

	// 关闭数据库连接
	if err := database.Close(db); err != nil {
		log.Error("Database close failed", zap.Error(err))
	}

	log.Info("Server exited")
}
