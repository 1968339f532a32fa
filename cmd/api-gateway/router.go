// Package main 是应用程序入口
package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/cache"
	"github.com/dumeirei/inventory-backend/internal/common/config"
	"github.com/dumeirei/inventory-backend/internal/common/metrics"
	inventoryHandler "github.com/dumeirei/inventory-backend/internal/handler/inventory"
	uploadHandler "github.com/dumeirei/inventory-backend/internal/handler/upload"
	"github.com/dumeirei/inventory-backend/internal/middleware"
	"github.com/dumeirei/inventory-backend/internal/repository"
	"github.com/dumeirei/inventory-backend/internal/service/catalog"
	"github.com/dumeirei/inventory-backend/internal/service/purchase"
	"github.com/dumeirei/inventory-backend/internal/service/stats"
	"github.com/dumeirei/inventory-backend/internal/service/supplier"
	"github.com/dumeirei/inventory-backend/internal/service/transfer"
	uploadService "github.com/dumeirei/inventory-backend/internal/service/upload"
	"github.com/dumeirei/inventory-backend/pkg/oss"
)

// routerDeps 路由依赖
type routerDeps struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	redis    *redis.Client
	uploader oss.Uploader
	metrics  *metrics.Metrics
}

// setupRouter 设置路由
func setupRouter(r *gin.Engine, deps *routerDeps) {
	cfg := deps.cfg

	// 初始化仓储
	productRepo := repository.NewProductRepository(deps.db)
	categoryRepo := repository.NewCategoryRepository(deps.db)
	supplierRepo := repository.NewSupplierRepository(deps.db)
	purchaseRepo := repository.NewPurchaseRepository(deps.db)

	// 初始化服务
	classifier := catalog.DefaultClassifier()
	productSvc := catalog.NewProductService(productRepo, categoryRepo, purchaseRepo, classifier)
	categorySvc := catalog.NewCategoryService(deps.db, categoryRepo, productRepo)
	supplierSvc := supplier.NewSupplierService(supplierRepo, purchaseRepo)
	purchaseSvc := purchase.NewPurchaseService(deps.db, purchaseRepo, productRepo, supplierRepo, &cfg.Business.Purchase, deps.metrics)
	importSvc := transfer.NewImportService(productRepo, categoryRepo, classifier, deps.uploader, &cfg.Business.Import, deps.metrics)
	exportSvc := transfer.NewExportService(productRepo, purchaseRepo)
	statsSvc := stats.NewStatsService(deps.db, cache.NewStore(deps.redis), &cfg.Business.Stats, deps.metrics)
	uploadSvc := uploadService.NewUploadService(deps.uploader)

	// 初始化处理器
	productH := inventoryHandler.NewProductHandler(productSvc, importSvc, exportSvc, statsSvc, cfg.Business.Import.MaxUploadSize)
	categoryH := inventoryHandler.NewCategoryHandler(categorySvc)
	supplierH := inventoryHandler.NewSupplierHandler(supplierSvc)
	purchaseH := inventoryHandler.NewPurchaseHandler(purchaseSvc, exportSvc, statsSvc)
	statsH := inventoryHandler.NewStatsHandler(statsSvc, purchaseSvc.Location())
	uploadH := uploadHandler.NewHandler(uploadSvc)

	// 全局中间件
	r.Use(middleware.Recovery(deps.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORS(&cfg.CORS))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(cfg.Tracing.ServiceName, "/health", "/ping", "/ready", cfg.Metrics.Path))
	}
	if cfg.Metrics.Enabled && deps.metrics != nil {
		r.Use(deps.metrics.Middleware(cfg.Metrics.Path))
	}
	r.Use(middleware.AccessLog(deps.logger))

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(deps.db, deps.redis))

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地存储的文件直接由服务提供
	if local, ok := deps.uploader.(*oss.LocalUploader); ok && strings.HasPrefix(cfg.Storage.PublicURL, "/") {
		r.Static(cfg.Storage.PublicURL, local.Dir())
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	if cfg.RateLimit.Enabled && deps.redis != nil {
		v1.Use(middleware.IPRateLimit(deps.redis, cfg.RateLimit.Limit, cfg.RateLimit.WindowDuration()))
	}
	{
		productH.RegisterRoutes(v1)
		categoryH.RegisterRoutes(v1)
		supplierH.RegisterRoutes(v1)
		purchaseH.RegisterRoutes(v1)
		statsH.RegisterRoutes(v1)
		uploadH.RegisterRoutes(v1)
	}
}
