// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	cacheHitsTotal       *prometheus.CounterVec
	cacheMissesTotal     *prometheus.CounterVec
	purchasesTotal       *prometheus.CounterVec
	orderNoRetriesTotal  prometheus.Counter
	stockUnitsTotal      *prometheus.CounterVec
	importRowsTotal      *prometheus.CounterVec
	importDuration       prometheus.Histogram
	lowStockProducts     prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	initOnce       sync.Once
)

// New 在指定注册器上创建指标收集器
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "inventory"
	}
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		cacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
		purchasesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purchases_total",
				Help:      "Total number of purchase ledger operations",
			},
			[]string{"operation", "result"},
		),
		orderNoRetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purchase_order_no_retries_total",
				Help:      "Total number of order number collisions that triggered a retry",
			},
		),
		stockUnitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_units_total",
				Help:      "Total stock units applied by purchase ledger",
			},
			[]string{"direction"},
		),
		importRowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_rows_total",
				Help:      "Total number of processed import rows",
			},
			[]string{"result"},
		),
		importDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "import_duration_seconds",
				Help:      "Product import duration in seconds",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		lowStockProducts: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "low_stock_products",
				Help:      "Number of products at or below the low stock threshold",
			},
		),
	}
}

// Init 初始化默认指标收集器，重复调用返回同一实例
func Init(namespace string) *Metrics {
	initOnce.Do(func() {
		defaultMetrics = New(namespace, prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware(metricsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过 metrics 端点本身
		if c.Request.URL.Path == metricsPath {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordCacheHit 记录缓存命中，m 为 nil 时 Record 系列方法均为空操作
func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordPurchase 记录采购单操作，operation 为 create/delete，result 为 success/failure
func (m *Metrics) RecordPurchase(operation, result string) {
	if m == nil {
		return
	}
	m.purchasesTotal.WithLabelValues(operation, result).Inc()
}

// RecordOrderNoRetry 记录单号冲突重试
func (m *Metrics) RecordOrderNoRetry() {
	if m == nil {
		return
	}
	m.orderNoRetriesTotal.Inc()
}

// RecordStock 记录库存变动数量，direction 为 in/out
func (m *Metrics) RecordStock(direction string, units int) {
	if m == nil || units <= 0 {
		return
	}
	m.stockUnitsTotal.WithLabelValues(direction).Add(float64(units))
}

// RecordImport 记录一次导入的结果
func (m *Metrics) RecordImport(imported, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.importRowsTotal.WithLabelValues("imported").Add(float64(imported))
	m.importRowsTotal.WithLabelValues("failed").Add(float64(failed))
	m.importDuration.Observe(duration.Seconds())
}

// SetLowStockProducts 更新低库存商品数量
func (m *Metrics) SetLowStockProducts(n int64) {
	if m == nil {
		return
	}
	m.lowStockProducts.Set(float64(n))
}
