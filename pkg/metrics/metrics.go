package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 服务专用的指标注册表
var Registry = prometheus.NewRegistry()

var (
	// AuthzDecisions 授权判定次数
	AuthzDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrismart_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"gate", "outcome"},
	)

	// HTTPRequestsTotal HTTP请求总数
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrismart_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrismart_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SnapshotWrites 用户权限快照写入次数
	SnapshotWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrismart_permission_snapshot_writes_total",
			Help: "Total number of user permission snapshot writes",
		},
		[]string{"action"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		AuthzDecisions,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SnapshotWrites,
	)
}

// Handler 暴露 /metrics
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware 记录请求次数和耗时，route 使用路由模板避免标签爆炸
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
