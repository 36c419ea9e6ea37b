// Package handlers HTTP 接口：通知页面、状态查询和 Webhook 发布
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"toast-server/config"
	"toast-server/logger"
	"toast-server/metrics"
	"toast-server/ratelimit"
	"toast-server/render"
	"toast-server/toast"
)

// RouterOptions 路由依赖
type RouterOptions struct {
	Config   *config.Config
	Limiter  *ratelimit.Limiter   // 为空时按配置创建
	Gatherer prometheus.Gatherer // 为空时不注册 /metrics
}

// NewRouter 组装全部 HTTP 路由
func NewRouter(svc PublishService, clients ClientCounter, opts RouterOptions) http.Handler {
	cfg := opts.Config
	webhook := NewWebhookHandler(svc, clients, cfg, opts.Limiter)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", PageHandler(svc, render.PageOptions{
		Title:       cfg.Toast.PageTitle,
		Topic:       cfg.MQTT.Topic,
		WSPort:      cfg.MQTT.WSPort,
		PollSeconds: 1,
	}))
	r.Get("/toast", FragmentHandler(svc))
	r.Get("/health", HealthHandler)
	r.Get("/status", StatusHandler(clients, svc))

	r.Route("/api/toast", func(r chi.Router) {
		r.Use(toast.Middleware(svc))
		r.Get("/", StateHandler(svc))
		r.Post("/{severity}", webhook.Quick)
	})

	// 方法校验由处理器完成，保持与旧版 webhook 相同的错误响应
	r.Handle("/webhook", webhook)
	r.Handle("/webhook/add", webhook.Alias())

	if opts.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(opts.Gatherer))
	}

	return r
}

// requestLogger 请求日志（调试级别）
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP 请求",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
