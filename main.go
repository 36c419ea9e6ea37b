package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"toast-server/broker"
	"toast-server/config"
	"toast-server/handlers"
	"toast-server/logger"
	"toast-server/metrics"
	"toast-server/ratelimit"
	"toast-server/toast"
)

// 版本信息（通过 -ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 处理 --version 参数
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("toast-server %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// 初始化日志
	logCfg := logger.Config{
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		FilePath:     cfg.Log.FilePath,
		Pretty:       cfg.Log.Pretty,
		RotateDays:   cfg.Log.RotateDays,
		MaxFiles:     cfg.Log.MaxFiles,
	}
	if _, err := logger.Init(logCfg); err != nil {
		fmt.Printf("日志初始化失败: %v\n", err)
		os.Exit(1)
	}

	logger.Info("启动 Toast Server...", "version", Version)

	// 通知广播器
	mode, _ := toast.ParseDismissMode(cfg.Toast.DismissMode) // Load 已校验
	broadcaster := toast.New(toast.Config{
		Timeout: cfg.Toast.Timeout(),
		Mode:    mode,
	})
	logger.Info("通知广播器已创建", "timeout", broadcaster.Timeout(), "dismiss_mode", broadcaster.Mode())

	// 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	broadcaster.OnChange(metrics.New(registry).Observe)

	// 创建并启动 MQTT Broker
	mqttBroker := broker.New(cfg.MQTT.Topic, broker.Config{
		SessionExpiry:  cfg.MQTT.SessionExpiry,
		MessageExpiry:  cfg.MQTT.MessageExpiry,
		AuthToken:      cfg.Auth.Token,
		StorageEnabled: cfg.Storage.Enabled,
		StoragePath:    cfg.Storage.Path,
	})

	// 日志输出认证状态
	if cfg.Auth.Generated {
		logger.Warn("未设置 AUTH_TOKEN，已自动生成", "token", cfg.Auth.Token)
	} else {
		logger.Info("认证已启用", "token_length", len(cfg.Auth.Token))
	}
	if err := mqttBroker.Start(":"+cfg.MQTT.TCPPort, ":"+cfg.MQTT.WSPort); err != nil {
		logger.Error("MQTT Broker 启动失败", "error", err)
		os.Exit(1)
	}

	// 覆盖上次运行遗留的 retained 状态
	if err := mqttBroker.PublishState(broadcaster.State()); err != nil {
		logger.Warn("初始状态推送失败", "error", err)
	}
	broadcaster.OnChange(mqttBroker.Observe)
	if err := mqttBroker.Bind(broadcaster); err != nil {
		logger.Error("MQTT 发布主题订阅失败", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(ratelimit.Config{
		MaxFailures: cfg.RateLimit.MaxFailures,
		BlockTime:   time.Duration(cfg.RateLimit.BlockTime) * time.Second,
		WindowTime:  time.Duration(cfg.RateLimit.WindowTime) * time.Second,
	})

	addr := ":" + cfg.HTTP.Port
	srv := &http.Server{
		Addr: addr,
		Handler: handlers.NewRouter(broadcaster, mqttBroker, handlers.RouterOptions{
			Config:   cfg,
			Limiter:  limiter,
			Gatherer: registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 优雅关闭
	done := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("正在关闭服务...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("HTTP 服务器关闭超时", "error", err)
		}
		broadcaster.Close()
		limiter.Close()
		mqttBroker.Close()
		close(done)
	}()

	// 启动 HTTP 服务器
	logger.Info("HTTP 服务器启动", "addr", addr)
	logger.Info("通知页面", "url", fmt.Sprintf("http://localhost%s/", addr))
	logger.Info("Webhook 端点", "url", fmt.Sprintf("POST http://localhost%s/webhook", addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP 服务器启动失败", "error", err)
		logger.Close()
		os.Exit(1)
	}

	<-done
	logger.Close() // 刷新并关闭日志文件
}
