package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Config 日志配置
type Config struct {
	ConsoleLevel   string        // console 日志级别: debug, info, warn, error, off
	FileLevel      string        // 文件日志级别: debug, info, warn, error, off
	FilePath       string        // 日志文件路径，为空则不写入文件
	Pretty         bool          // console 是否美化输出
	FileBufferSize int           // 文件缓冲区大小（字节），默认 4096
	FlushInterval  time.Duration // 自动刷新间隔，默认 5 秒
	RotateDays     int           // 轮转天数，默认 1
	MaxFiles       int           // 保留的日志文件数量，默认 7
	Output         io.Writer     // console 输出，默认 os.Stdout
}

// LevelOff 关闭日志输出
const LevelOff = slog.Level(100)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	fileWriter    *rotatingFileWriter
	stopFlush     chan struct{}
)

func init() {
	// Init 之前使用标准库默认日志器
	defaultLogger = slog.Default()
}

// Init 初始化日志系统，重复调用会先关闭上一次打开的日志文件
func Init(cfg Config) (*slog.Logger, error) {
	if cfg.FileBufferSize == 0 {
		cfg.FileBufferSize = 4096
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.RotateDays == 0 {
		cfg.RotateDays = 1
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 7
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	if err := Close(); err != nil {
		return nil, err
	}

	var handlers []slog.Handler

	if level := ParseLevel(cfg.ConsoleLevel, slog.LevelInfo); level < LevelOff {
		if cfg.Pretty {
			handlers = append(handlers, newPrettyHandler(cfg.Output, level))
		} else {
			handlers = append(handlers, slog.NewJSONHandler(cfg.Output, &slog.HandlerOptions{
				Level:     level,
				AddSource: true,
			}))
		}
	}

	var fw *rotatingFileWriter
	if level := ParseLevel(cfg.FileLevel, slog.LevelDebug); cfg.FilePath != "" && level < LevelOff {
		var err error
		fw, err = newRotatingFileWriter(cfg.FilePath, cfg.RotateDays, cfg.MaxFiles, cfg.FileBufferSize)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(fw, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelOff})
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	l := slog.New(handler)

	mu.Lock()
	defaultLogger = l
	fileWriter = fw
	if fw != nil {
		stopFlush = make(chan struct{})
		go flushLoop(fw, cfg.FlushInterval, stopFlush)
	}
	mu.Unlock()

	slog.SetDefault(l)
	return l, nil
}

func flushLoop(w *rotatingFileWriter, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Flush()
		case <-stop:
			return
		}
	}
}

// Flush 刷新文件缓冲区
func Flush() error {
	mu.Lock()
	fw := fileWriter
	mu.Unlock()
	if fw != nil {
		return fw.Flush()
	}
	return nil
}

// Close 停止自动刷新并关闭日志文件
func Close() error {
	mu.Lock()
	fw := fileWriter
	fileWriter = nil
	if stopFlush != nil {
		close(stopFlush)
		stopFlush = nil
	}
	mu.Unlock()

	if fw != nil {
		return fw.Close()
	}
	return nil
}

// ParseLevel 解析日志级别字符串，无法识别时返回 defaultLevel
func ParseLevel(level string, defaultLevel slog.Level) slog.Level {
	switch strings.ToLower(level) {
	case "off", "none", "disabled":
		return LevelOff
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultLevel
	}
}

// Get 获取默认日志器
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return defaultLogger
}

// With 创建带属性的子日志器
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

// 全局便捷方法，直接构造 Record 以保留真实调用位置
func Debug(msg string, args ...any) { logWithCaller(slog.LevelDebug, msg, args...) }
func Info(msg string, args ...any)  { logWithCaller(slog.LevelInfo, msg, args...) }
func Warn(msg string, args ...any)  { logWithCaller(slog.LevelWarn, msg, args...) }
func Error(msg string, args ...any) { logWithCaller(slog.LevelError, msg, args...) }

func logWithCaller(level slog.Level, msg string, args ...any) {
	l := Get()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // 跳过 Callers, logWithCaller, Debug/Info/Warn/Error
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}
