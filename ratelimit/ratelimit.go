// Package ratelimit 按 IP 统计认证失败次数，超过阈值后临时封禁
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"toast-server/logger"
)

// Config 限流配置
type Config struct {
	MaxFailures int           // 最大失败次数，默认 5
	BlockTime   time.Duration // 封禁时间，默认 15 分钟
	WindowTime  time.Duration // 统计窗口时间，默认 5 分钟
}

// Limiter IP 限流器
type Limiter struct {
	config   Config
	now      func() time.Time
	failures map[string]*failureRecord
	mu       sync.Mutex
	stop     chan struct{}
	once     sync.Once
}

type failureRecord struct {
	count     int
	firstFail time.Time
	blockedAt time.Time
}

// New 创建限流器并启动后台清理
func New(cfg Config) *Limiter {
	l := newLimiter(cfg, time.Now)
	go l.cleanupLoop(5 * time.Minute)
	return l
}

func newLimiter(cfg Config, now func() time.Time) *Limiter {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.BlockTime <= 0 {
		cfg.BlockTime = 15 * time.Minute
	}
	if cfg.WindowTime <= 0 {
		cfg.WindowTime = 5 * time.Minute
	}
	return &Limiter{
		config:   cfg,
		now:      now,
		failures: make(map[string]*failureRecord),
		stop:     make(chan struct{}),
	}
}

func (r *failureRecord) blocked(now time.Time, blockTime time.Duration) bool {
	return !r.blockedAt.IsZero() && now.Sub(r.blockedAt) < blockTime
}

// IsBlocked 检查 IP 是否被封禁
func (l *Limiter) IsBlocked(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.failures[ip]
	return ok && record.blocked(l.now(), l.config.BlockTime)
}

// RecordFailure 记录认证失败，返回该 IP 是否已被封禁
func (l *Limiter) RecordFailure(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	record, ok := l.failures[ip]
	if !ok {
		record = &failureRecord{firstFail: now}
		l.failures[ip] = record
	}

	if record.blocked(now, l.config.BlockTime) {
		return true
	}

	// 窗口过期（或封禁已结束）时重新计数
	if now.Sub(record.firstFail) > l.config.WindowTime || !record.blockedAt.IsZero() {
		*record = failureRecord{firstFail: now}
	}

	record.count++
	if record.count >= l.config.MaxFailures {
		record.blockedAt = now
		logger.Warn("IP 已被封禁",
			"ip", ip,
			"failures", record.count,
			"block_duration", l.config.BlockTime.String(),
		)
		return true
	}

	logger.Debug("认证失败记录",
		"ip", ip,
		"failures", record.count,
		"remaining", l.config.MaxFailures-record.count,
	)
	return false
}

// RecordSuccess 认证成功，清除失败记录
func (l *Limiter) RecordSuccess(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, ip)
}

// BlockedIPs 当前被封禁的 IP
func (l *Limiter) BlockedIPs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var blocked []string
	for ip, record := range l.failures {
		if record.blocked(now, l.config.BlockTime) {
			blocked = append(blocked, ip)
		}
	}
	return blocked
}

// Close 停止后台清理
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

// cleanup 删除已解封和过期的记录
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for ip, record := range l.failures {
		if !record.blockedAt.IsZero() {
			if now.Sub(record.blockedAt) > l.config.BlockTime {
				delete(l.failures, ip)
			}
			continue
		}
		if now.Sub(record.firstFail) > l.config.WindowTime*2 {
			delete(l.failures, ip)
		}
	}
}

// GetClientIP 获取客户端 IP，依次使用 X-Forwarded-For、X-Real-IP、RemoteAddr
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
