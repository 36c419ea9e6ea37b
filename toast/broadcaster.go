package toast

import (
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"toast-server/logger"
)

// DismissMode 自动消失定时器的处理方式
type DismissMode string

const (
	// DismissCancel 新通知发布时取消上一条的定时器，每条通知完整显示 Timeout
	DismissCancel DismissMode = "cancel"
	// DismissLegacy 每次发布独立计时且互不取消，旧定时器会提前清除新通知
	DismissLegacy DismissMode = "legacy"
)

// ParseDismissMode 解析消失模式，空字符串返回 DismissCancel
func ParseDismissMode(s string) (DismissMode, error) {
	switch DismissMode(s) {
	case "", DismissCancel:
		return DismissCancel, nil
	case DismissLegacy:
		return DismissLegacy, nil
	}
	return "", fmt.Errorf("未知的 dismiss_mode: %q", s)
}

// Reason 状态变化原因
type Reason string

const (
	ReasonPublish Reason = "publish"
	ReasonExpire  Reason = "expire"
)

// Change 一次状态变化
type Change struct {
	From   State
	To     State
	Reason Reason
}

// Listener 状态变化回调，在广播器锁内同步调用，不能回调广播器
type Listener func(Change)

// Publisher 发布通知的能力
type Publisher interface {
	ShowToast(message string, severity Severity)
	AddToast(message string, severity Severity)
}

// Config 广播器配置
type Config struct {
	Timeout time.Duration // 自动消失时间，默认 3 秒
	Mode    DismissMode   // 定时器模式，默认 cancel
	Clock   Clock         // 时间源，默认系统时钟
}

// Broadcaster 持有唯一的活动通知槽位
type Broadcaster struct {
	timeout time.Duration
	mode    DismissMode
	clock   Clock

	mu        sync.Mutex
	state     State
	timer     Timer
	gen       uint64
	listeners []Listener
	closed    bool
}

var _ Publisher = (*Broadcaster)(nil)

// New 创建广播器
func New(cfg Config) *Broadcaster {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Mode == "" {
		cfg.Mode = DismissCancel
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	return &Broadcaster{
		timeout: cfg.Timeout,
		mode:    cfg.Mode,
		clock:   cfg.Clock,
		state:   Idle{},
	}
}

// OnChange 注册状态变化回调
func (b *Broadcaster) OnChange(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// State 返回当前状态
func (b *Broadcaster) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Timeout 返回自动消失时间
func (b *Broadcaster) Timeout() time.Duration {
	return b.timeout
}

// Mode 返回定时器模式
func (b *Broadcaster) Mode() DismissMode {
	return b.mode
}

// ShowToast 显示一条通知，替换当前通知并重新计时。
// severity 为空时使用 info。
func (b *Broadcaster) ShowToast(message string, severity Severity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		logger.Debug("广播器已关闭，忽略通知", "message", message)
		return
	}

	now := b.clock.Now()
	t := Toast{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Message:   message,
		Severity:  severity.orDefault(),
		ShownAt:   now,
		ExpiresAt: now.Add(b.timeout),
	}

	prev := b.state
	b.state = Showing{Toast: t}
	b.gen++

	switch b.mode {
	case DismissLegacy:
		// 不取消旧定时器，到期时无条件清空
		b.clock.AfterFunc(b.timeout, func() { b.expire(0) })
	default:
		if b.timer != nil {
			b.timer.Stop()
		}
		gen := b.gen
		b.timer = b.clock.AfterFunc(b.timeout, func() { b.expire(gen) })
	}

	logger.Debug("通知已显示", "id", t.ID, "severity", t.Severity, "mode", b.mode)
	b.notify(Change{From: prev, To: b.state, Reason: ReasonPublish})
}

// AddToast 与 ShowToast 行为完全一致，保留用于兼容旧调用方
func (b *Broadcaster) AddToast(message string, severity Severity) {
	b.ShowToast(message, severity)
}

// Success 显示 success 通知
func (b *Broadcaster) Success(message string) { b.ShowToast(message, SeveritySuccess) }

// Error 显示 error 通知
func (b *Broadcaster) Error(message string) { b.ShowToast(message, SeverityError) }

// Info 显示 info 通知
func (b *Broadcaster) Info(message string) { b.ShowToast(message, SeverityInfo) }

// expire 定时器到期回调。gen 为 0 表示 legacy 模式的无条件清空。
func (b *Broadcaster) expire(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if gen != 0 && gen != b.gen {
		return
	}
	if _, idle := b.state.(Idle); idle {
		return
	}

	prev := b.state
	b.state = Idle{}
	if gen != 0 {
		b.timer = nil
	}

	if t, ok := Active(prev); ok {
		logger.Debug("通知已消失", "id", t.ID)
	}
	b.notify(Change{From: prev, To: b.state, Reason: ReasonExpire})
}

func (b *Broadcaster) notify(c Change) {
	for _, l := range b.listeners {
		l(c)
	}
}

// Close 停止待触发的定时器，之后的发布将被忽略
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.closed = true
}
