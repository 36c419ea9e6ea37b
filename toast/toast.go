// Package toast 实现单槽位的短时通知（toast）广播器。
//
// 任意时刻最多只有一条通知处于显示状态，新发布的通知直接替换旧通知，
// 并在固定延迟后自动消失。
package toast

import (
	"time"
)

// Severity 通知级别，只影响展示样式
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// DefaultTimeout 默认自动消失时间
const DefaultTimeout = 3000 * time.Millisecond

// orDefault 未指定级别时使用 info，其余值原样保留
func (s Severity) orDefault() Severity {
	if s == "" {
		return SeverityInfo
	}
	return s
}

// Known 是否为可识别的级别
func (s Severity) Known() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityInfo:
		return true
	}
	return false
}

// Toast 一条通知
type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	ShownAt   time.Time `json:"shown_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// State 广播器状态：Idle 或 Showing
type State interface {
	isState()
}

// Idle 没有正在显示的通知
type Idle struct{}

// Showing 正在显示一条通知
type Showing struct {
	Toast Toast
}

func (Idle) isState()    {}
func (Showing) isState() {}

// Active 返回正在显示的通知
func Active(s State) (Toast, bool) {
	if sh, ok := s.(Showing); ok {
		return sh.Toast, true
	}
	return Toast{}, false
}
