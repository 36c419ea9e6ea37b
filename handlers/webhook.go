package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"toast-server/config"
	"toast-server/logger"
	"toast-server/ratelimit"
	"toast-server/toast"
)

// maxBodySize 请求体上限
const maxBodySize = 64 << 10

// Request Webhook 请求结构，message 与 content 二选一
type Request struct {
	Message  string         `json:"message"`
	Content  string         `json:"content,omitempty"` // 兼容旧版 webhook 字段
	Severity toast.Severity `json:"severity,omitempty"`
}

func (r Request) text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Content
}

// Response Webhook 响应
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Toast   *toast.Toast `json:"toast,omitempty"`
	Clients int          `json:"clients,omitempty"`
}

// PublishService 发布通知并读取状态
type PublishService interface {
	toast.Publisher
	StateSource
}

// WebhookHandler 通过 HTTP 发布通知
type WebhookHandler struct {
	svc     PublishService
	clients ClientCounter
	token   string
	limiter *ratelimit.Limiter
	alias   bool // true 时调用 AddToast
}

// NewWebhookHandler 创建 Webhook 处理器
func NewWebhookHandler(svc PublishService, clients ClientCounter, cfg *config.Config, limiter *ratelimit.Limiter) *WebhookHandler {
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Config{
			MaxFailures: cfg.RateLimit.MaxFailures,
			BlockTime:   time.Duration(cfg.RateLimit.BlockTime) * time.Second,
			WindowTime:  time.Duration(cfg.RateLimit.WindowTime) * time.Second,
		})
	}
	return &WebhookHandler{
		svc:     svc,
		clients: clients,
		token:   cfg.Auth.Token,
		limiter: limiter,
	}
}

// Alias 返回调用 AddToast 的同配置处理器
func (h *WebhookHandler) Alias() *WebhookHandler {
	alias := *h
	alias.alias = true
	return &alias
}

// ServeHTTP 处理 Webhook 请求
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		logger.Error("读取请求体失败", "error", err)
		h.sendError(w, http.StatusBadRequest, "读取请求体失败")
		return
	}

	logger.Debug("收到 Webhook 请求", "body_size", len(body), "alias", h.alias)

	var req Request
	if err := json.Unmarshal(fixJSONNewlines(body), &req); err != nil {
		logger.Warn("JSON 解析失败", "error", err)
		h.sendError(w, http.StatusBadRequest, "JSON 解析失败: "+err.Error())
		return
	}

	// 不校验内容，空消息和未知级别均原样显示
	if h.alias {
		h.svc.AddToast(req.text(), req.Severity)
	} else {
		h.svc.ShowToast(req.text(), req.Severity)
	}

	h.sendShown(w)
}

// Quick 以纯文本请求体发布通知，级别取自路径参数
// POST /api/toast/{severity}
func (h *WebhookHandler) Quick(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	p, err := toast.FromContext(r.Context())
	if err != nil {
		logger.Error("请求上下文缺少通知发布器", "error", err)
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "读取请求体失败")
		return
	}

	message := strings.TrimRight(string(body), "\r\n")
	p.ShowToast(message, toast.Severity(chi.URLParam(r, "severity")))

	h.sendShown(w)
}

// authorize 校验 IP 封禁、请求方法和 Token，失败时已写入响应
func (h *WebhookHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	clientIP := ratelimit.GetClientIP(r)

	if h.limiter.IsBlocked(clientIP) {
		logger.Warn("请求被拒绝，IP 已封禁", "ip", clientIP)
		h.sendError(w, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
		return false
	}

	if r.Method != http.MethodPost {
		logger.Warn("Webhook 收到非 POST 请求", "method", r.Method)
		h.sendError(w, http.StatusMethodNotAllowed, "只支持 POST 请求")
		return false
	}

	if !ValidateToken(r, h.token) {
		h.limiter.RecordFailure(clientIP)
		logger.Warn("Webhook Token 校验失败", "ip", clientIP)
		h.sendError(w, http.StatusUnauthorized, "认证失败")
		return false
	}
	h.limiter.RecordSuccess(clientIP)
	return true
}

func (h *WebhookHandler) sendShown(w http.ResponseWriter) {
	resp := Response{Success: true, Message: "通知已显示", Clients: h.clients.ClientCount()}
	if t, ok := toast.Active(h.svc.State()); ok {
		resp.Toast = &t
		logger.Info("通知已显示", "id", t.ID, "severity", t.Severity, "clients", resp.Clients)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *WebhookHandler) sendError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

// fixJSONNewlines 将 JSON 字符串值中的真实换行符和制表符转换为转义序列
func fixJSONNewlines(data []byte) []byte {
	if !bytes.ContainsAny(data, "\n\r\t") {
		return data
	}

	var result bytes.Buffer
	result.Grow(len(data) + 8)
	inString := false
	escaped := false

	for _, c := range data {
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString && c == '\n':
			result.WriteString(`\n`)
			continue
		case inString && c == '\r':
			result.WriteString(`\r`)
			continue
		case inString && c == '\t':
			result.WriteString(`\t`)
			continue
		}
		result.WriteByte(c)
	}

	return result.Bytes()
}
