package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"toast-server/logger"
	"toast-server/render"
	"toast-server/toast"
)

// StateSource 读取当前通知状态
type StateSource interface {
	State() toast.State
}

// ClientCounter 统计 MQTT 在线客户端
type ClientCounter interface {
	ClientCount() int
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HealthHandler 健康检查
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusHandler 状态检查
func StatusHandler(clients ClientCounter, src StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"clients": clients.ClientCount(),
			"toast":   toast.SnapshotOf(src.State()).State,
		})
	}
}

// StateHandler 当前通知的 JSON 表示
func StateHandler(src StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, toast.SnapshotOf(src.State()))
	}
}

// FragmentHandler 当前通知浮层的 HTML 片段，Idle 时返回空内容
func FragmentHandler(src StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html, err := render.Overlay(src.State())
		if err != nil {
			logger.Error("通知浮层渲染失败", "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write([]byte(html))
	}
}

// PageHandler 展示页面
func PageHandler(src StateSource, opts render.PageOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := render.Page(src.State(), opts)
		if err != nil {
			logger.Error("页面渲染失败", "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}

// ExtractToken 从请求中提取 Token
// 支持 Authorization: Bearer <token>、X-Auth-Token 头和 ?token= 参数
func ExtractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
		return auth
	}
	if token := r.Header.Get("X-Auth-Token"); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// ValidateToken 校验 Token
func ValidateToken(r *http.Request, token string) bool {
	got := ExtractToken(r)
	return got != "" && got == token
}
