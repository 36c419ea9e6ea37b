// Package render 将广播器状态渲染为 HTML
package render

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"toast-server/toast"
)

//go:embed templates/*.html
var templateFS embed.FS

// BaseClass 通知浮层的固定样式（右下角）
const BaseClass = "fixed bottom-5 right-5 px-4 py-2 rounded text-white shadow-lg transition-all duration-300"

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ColorClass 级别对应的背景色，未知级别不加颜色
func ColorClass(s toast.Severity) string {
	switch s {
	case toast.SeveritySuccess:
		return "bg-green-600"
	case toast.SeverityError:
		return "bg-red-600"
	case toast.SeverityInfo:
		return "bg-blue-600"
	default:
		return ""
	}
}

// Class 通知浮层的完整 class 属性
func Class(s toast.Severity) string {
	if c := ColorClass(s); c != "" {
		return BaseClass + " " + c
	}
	return BaseClass
}

type overlayData struct {
	ID       string
	Class    string
	Severity string
	Message  string
}

// Overlay 渲染通知浮层，Idle 时返回空
func Overlay(s toast.State) (template.HTML, error) {
	switch st := s.(type) {
	case toast.Showing:
		var buf bytes.Buffer
		err := templates.ExecuteTemplate(&buf, "overlay.html", overlayData{
			ID:       st.Toast.ID,
			Class:    Class(st.Toast.Severity),
			Severity: string(st.Toast.Severity),
			Message:  st.Toast.Message,
		})
		if err != nil {
			return "", err
		}
		return template.HTML(strings.TrimSpace(buf.String())), nil
	case toast.Idle, nil:
		return "", nil
	default:
		panic("render: unknown toast state")
	}
}

// PageOptions 页面参数
type PageOptions struct {
	Title       string
	Topic       string // MQTT 主题前缀
	WSPort      string // MQTT WebSocket 端口
	PollSeconds int    // 未提供 token 时轮询 /toast 的间隔
}

type pageData struct {
	PageOptions
	Overlay   template.HTML
	BaseClass string
	Colors    map[string]string
}

// Page 渲染完整页面，包含当前浮层和实时更新脚本
func Page(s toast.State, opts PageOptions) ([]byte, error) {
	overlay, err := Overlay(s)
	if err != nil {
		return nil, err
	}
	if opts.Title == "" {
		opts.Title = "Toast"
	}
	if opts.PollSeconds <= 0 {
		opts.PollSeconds = 1
	}

	var buf bytes.Buffer
	err = templates.ExecuteTemplate(&buf, "page.html", pageData{
		PageOptions: opts,
		Overlay:     overlay,
		BaseClass:   BaseClass,
		Colors: map[string]string{
			string(toast.SeveritySuccess): ColorClass(toast.SeveritySuccess),
			string(toast.SeverityError):   ColorClass(toast.SeverityError),
			string(toast.SeverityInfo):    ColorClass(toast.SeverityInfo),
		},
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
