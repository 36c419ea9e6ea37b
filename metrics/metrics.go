// Package metrics 导出通知广播的 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"toast-server/toast"
)

const namespace = "toast"

// 消失原因
const (
	DismissExpired  = "expired"
	DismissReplaced = "replaced"
)

// Collector 根据广播器状态变化更新指标
type Collector struct {
	published *prometheus.CounterVec
	dismissed *prometheus.CounterVec
	active    prometheus.Gauge
}

// New 在 reg 上注册指标
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "Total number of toasts published",
		}, []string{"severity"}),

		dismissed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dismissed_total",
			Help:      "Total number of toasts removed from the active slot",
		}, []string{"reason"}),

		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active",
			Help:      "1 while a toast is showing, 0 otherwise",
		}),
	}
}

// Observe 作为 toast.Listener 注册到广播器
func (c *Collector) Observe(ch toast.Change) {
	if _, replaced := toast.Active(ch.From); replaced && ch.Reason == toast.ReasonPublish {
		c.dismissed.WithLabelValues(DismissReplaced).Inc()
	}

	switch ch.Reason {
	case toast.ReasonPublish:
		if t, ok := toast.Active(ch.To); ok {
			c.published.WithLabelValues(severityLabel(t.Severity)).Inc()
		}
		c.active.Set(1)
	case toast.ReasonExpire:
		c.dismissed.WithLabelValues(DismissExpired).Inc()
		c.active.Set(0)
	}
}

// 未知级别统一归为 other，避免标签基数失控
func severityLabel(s toast.Severity) string {
	if s.Known() {
		return string(s)
	}
	return "other"
}

// Handler 暴露 /metrics
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
