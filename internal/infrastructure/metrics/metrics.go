// Package metrics 定义 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WsConnections 当前 websocket 连接数
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "revu_ws_connections",
		Help: "Number of open websocket connections.",
	})

	// ChatMessages 成功落库的私聊消息数
	ChatMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "revu_chat_messages_total",
		Help: "Private messages persisted.",
	})

	// ChatEventErrors 按事件名统计的失败次数
	ChatEventErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revu_chat_event_errors_total",
		Help: "Real-time events that ended with an error reply or a logged failure.",
	}, []string{"event"})
)

// Registry 应用专用的指标注册表
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		WsConnections,
		ChatMessages,
		ChatEventErrors,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
}

// Handler /metrics 暴露端点
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
