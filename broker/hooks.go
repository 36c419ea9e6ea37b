package broker

import (
	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"

	"toast-server/logger"
)

// LogHook 日志钩子
type LogHook struct {
	mqtt.HookBase
}

func (h *LogHook) ID() string {
	return "log-hook"
}

func (h *LogHook) Provides(b byte) bool {
	return b == mqtt.OnConnect ||
		b == mqtt.OnDisconnect ||
		b == mqtt.OnSubscribed ||
		b == mqtt.OnPublished
}

func (h *LogHook) OnConnect(cl *mqtt.Client, pk packets.Packet) error {
	logger.Info("MQTT 客户端连接", "client_id", cl.ID)
	return nil
}

func (h *LogHook) OnDisconnect(cl *mqtt.Client, err error, expire bool) {
	if err != nil {
		logger.Info("MQTT 客户端断开", "client_id", cl.ID, "error", err)
		return
	}
	logger.Info("MQTT 客户端断开", "client_id", cl.ID)
}

func (h *LogHook) OnSubscribed(cl *mqtt.Client, pk packets.Packet, reasonCodes []byte) {
	for _, sub := range pk.Filters {
		logger.Debug("MQTT 客户端订阅", "client_id", cl.ID, "topic", sub.Filter)
	}
}

func (h *LogHook) OnPublished(cl *mqtt.Client, pk packets.Packet) {
	logger.Debug("MQTT 消息发布", "topic", pk.TopicName, "payload_size", len(pk.Payload))
}

// AuthHook Token 认证与主题权限
type AuthHook struct {
	mqtt.HookBase
	token       string
	activeTopic string // 只有内置客户端可以写入
}

func (h *AuthHook) ID() string {
	return "token-auth"
}

func (h *AuthHook) Provides(b byte) bool {
	return b == mqtt.OnConnectAuthenticate || b == mqtt.OnACLCheck
}

// OnConnectAuthenticate 连接认证，token 可放在 username 或 password 中
func (h *AuthHook) OnConnectAuthenticate(cl *mqtt.Client, pk packets.Packet) bool {
	if h.token == "" {
		return true
	}

	username := string(pk.Connect.Username)
	if username == h.token {
		logger.Debug("MQTT 认证成功 (username)", "client_id", cl.ID)
		return true
	}
	if string(pk.Connect.Password) == h.token {
		logger.Debug("MQTT 认证成功 (password)", "client_id", cl.ID)
		return true
	}

	logger.Warn("MQTT 认证失败", "client_id", cl.ID, "username", username)
	return false
}

// OnACLCheck 已认证客户端可订阅任意主题，但不能伪造通知状态
func (h *AuthHook) OnACLCheck(cl *mqtt.Client, topic string, write bool) bool {
	if write && topic == h.activeTopic && !cl.Net.Inline {
		logger.Warn("拒绝写入通知状态主题", "client_id", cl.ID, "topic", topic)
		return false
	}
	return true
}
