// Package broker 内嵌 MQTT Broker，向订阅端推送当前通知状态，
// 并接收通过 MQTT 发布的通知请求。
package broker

import (
	"encoding/json"
	"errors"
	"math"
	"path/filepath"

	badgerdb "github.com/dgraph-io/badger/v4"
	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/storage/badger"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"

	"toast-server/logger"
	"toast-server/toast"
)

const (
	// mqttStorageDir MQTT 持久化存储子目录
	mqttStorageDir = "mqtt"

	activeSuffix  = "/active"
	publishSuffix = "/publish"

	publishSubscriptionID = 1
)

var errNotStarted = errors.New("broker 未启动")

// Config Broker 配置
type Config struct {
	SessionExpiry  uint32 // 会话过期时间（秒）
	MessageExpiry  uint32 // 消息过期时间（秒）
	AuthToken      string // 认证 Token
	StorageEnabled bool   // 是否持久化会话和订阅
	StoragePath    string // 持久化存储路径
}

// Broker MQTT Broker 服务
type Broker struct {
	server *mqtt.Server
	topic  string
	config Config
}

// New 创建新的 Broker，topic 为主题前缀
func New(topic string, cfg Config) *Broker {
	return &Broker{
		topic:  topic,
		config: cfg,
	}
}

// ActiveTopic 当前通知状态主题（retained）
func (b *Broker) ActiveTopic() string {
	return b.topic + activeSuffix
}

// PublishTopic 客户端发布通知的主题
func (b *Broker) PublishTopic() string {
	return b.topic + publishSuffix
}

// init 创建 server 并注册钩子，不启动监听
func (b *Broker) init() error {
	b.server = mqtt.New(&mqtt.Options{
		InlineClient: true,
		Logger:       logger.Get(),
		Capabilities: &mqtt.Capabilities{
			MaximumClients:               math.MaxInt64,
			MaximumSessionExpiryInterval: b.config.SessionExpiry,
			MaximumClientWritesPending:   1024,
			MaximumMessageExpiryInterval: int64(b.config.MessageExpiry),
			ReceiveMaximum:               1024,
			MaximumInflight:              8192,
			MaximumQos:                   2,
		},
		ClientNetWriteBufferSize: 4096,
		ClientNetReadBufferSize:  4096,
	})

	logger.Info("MQTT 配置加载",
		"session_expiry", b.config.SessionExpiry,
		"message_expiry", b.config.MessageExpiry,
	)

	// 持久化钩子必须最先添加，以便加载已保存的会话和订阅
	if b.config.StorageEnabled && b.config.StoragePath != "" {
		mqttPath := filepath.Join(b.config.StoragePath, mqttStorageDir)
		badgerOpts := badgerdb.DefaultOptions(mqttPath).
			WithLoggingLevel(badgerdb.WARNING)
		if err := b.server.AddHook(new(badger.Hook), &badger.Options{
			Path:    mqttPath,
			Options: &badgerOpts,
		}); err != nil {
			return err
		}
		logger.Info("MQTT 会话持久化已启用", "path", mqttPath)
	}

	if err := b.server.AddHook(&AuthHook{token: b.config.AuthToken, activeTopic: b.ActiveTopic()}, nil); err != nil {
		return err
	}
	if err := b.server.AddHook(new(LogHook), nil); err != nil {
		return err
	}
	return nil
}

// Start 启动 MQTT Broker
func (b *Broker) Start(tcpAddr, wsAddr string) error {
	if err := b.init(); err != nil {
		return err
	}

	tcp := listeners.NewTCP(listeners.Config{
		ID:      "tcp",
		Address: tcpAddr,
	})
	if err := b.server.AddListener(tcp); err != nil {
		return err
	}
	logger.Info("MQTT TCP 监听", "addr", tcpAddr)

	ws := listeners.NewWebsocket(listeners.Config{
		ID:      "ws",
		Address: wsAddr,
	})
	if err := b.server.AddListener(ws); err != nil {
		return err
	}
	logger.Info("MQTT WebSocket 监听", "addr", wsAddr)

	b.serve()
	return nil
}

func (b *Broker) serve() {
	go func() {
		if err := b.server.Serve(); err != nil {
			logger.Error("MQTT Broker 错误", "error", err)
		}
	}()
	logger.Info("MQTT Broker 已启动")
}

// PublishState 以 retained 消息发布当前状态，新订阅者立即收到
func (b *Broker) PublishState(s toast.State) error {
	if b.server == nil {
		return errNotStarted
	}
	payload, err := json.Marshal(toast.SnapshotOf(s))
	if err != nil {
		return err
	}
	return b.server.Publish(b.ActiveTopic(), payload, true, 1)
}

// Observe 作为 toast.Listener 注册到广播器
func (b *Broker) Observe(c toast.Change) {
	if err := b.PublishState(c.To); err != nil {
		logger.Error("通知状态推送失败", "reason", c.Reason, "error", err)
		return
	}
	logger.Debug("通知状态已推送", "reason", c.Reason, "clients", b.ClientCount())
}

// Bind 订阅发布主题，将收到的请求转发给 Publisher
func (b *Broker) Bind(p toast.Publisher) error {
	if b.server == nil {
		return errNotStarted
	}
	return b.server.Subscribe(b.PublishTopic(), publishSubscriptionID, func(cl *mqtt.Client, sub packets.Subscription, pk packets.Packet) {
		req := decodePublishRequest(pk.Payload)
		logger.Info("收到 MQTT 通知请求", "client_id", cl.ID, "severity", req.Severity, "alias", req.Alias)
		req.Apply(p)
	})
}

// decodePublishRequest 非 JSON 内容整体作为 info 消息
func decodePublishRequest(payload []byte) toast.PublishRequest {
	var req toast.PublishRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return toast.PublishRequest{Message: string(payload)}
	}
	return req
}

// ClientCount 当前连接的客户端数量（排除内置客户端）
func (b *Broker) ClientCount() int {
	if b.server == nil {
		return 0
	}
	count := 0
	for _, cl := range b.server.Clients.GetAll() {
		if cl.Net.Inline || cl.ID == "" || cl.ID[0] == '$' {
			continue
		}
		count++
	}
	return count
}

// Close 关闭 Broker
func (b *Broker) Close() error {
	if b.server == nil {
		return nil
	}
	return b.server.Close()
}
