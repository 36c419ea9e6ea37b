package main

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/oklog/ulid/v2"

	"toast-server/logger"
)

const (
	activeSuffix  = "/active"
	publishSuffix = "/publish"
)

// clientOptions 公共连接参数
func (o *options) clientOptions(role string) *mqtt.ClientOptions {
	clientID := o.clientID
	if clientID == "" {
		clientID = "toast-" + role + "-" + ulid.Make().String()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.broker)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(30 * time.Second) // Cloudflare Tunnel 需要较短的心跳间隔
	opts.SetPingTimeout(10 * time.Second)
	opts.SetWriteTimeout(10 * time.Second)

	// Token 认证 (使用 username 传递 token)
	if o.token != "" {
		opts.SetUsername(o.token)
	}
	return opts
}

// connect 连接 Broker，失败时附带提示
func (o *options) connect(opts *mqtt.ClientOptions) (mqtt.Client, error) {
	client := mqtt.NewClient(opts)

	logger.Info("正在连接...", "broker", o.broker)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		if o.token == "" {
			logger.Warn("服务器可能需要认证，请使用 --token 参数或 AUTH_TOKEN 环境变量")
		} else {
			logger.Warn("请检查 Token 是否正确")
		}
		return nil, fmt.Errorf("无法连接到服务器: %w", token.Error())
	}
	return client, nil
}
