package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"toast-server/logger"
	"toast-server/toast"
)

// notifyFunc 显示系统通知
type notifyFunc func(t toast.Toast) error

// runFunc 对新通知执行外部命令
type runFunc func(t toast.Toast, raw []byte)

// watcher 跟踪最近显示的通知，重连时的 retained 消息不会重复提示
type watcher struct {
	mu     sync.Mutex
	lastID string
	notify notifyFunc
	run    runFunc
}

// handle 处理一条状态消息，返回是否为新通知
func (w *watcher) handle(payload []byte) bool {
	snap, err := toast.DecodeSnapshot(payload)
	if err != nil {
		logger.Warn("状态解析失败", "error", err)
		return false
	}

	t, ok := toast.Active(snap.ToState())
	if !ok {
		logger.Debug("通知已消失")
		return false
	}

	w.mu.Lock()
	if t.ID == w.lastID {
		w.mu.Unlock()
		return false
	}
	w.lastID = t.ID
	w.mu.Unlock()

	logger.Info("收到通知", "id", t.ID, "severity", t.Severity, "message", t.Message)
	if w.notify != nil {
		if err := w.notify(t); err != nil {
			logger.Warn("显示通知失败", "error", err)
		}
	}
	if w.run != nil {
		go w.run(t, payload)
	}
	return true
}

func newWatchCommand(opts *options) *cobra.Command {
	var execCmd string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "订阅通知并显示系统通知",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := &watcher{}
			if !quiet {
				w.notify = showNotification
			}
			if execCmd != "" {
				logger.Info("通知处理命令", "exec", execCmd)
				w.run = func(t toast.Toast, raw []byte) { executeCommand(execCmd, t, raw) }
			}

			topic := opts.topic + activeSuffix
			mqttOpts := opts.clientOptions("watch")
			mqttOpts.SetAutoReconnect(true)
			mqttOpts.SetConnectRetry(false) // 首次连接失败时不自动重试，以便显示错误
			mqttOpts.SetOnConnectHandler(func(c mqtt.Client) {
				logger.Info("已连接到 MQTT Broker")
				token := c.Subscribe(topic, 1, func(_ mqtt.Client, m mqtt.Message) {
					w.handle(m.Payload())
				})
				if token.Wait() && token.Error() != nil {
					logger.Error("订阅失败", "topic", topic, "error", token.Error())
					return
				}
				logger.Info("已订阅", "topic", topic)
			})
			mqttOpts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
				logger.Warn("连接断开", "error", err)
			})

			client, err := opts.connect(mqttOpts)
			if err != nil {
				return err
			}

			logger.Info("等待通知推送...")

			// 等待退出信号
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan

			logger.Info("正在关闭...")
			client.Disconnect(1000)
			logger.Info("已断开连接")
			return nil
		},
	}

	cmd.Flags().StringVar(&execCmd, "exec", "", "收到通知时执行的命令 (通知通过环境变量和 stdin 传递)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "不显示系统通知")
	return cmd
}
