// toast-cli 订阅通知状态并显示系统通知，或向服务器发布通知
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toast-server/logger"
)

// 版本信息（通过 -ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// options 全局参数
type options struct {
	broker   string
	topic    string
	clientID string
	token    string
	logLevel string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "toast-cli",
		Short:         "Toast 通知客户端",
		Version:       fmt.Sprintf("%s (build %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logger.Init(logger.Config{
				ConsoleLevel: opts.logLevel,
				FileLevel:    "off",
				Pretty:       true,
			})
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.broker, "broker", "tcp://localhost:1883", "MQTT Broker 地址")
	flags.StringVar(&opts.topic, "topic", "toast", "主题前缀")
	flags.StringVar(&opts.clientID, "id", "", "客户端 ID（默认自动生成）")
	flags.StringVar(&opts.token, "token", os.Getenv("AUTH_TOKEN"), "认证 Token")
	flags.StringVar(&opts.logLevel, "log-level", "info", "日志级别: debug, info, warn, error")

	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newSendCommand(opts))

	return rootCmd
}

func main() {
	err := newRootCommand().Execute()
	logger.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}
