package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"toast-server/logger"
	"toast-server/toast"
)

func newSendCommand(opts *options) *cobra.Command {
	var severity string
	var alias bool

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "发布一条通知",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := json.Marshal(toast.PublishRequest{
				Message:  strings.Join(args, " "),
				Severity: toast.Severity(severity),
				Alias:    alias,
			})
			if err != nil {
				return err
			}

			client, err := opts.connect(opts.clientOptions("send"))
			if err != nil {
				return err
			}
			defer client.Disconnect(250)

			topic := opts.topic + publishSuffix
			token := client.Publish(topic, 1, false, payload)
			if token.Wait() && token.Error() != nil {
				return fmt.Errorf("发布失败: %w", token.Error())
			}
			logger.Info("通知已发布", "topic", topic, "severity", severity)
			return nil
		},
	}

	cmd.Flags().StringVarP(&severity, "severity", "s", string(toast.SeverityInfo), "通知级别: success, error, info")
	cmd.Flags().BoolVar(&alias, "alias", false, "使用 AddToast 发布")
	return cmd
}
