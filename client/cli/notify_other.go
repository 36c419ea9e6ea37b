//go:build !windows

package main

import (
	"github.com/gen2brain/beeep"

	"toast-server/toast"
)

// showNotification 在非 Windows 平台显示系统通知，error 级别使用带提示音的 Alert
func showNotification(t toast.Toast) error {
	title := notificationTitle(t.Severity)
	if t.Severity == toast.SeverityError {
		return beeep.Alert(title, t.Message, "")
	}
	return beeep.Notify(title, t.Message, "")
}
