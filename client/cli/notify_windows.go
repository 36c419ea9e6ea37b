//go:build windows

package main

import (
	gotoast "git.sr.ht/~jackmordaunt/go-toast"

	"toast-server/toast"
)

// showNotification 在 Windows 上显示 Toast 通知
func showNotification(t toast.Toast) error {
	n := gotoast.Notification{
		AppID: "Toast CLI",
		Title: notificationTitle(t.Severity),
		Body:  t.Message,
	}
	if t.Severity == toast.SeverityError {
		n.Audio = gotoast.Reminder
	}
	return n.Push()
}
