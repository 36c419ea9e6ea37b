package main

import "toast-server/toast"

// notificationTitle 按级别生成通知标题
func notificationTitle(s toast.Severity) string {
	switch s {
	case toast.SeveritySuccess:
		return "成功"
	case toast.SeverityError:
		return "错误"
	case toast.SeverityInfo, "":
		return "通知"
	default:
		return string(s)
	}
}
