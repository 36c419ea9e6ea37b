package main

import (
	"bytes"
	"os"
	"os/exec"
	"strings"

	"toast-server/logger"
	"toast-server/toast"
)

// commandEnv 通知对应的环境变量
func commandEnv(t toast.Toast, raw []byte) []string {
	return []string{
		"TOAST_ID=" + t.ID,
		"TOAST_MESSAGE=" + t.Message,
		"TOAST_SEVERITY=" + string(t.Severity),
		"TOAST_RAW=" + string(raw),
	}
}

// executeCommand 执行外部命令
// 通知通过以下方式传递:
// - 环境变量: TOAST_ID, TOAST_MESSAGE, TOAST_SEVERITY, TOAST_RAW
// - stdin: 原始 JSON 状态
func executeCommand(cmdStr string, t toast.Toast, raw []byte) {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		logger.Warn("无效的命令", "exec", cmdStr)
		return
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Env = append(os.Environ(), commandEnv(t, raw)...)
	cmd.Stdin = bytes.NewReader(raw)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("执行命令", "exec", cmdStr, "id", t.ID)
	if err := cmd.Run(); err != nil {
		logger.Error("命令执行失败", "error", err, "stderr", stderr.String())
		return
	}

	if stdout.Len() > 0 {
		logger.Info("命令输出", "stdout", strings.TrimSpace(stdout.String()))
	}
}

// parseCommand 解析命令字符串，支持引号和反斜杠转义
func parseCommand(cmdStr string) []string {
	var parts []string
	var current strings.Builder
	var inQuote rune
	var escaped bool

	for _, r := range cmdStr {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
		case r == ' ' || r == '\t':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
