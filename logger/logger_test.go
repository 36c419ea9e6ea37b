package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"off", LevelOff},
		{"none", LevelOff},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, slog.LevelWarn); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Init(Config{ConsoleLevel: "info", Pretty: true, Output: &buf}); err != nil {
		t.Fatal(err)
	}
	defer Close()

	Debug("隐藏", "k", 1)
	Info("通知已显示", "id", "01H", "severity", "info")
	With("component", "broker").WithGroup("mqtt").Warn("断开", "client_id", "c1")

	out := buf.String()
	if strings.Contains(out, "隐藏") {
		t.Errorf("debug 日志不应输出: %s", out)
	}
	if !strings.Contains(out, "INFO  logger_test.go:") {
		t.Errorf("应包含调用位置: %s", out)
	}
	if !strings.Contains(out, "> 通知已显示 id=01H severity=info") {
		t.Errorf("格式不正确: %s", out)
	}
	if !strings.Contains(out, "> 断开 component=broker mqtt.client_id=c1") {
		t.Errorf("分组属性不正确: %s", out)
	}
}

func TestConsoleOff(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Init(Config{ConsoleLevel: "off", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	defer Close()

	Error("不会输出")
	if buf.Len() != 0 {
		t.Errorf("console 关闭时不应有输出: %s", buf.String())
	}
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	_, err := Init(Config{
		ConsoleLevel: "error",
		FileLevel:    "debug",
		FilePath:     filepath.Join(dir, "toast.log"),
		Output:       &console,
	})
	if err != nil {
		t.Fatal(err)
	}

	Debug("写入文件", "n", 1)
	if err := Close(); err != nil {
		t.Fatal(err)
	}

	name := "toast-" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"写入文件"`) {
		t.Errorf("文件内容不正确: %s", data)
	}
	if console.Len() != 0 {
		t.Errorf("console 不应输出 debug 日志: %s", console.String())
	}
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 8, 23, 59, 0, 0, time.Local)

	w := &rotatingFileWriter{
		basePath:   filepath.Join(dir, "toast.log"),
		rotateDays: 1,
		maxFiles:   7,
		bufferSize: 0,
		now:        func() time.Time { return now },
	}
	if err := w.open(); err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("day1\n"))

	now = now.Add(2 * time.Minute)
	w.Write([]byte("day2\n"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	for file, want := range map[string]string{
		"toast-2026-01-08.log": "day1\n",
		"toast-2026-01-09.log": "day2\n",
	} {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", file, data, want)
		}
	}
}

func TestCleanOldFiles(t *testing.T) {
	dir := t.TempDir()
	for _, day := range []string{"01", "02", "03", "04"} {
		os.WriteFile(filepath.Join(dir, "toast-2026-01-"+day+".log"), nil, 0644)
	}

	w := &rotatingFileWriter{basePath: filepath.Join(dir, "toast.log"), maxFiles: 2}
	w.cleanOldFiles()

	files, _ := filepath.Glob(filepath.Join(dir, "toast-*.log"))
	if len(files) != 2 {
		t.Fatalf("应保留 2 个文件，实际: %v", files)
	}
	if filepath.Base(files[0]) != "toast-2026-01-03.log" {
		t.Errorf("应保留最新的文件，实际: %v", files)
	}
}
