package main

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toast-server/toast"
)

func snapshotPayload(t *testing.T, s toast.State) []byte {
	t.Helper()
	data, err := json.Marshal(toast.SnapshotOf(s))
	require.NoError(t, err)
	return data
}

func TestWatcherNotifiesOncePerToast(t *testing.T) {
	var mu sync.Mutex
	var shown []toast.Toast
	ran := make(chan string, 4)

	w := &watcher{
		notify: func(tt toast.Toast) error {
			mu.Lock()
			shown = append(shown, tt)
			mu.Unlock()
			return nil
		},
		run: func(tt toast.Toast, raw []byte) { ran <- tt.ID },
	}

	first := toast.Toast{ID: "01A", Message: "hello", Severity: toast.SeverityInfo}
	assert.True(t, w.handle(snapshotPayload(t, toast.Showing{Toast: first})))
	// 重连后收到相同的 retained 消息
	assert.False(t, w.handle(snapshotPayload(t, toast.Showing{Toast: first})))
	assert.False(t, w.handle(snapshotPayload(t, toast.Idle{})))

	second := toast.Toast{ID: "01B", Message: "again", Severity: toast.SeverityError}
	assert.True(t, w.handle(snapshotPayload(t, toast.Showing{Toast: second})))

	mu.Lock()
	require.Len(t, shown, 2)
	assert.Equal(t, "hello", shown[0].Message)
	assert.Equal(t, toast.SeverityError, shown[1].Severity)
	mu.Unlock()

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-ran:
			got[id] = true
		case <-time.After(time.Second):
			t.Fatal("命令未执行")
		}
	}
	assert.Equal(t, map[string]bool{"01A": true, "01B": true}, got)
}

func TestWatcherIgnoresGarbage(t *testing.T) {
	w := &watcher{}
	assert.False(t, w.handle([]byte("not json")))
	assert.False(t, w.handle([]byte(`{"state":"showing"}`)))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"notify-send hi", []string{"notify-send", "hi"}},
		{`sh -c "echo $TOAST_MESSAGE"`, []string{"sh", "-c", "echo $TOAST_MESSAGE"}},
		{`a 'b c'  d`, []string{"a", "b c", "d"}},
		{`a\ b`, []string{"a b"}},
		{"   ", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCommand(tt.in), tt.in)
	}
}

func TestCommandEnv(t *testing.T) {
	env := commandEnv(toast.Toast{ID: "01X", Message: "m", Severity: toast.SeveritySuccess}, []byte(`{"state":"showing"}`))
	assert.Equal(t, []string{
		"TOAST_ID=01X",
		"TOAST_MESSAGE=m",
		"TOAST_SEVERITY=success",
		`TOAST_RAW={"state":"showing"}`,
	}, env)
}

func TestNotificationTitle(t *testing.T) {
	assert.Equal(t, "成功", notificationTitle(toast.SeveritySuccess))
	assert.Equal(t, "错误", notificationTitle(toast.SeverityError))
	assert.Equal(t, "通知", notificationTitle(""))
	assert.Equal(t, "warning", notificationTitle("warning"))
}

func TestRootCommand(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, strings.Join(names, ","), "watch")
	assert.Contains(t, strings.Join(names, ","), "send")

	root.SetArgs([]string{"send"})
	assert.Error(t, root.Execute(), "send 需要消息参数")
}
