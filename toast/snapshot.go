package toast

import "encoding/json"

const (
	stateIdle    = "idle"
	stateShowing = "showing"
)

// Snapshot 状态的传输格式，用于 MQTT 推送和 HTTP 接口
type Snapshot struct {
	State string `json:"state"`
	Toast *Toast `json:"toast,omitempty"`
}

// SnapshotOf 将状态转换为传输格式
func SnapshotOf(s State) Snapshot {
	if t, ok := Active(s); ok {
		return Snapshot{State: stateShowing, Toast: &t}
	}
	return Snapshot{State: stateIdle}
}

// ToState 还原为状态，无法识别的内容视为 Idle
func (s Snapshot) ToState() State {
	if s.State == stateShowing && s.Toast != nil {
		return Showing{Toast: *s.Toast}
	}
	return Idle{}
}

// DecodeSnapshot 解析 JSON 格式的状态
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// PublishRequest 通过消息通道发布通知的请求体
type PublishRequest struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity,omitempty"`
	Alias    bool     `json:"alias,omitempty"` // true 时走 AddToast
}

// Apply 将请求转发给 Publisher
func (r PublishRequest) Apply(p Publisher) {
	if r.Alias {
		p.AddToast(r.Message, r.Severity)
		return
	}
	p.ShowToast(r.Message, r.Severity)
}
