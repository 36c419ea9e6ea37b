package toast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotOf(t *testing.T) {
	assert.Equal(t, Snapshot{State: "idle"}, SnapshotOf(Idle{}))

	shown := time.Unix(1700000000, 0).UTC()
	st := Showing{Toast: Toast{ID: "01H", Message: "hi", Severity: SeverityError, ShownAt: shown, ExpiresAt: shown.Add(DefaultTimeout)}}
	snap := SnapshotOf(st)
	assert.Equal(t, "showing", snap.State)
	require.NotNil(t, snap.Toast)
	assert.Equal(t, "hi", snap.Toast.Message)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, State(st), decoded.ToState())
}

func TestSnapshotToStateFallsBackToIdle(t *testing.T) {
	assert.Equal(t, State(Idle{}), Snapshot{State: "showing"}.ToState())
	assert.Equal(t, State(Idle{}), Snapshot{State: "weird"}.ToState())
}

func TestDecodeSnapshotInvalid(t *testing.T) {
	_, err := DecodeSnapshot([]byte("not json"))
	assert.Error(t, err)
}

type recordingPublisher struct {
	calls []string
}

func (r *recordingPublisher) ShowToast(message string, severity Severity) {
	r.calls = append(r.calls, "show:"+message+":"+string(severity))
}

func (r *recordingPublisher) AddToast(message string, severity Severity) {
	r.calls = append(r.calls, "add:"+message+":"+string(severity))
}

func TestPublishRequestApply(t *testing.T) {
	p := &recordingPublisher{}
	PublishRequest{Message: "a", Severity: SeveritySuccess}.Apply(p)
	PublishRequest{Message: "b", Alias: true}.Apply(p)
	assert.Equal(t, []string{"show:a:success", "add:b:"}, p.calls)
}
