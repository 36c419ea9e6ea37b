package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toast-server/toast"
)

func showing(sev toast.Severity) toast.State {
	return toast.Showing{Toast: toast.Toast{ID: "x", Message: "m", Severity: sev}}
}

func TestObserve(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.Observe(toast.Change{From: toast.Idle{}, To: showing(toast.SeverityError), Reason: toast.ReasonPublish})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.published.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.active))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.dismissed.WithLabelValues(DismissReplaced)))

	c.Observe(toast.Change{From: showing(toast.SeverityError), To: showing("warning"), Reason: toast.ReasonPublish})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.published.WithLabelValues("other")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dismissed.WithLabelValues(DismissReplaced)))

	c.Observe(toast.Change{From: showing("warning"), To: toast.Idle{}, Reason: toast.ReasonExpire})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dismissed.WithLabelValues(DismissExpired)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.active))
}

func TestObserveBroadcaster(t *testing.T) {
	c := New(prometheus.NewRegistry())
	b := toast.New(toast.Config{})
	defer b.Close()
	b.OnChange(c.Observe)

	b.ShowToast("a", toast.SeveritySuccess)
	b.AddToast("b", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.published.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.published.WithLabelValues("info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dismissed.WithLabelValues(DismissReplaced)))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.Observe(toast.Change{From: toast.Idle{}, To: showing(toast.SeverityInfo), Reason: toast.ReasonPublish})

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `toast_published_total{severity="info"} 1`)
	assert.Contains(t, string(body), "toast_active 1")
}
