package toast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContextWithoutPublisher(t *testing.T) {
	p, err := FromContext(context.Background())
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNoPublisher)
	assert.Contains(t, err.Error(), "must be used inside provider")
}

func TestFromContext(t *testing.T) {
	b := New(Config{Clock: newFakeClock()})
	ctx := WithPublisher(context.Background(), b)

	p, err := FromContext(ctx)
	require.NoError(t, err)
	p.AddToast("from context", SeveritySuccess)

	toast, ok := Active(b.State())
	require.True(t, ok)
	assert.Equal(t, "from context", toast.Message)
}

func TestMustFromContextPanics(t *testing.T) {
	assert.PanicsWithValue(t, ErrNoPublisher, func() {
		MustFromContext(context.Background())
	})
}

func TestMiddleware(t *testing.T) {
	clk := newFakeClock()
	b := New(Config{Timeout: time.Second, Clock: clk})

	h := Middleware(b)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MustFromContext(r.Context()).ShowToast("from handler", "")
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	toast, ok := Active(b.State())
	require.True(t, ok)
	assert.Equal(t, "from handler", toast.Message)
	assert.Equal(t, SeverityInfo, toast.Severity)
}
