package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toast-server/toast"
)

func showing(msg string, sev toast.Severity) toast.State {
	return toast.Showing{Toast: toast.Toast{ID: "01HTEST", Message: msg, Severity: sev}}
}

func TestOverlaySeverityClasses(t *testing.T) {
	tests := []struct {
		severity toast.Severity
		color    string
	}{
		{toast.SeveritySuccess, "bg-green-600"},
		{toast.SeverityError, "bg-red-600"},
		{toast.SeverityInfo, "bg-blue-600"},
	}
	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			html, err := Overlay(showing("Saved!", tt.severity))
			require.NoError(t, err)

			out := string(html)
			assert.Contains(t, out, ">Saved!</div>")
			assert.Contains(t, out, `class="`+BaseClass+" "+tt.color+`"`)
			assert.Contains(t, out, `data-toast-id="01HTEST"`)
		})
	}
}

func TestOverlayUnknownSeverityIsUnstyled(t *testing.T) {
	html, err := Overlay(showing("hmm", "warning"))
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, `class="`+BaseClass+`"`)
	for _, c := range []string{"bg-green-600", "bg-red-600", "bg-blue-600"} {
		assert.NotContains(t, out, c)
	}
}

func TestOverlayIdle(t *testing.T) {
	html, err := Overlay(toast.Idle{})
	require.NoError(t, err)
	assert.Empty(t, html)

	html, err = Overlay(nil)
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestOverlayEscapesMessage(t *testing.T) {
	html, err := Overlay(showing(`<script>alert("x")</script>`, toast.SeverityError))
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>")
	assert.Contains(t, string(html), "&lt;script&gt;")
}

func TestOverlayFromBroadcaster(t *testing.T) {
	b := toast.New(toast.Config{})
	defer b.Close()

	b.ShowToast("first", toast.SeverityError)
	b.AddToast("second", "")

	html, err := Overlay(b.State())
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, ">second</div>")
	assert.Contains(t, out, "bg-blue-600")
	assert.NotContains(t, out, "first")
	assert.Equal(t, 1, strings.Count(out, `id="toast"`))
}

func TestPage(t *testing.T) {
	page, err := Page(showing("hello page", toast.SeveritySuccess), PageOptions{Topic: "toast", WSPort: "9092"})
	require.NoError(t, err)

	out := string(page)
	assert.Contains(t, out, "<title>Toast</title>")
	assert.Contains(t, out, `<div id="toast-root"><div id="toast"`)
	assert.Contains(t, out, ">hello page</div>")
	assert.Contains(t, out, `"bg-green-600"`)
	assert.Regexp(t, `const pollSeconds =\s+1\s*;`, out)
}

func TestPageIdle(t *testing.T) {
	page, err := Page(toast.Idle{}, PageOptions{Title: "Demo"})
	require.NoError(t, err)
	assert.Contains(t, string(page), `<div id="toast-root"></div>`)
	assert.Contains(t, string(page), "<title>Demo</title>")
}
