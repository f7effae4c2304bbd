package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerGeneratesID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	var seenID string
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotEmpty(t, seenID)
	require.Equal(t, seenID, rec.Header().Get("X-Request-ID"))

	// Both the handler's context line and the access line carry the id.
	require.Contains(t, buf.String(), seenID)
	require.Contains(t, buf.String(), "inside handler")
	require.Contains(t, buf.String(), `"status":418`)
	require.Contains(t, buf.String(), `"path":"/api/v1/events"`)
}

func TestRequestLoggerHonorsUpstreamID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	var seenID string
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "lb-7f3a")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "lb-7f3a", seenID)
	require.Equal(t, "lb-7f3a", rec.Header().Get("X-Request-ID"))
	require.Contains(t, buf.String(), `"request_id":"lb-7f3a"`)
}

func TestRequestLoggerDefaultsSilentHandlerTo200(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Contains(t, buf.String(), `"status":200`)
}

func TestRequestIDOutsideRequest(t *testing.T) {
	require.Empty(t, RequestID(t.Context()))
}
