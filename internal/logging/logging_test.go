package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	previous := log.Logger
	t.Cleanup(func() { log.Logger = previous })
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestNew_UsesGlobalLoggerConfiguredLater(t *testing.T) {
	logger := New("budget")
	buf := captureGlobal(t)

	logger.Info().Msg("status computed")

	assert.Contains(t, buf.String(), `"component":"budget"`)
	assert.Contains(t, buf.String(), `"message":"status computed"`)
}

func TestMiddleware_LogsStatus(t *testing.T) {
	buf := captureGlobal(t)
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/api/ready"`)
	assert.Contains(t, buf.String(), `"component":"http"`)
}
