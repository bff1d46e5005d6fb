package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/raka-dev/backend-guru/internal/obs"
)

func TestRequestLoggerRecordsClientIP(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.RemoteAddr = "10.0.0.5:51234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.5")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "203.0.113.9", entry["client_ip"])
	require.Equal(t, float64(http.StatusNoContent), entry["status"])
	require.Equal(t, http.MethodGet, entry["method"])
}
