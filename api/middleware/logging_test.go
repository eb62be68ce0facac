package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

func TestLoggingRecordsStatusAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "api-test", Level: logger.ParseLevel("debug"), Output: &buf, Format: "json"})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/admin/v1/trucks/1/receive", nil))

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if line["level"] != "warn" || line["message"] != "request.complete" {
		t.Fatalf("unexpected line %v", line)
	}
	if line["status"] != float64(http.StatusServiceUnavailable) || line["bytes"] != float64(4) {
		t.Fatalf("unexpected status or bytes %v", line)
	}
}

func TestLoggingDemotesHealthProbes(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "api-test", Level: logger.ParseLevel("info"), Output: &buf, Format: "json"})
	Logging(logg)(okHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if buf.Len() != 0 {
		t.Fatalf("expected probe to log below info, got %q", buf.String())
	}
}
