package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	buf.Reset()
	return entry
}

func TestWithContextAddsCallerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCaller(ctx, "tenant-1", "user-1")
	log.WithContext(ctx).Info("hello")

	entry := decode(t, &buf)
	for key, want := range map[string]string{"request_id": "req-1", "tenant_id": "tenant-1", "user_id": "user-1"} {
		if entry[key] != want {
			t.Fatalf("expected %s=%s, got %v", key, want, entry[key])
		}
	}

	if got := log.WithContext(context.Background()); got != log {
		t.Fatal("expected the same logger when ctx carries nothing")
	}
}

func TestHTTPRequestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	tests := []struct {
		status int
		err    error
		level  string
	}{
		{200, nil, "INFO"},
		{429, nil, "WARN"},
		{502, errors.New("provider down"), "ERROR"},
	}

	for _, tt := range tests {
		log.HTTPRequest(RequestRecord{Method: "POST", Path: "/api/v1/leads", Status: tt.status, Latency: 1500 * time.Microsecond, Err: tt.err})
		entry := decode(t, &buf)
		if entry["level"] != tt.level {
			t.Fatalf("status %d: expected level %s, got %v", tt.status, tt.level, entry["level"])
		}
		if entry["latency_ms"] != 1.5 {
			t.Fatalf("expected latency 1.5ms, got %v", entry["latency_ms"])
		}
		if tt.err != nil && entry["error"] != tt.err.Error() {
			t.Fatalf("expected error field, got %v", entry["error"])
		}
	}
}
