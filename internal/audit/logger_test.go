package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/support-totem125/vcc-totem/internal/model"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = original })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLog(t *testing.T) {
	t.Run("writes event fields", func(t *testing.T) {
		buf := captureLog(t)

		Log(context.Background(), Event{
			Type:    EventLoginSuccess,
			Session: &model.Session{AllyID: "7", UserID: "42"},
			Details: map[string]any{"token_fp": "abc123", "forced": true},
		})

		entry := decodeLine(t, buf)
		assert.Equal(t, "portal", entry["audit"])
		assert.Equal(t, "login_success", entry["event_type"])
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "42", entry["user_id"])
		assert.Equal(t, "7", entry["ally_id"])
		assert.Equal(t, "abc123", entry["token_fp"])
		assert.Equal(t, true, entry["forced"])
	})

	t.Run("masks dni and keeps trace id", func(t *testing.T) {
		buf := captureLog(t)

		Log(context.Background(), Event{Type: EventSessionExpired, TraceID: "t-1", DNI: "12345678"})

		entry := decodeLine(t, buf)
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "t-1", entry["trace_id"])
		assert.NotEqual(t, "12345678", entry["dni"])
		assert.NotContains(t, buf.String(), "12345678")
	})

	t.Run("blocked is logged as error", func(t *testing.T) {
		buf := captureLog(t)

		Log(context.Background(), Event{Type: EventPortalBlocked})

		assert.Equal(t, "error", decodeLine(t, buf)["level"])
	})

	t.Run("records cancelled context", func(t *testing.T) {
		buf := captureLog(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Log(ctx, Event{Type: EventRateLimited})

		assert.Equal(t, "context canceled", decodeLine(t, buf)["ctx_err"])
	})
}

func TestFromRequest(t *testing.T) {
	buf := captureLog(t)

	req := httptest.NewRequest("POST", "/query", nil)
	req.RemoteAddr = "203.0.113.9:4242"
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "req-1"))

	FromRequest(req, Event{Type: EventQueryRejected})

	entry := decodeLine(t, buf)
	assert.Equal(t, "203.0.113.9", entry["client"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "query_rate_limit_exceeded", entry["event_type"])
}
