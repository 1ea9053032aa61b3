package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{"invalid dni", apperrors.InvalidDNI(8), http.StatusBadRequest, apperrors.ErrCodeValidation},
		{"body too large", apperrors.BodyTooLarge(4096), http.StatusRequestEntityTooLarge, apperrors.ErrCodeBodyTooLarge},
		{"login failure", apperrors.AuthFailed("status 500"), http.StatusBadGateway, apperrors.ErrCodeAuth},
		{"blocked behind wrapping", fmt.Errorf("lookup: %w", apperrors.PortalBlocked()), http.StatusServiceUnavailable, apperrors.ErrCodePortalBlocked},
		{"rate limited", apperrors.RateLimitExceeded(), http.StatusTooManyRequests, apperrors.ErrCodeRateLimitExceeded},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}

	t.Run("hides plain errors behind internal error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("dial tcp: secret detail"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret detail")
		assert.Contains(t, rec.Body.String(), string(apperrors.ErrCodeInternal))
	})
}

func TestSetRetryAfter(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{time.Minute, "60"},
		{1500 * time.Millisecond, "2"},
		{0, "1"},
		{-time.Second, "1"},
	}

	for _, tc := range tests {
		t.Run(tc.in.String(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			SetRetryAfter(rec, tc.in)
			assert.Equal(t, tc.want, rec.Header().Get("Retry-After"))
		})
	}
}
