package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
	"github.com/support-totem125/vcc-totem/internal/message"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/service"
)

type mockLookups struct {
	mock.Mock
}

func (m *mockLookups) Lookup(ctx context.Context, dni string) (*service.LookupResult, error) {
	args := m.Called(ctx, dni)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LookupResult), args.Error(1)
}

func doQuery(t *testing.T, h *QueryHandler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestHealth(t *testing.T) {
	h := NewQueryHandler(new(mockLookups), message.NewGenerator(false), time.Minute)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"timestamp"`)
}

func TestQuery(t *testing.T) {
	gen := message.NewGenerator(false)

	t.Run("offer", func(t *testing.T) {
		client := &model.Client{ID: "1", Name: "ANA PEREZ", HasCreditLine: true, CreditLine: 1500.5}
		lookups := new(mockLookups)
		lookups.On("Lookup", mock.Anything, "12345678").Return(&service.LookupResult{
			TraceID: "trace-1",
			DNI:     "12345678",
			Query:   model.QueryResult{Client: client, Status: model.Success(), RawMessage: "ok"},
			Outcome: model.OutcomeHasOffer,
			Message: gen.Render(model.OutcomeHasOffer, client, ""),
		}, nil)

		rec, body := doQuery(t, NewQueryHandler(lookups, message.NewGenerator(false), time.Minute), `{"dni":"12345678"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "12345678", body["dni"])
		assert.Equal(t, true, body["tiene_oferta"])
		assert.Equal(t, float64(0), body["return_code"])
		assert.Nil(t, body["error"])
		assert.Equal(t, "trace-1", body["trace_id"])
		assert.Contains(t, body["client_message"], "S/ 1,500.50")
		assert.NotContains(t, body["client_message_compact"], "\n")
		assert.Contains(t, body["client_message_html"], "<br/>")
	})

	t.Run("not found", func(t *testing.T) {
		lookups := new(mockLookups)
		lookups.On("Lookup", mock.Anything, "11111111").Return(&service.LookupResult{
			DNI:     "11111111",
			Query:   model.QueryResult{Status: model.Invalid("DNI no encontrado"), RawMessage: "DNI no encontrado"},
			Outcome: model.OutcomeDniNotFound,
			Message: gen.Render(model.OutcomeDniNotFound, nil, ""),
		}, nil)

		rec, body := doQuery(t, NewQueryHandler(lookups, message.NewGenerator(false), time.Minute), `{"dni":"11111111"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, false, body["tiene_oferta"])
		assert.Equal(t, float64(1), body["return_code"])
		assert.Equal(t, "DNI no encontrado", body["error"])
	})

	t.Run("rate limited sets retry after", func(t *testing.T) {
		lookups := new(mockLookups)
		lookups.On("Lookup", mock.Anything, "12345678").Return(&service.LookupResult{
			DNI:         "12345678",
			Query:       model.QueryResult{Status: model.RateLimited(), RawMessage: "Demasiadas consultas"},
			Outcome:     model.OutcomeGenericError,
			Message:     gen.Render(model.OutcomeGenericError, nil, ""),
			RateLimited: true,
		}, nil)

		rec, body := doQuery(t, NewQueryHandler(lookups, message.NewGenerator(false), time.Minute), `{"dni":"12345678"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Equal(t, true, body["rate_limited"])
	})

	t.Run("malformed body", func(t *testing.T) {
		lookups := new(mockLookups)
		rec, body := doQuery(t, NewQueryHandler(lookups, message.NewGenerator(false), time.Minute), `{"dni":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", body["code"])
		lookups.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	})

	t.Run("missing dni", func(t *testing.T) {
		lookups := new(mockLookups)
		rec, body := doQuery(t, NewQueryHandler(lookups, message.NewGenerator(false), time.Minute), `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", body["code"])
	})

	errorCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid dni", apperrors.InvalidDNI(8), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"login failure", apperrors.AuthFailed("status 500"), http.StatusBadGateway, "AUTH_ERROR"},
		{"blocked", apperrors.PortalBlocked(), http.StatusServiceUnavailable, "PORTAL_BLOCKED"},
		{"unexpected", context.Canceled, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			lookups := new(mockLookups)
			lookups.On("Lookup", mock.Anything, "1234").Return(nil, tc.err)

			rec, body := doQuery(t, NewQueryHandler(lookups, message.NewGenerator(false), time.Minute), `{"dni":"1234"}`)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCode, body["code"])
		})
	}
}

func TestQueryBodyCappedByMaxBytesReader(t *testing.T) {
	lookups := new(mockLookups)
	h := NewQueryHandler(lookups, message.NewGenerator(false), time.Minute)

	body := `{"dni":"12345678","padding":"` + strings.Repeat("x", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "BODY_TOO_LARGE")
	lookups.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestQueryPortalFailureStillRendersMessage(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"login failure", apperrors.AuthFailed("status 500"), http.StatusBadGateway, "AUTH_ERROR"},
		{"forced re-login failure", apperrors.LoginFailed(context.DeadlineExceeded), http.StatusBadGateway, "AUTH_ERROR"},
		{"blocked", apperrors.PortalBlocked(), http.StatusServiceUnavailable, "PORTAL_BLOCKED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lookups := new(mockLookups)
			lookups.On("Lookup", mock.Anything, "12345678").Return(nil, tc.err)

			rec, body := doQuery(t, NewQueryHandler(lookups, message.NewGenerator(false), time.Minute), `{"dni":"12345678"}`)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCode, body["code"])
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "12345678", body["dni"])
			assert.Equal(t, float64(1), body["return_code"])
			assert.Equal(t, false, body["tiene_oferta"])
			assert.NotEmpty(t, body["client_message"])
			assert.NotEmpty(t, body["client_message_compact"])
			assert.NotEmpty(t, body["client_message_html"])
			assert.NotEmpty(t, body["error"])
		})
	}

	t.Run("validation errors stay bare", func(t *testing.T) {
		lookups := new(mockLookups)
		lookups.On("Lookup", mock.Anything, "1234").Return(nil, apperrors.InvalidDNI(8))

		rec, body := doQuery(t, NewQueryHandler(lookups, message.NewGenerator(false), time.Minute), `{"dni":"1234"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotContains(t, body, "client_message")
	})
}
