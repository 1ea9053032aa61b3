package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
	"github.com/support-totem125/vcc-totem/internal/httputil"
	"github.com/support-totem125/vcc-totem/internal/message"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/service"
	"github.com/support-totem125/vcc-totem/internal/util"
)

type LookupRunner interface {
	Lookup(ctx context.Context, dni string) (*service.LookupResult, error)
}

type QueryHandler struct {
	lookups    LookupRunner
	generator  *message.Generator
	retryAfter time.Duration
}

// NewQueryHandler returns the query API. generator renders the client message
// for lookups that fail before reaching the portal; retryAfter is advertised
// to callers when the portal rate limits us.
func NewQueryHandler(lookups LookupRunner, generator *message.Generator, retryAfter time.Duration) *QueryHandler {
	return &QueryHandler{lookups: lookups, generator: generator, retryAfter: retryAfter}
}

func (h *QueryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)
	r.Post("/query", h.Query)

	return r
}

// GET /health
func (h *QueryHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}

type queryRequest struct {
	DNI string `json:"dni"`
}

// POST /query
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, apperrors.BodyTooLarge(tooLarge.Limit))
			return
		}
		httputil.WriteError(w, apperrors.InvalidBody("malformed JSON"))
		return
	}
	if util.IsBlank(req.DNI) {
		httputil.WriteError(w, apperrors.InvalidBody("dni is required"))
		return
	}

	result, err := h.lookups.Lookup(r.Context(), req.DNI)
	if err != nil {
		if code := apperrors.GetCode(err); code == apperrors.ErrCodeInternal {
			log.Error().Err(err).Msg("query failed")
		} else {
			log.Warn().Err(err).Str("code", string(code)).Msg("query rejected")
		}
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code.Fatal() {
			rendered := h.generator.Render(model.OutcomeGenericError, nil, appErr.Message)
			writeJSON(w, appErr.Code.HTTPStatus(), formatQueryFailure(strings.TrimSpace(req.DNI), appErr, rendered))
			return
		}
		httputil.WriteError(w, err)
		return
	}

	if result.RateLimited && h.retryAfter > 0 {
		httputil.SetRetryAfter(w, h.retryAfter)
	}

	writeJSON(w, http.StatusOK, formatQueryResult(result))
}
