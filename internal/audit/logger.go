package audit

import (
	"context"
	"net"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/util"
)

type EventType string

const (
	EventLoginSuccess   EventType = "login_success"
	EventLoginFailure   EventType = "login_failure"
	EventSessionRotate  EventType = "session_rotate"
	EventSessionExpired EventType = "session_expired"
	EventRateLimited    EventType = "portal_rate_limited"
	EventPortalBlocked  EventType = "portal_blocked"
	EventQueryRejected  EventType = "query_rate_limit_exceeded"
)

func (t EventType) level() zerolog.Level {
	switch t {
	case EventPortalBlocked:
		return zerolog.ErrorLevel
	case EventLoginFailure, EventRateLimited, EventSessionExpired, EventQueryRejected:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// Event is one portal-facing security record. DNI is masked on output.
type Event struct {
	Type    EventType
	TraceID string
	DNI     string
	Session *model.Session
	Client  string
	Details map[string]any
}

func Log(ctx context.Context, event Event) {
	logEvent := log.WithLevel(event.Type.level()).
		Str("audit", "portal").
		Str("event_type", string(event.Type))

	if event.TraceID != "" {
		logEvent = logEvent.Str("trace_id", event.TraceID)
	}
	if event.DNI != "" {
		logEvent = logEvent.Str("dni", util.MaskDNI(event.DNI))
	}
	if event.Session != nil {
		logEvent = logEvent.Str("ally_id", event.Session.AllyID).Str("user_id", event.Session.UserID)
	}
	if event.Client != "" {
		logEvent = logEvent.Str("client", event.Client)
	}
	if ctx != nil {
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			logEvent = logEvent.Str("request_id", reqID)
		}
		if err := ctx.Err(); err != nil {
			logEvent = logEvent.Str("ctx_err", err.Error())
		}
	}

	logEvent.Fields(event.Details).Msg("audit event")
}

// FromRequest records an event raised by an inbound HTTP request. RemoteAddr
// is expected to have been resolved by chi's RealIP.
func FromRequest(r *http.Request, event Event) {
	event.Client = remoteHost(r)
	Log(r.Context(), event)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
