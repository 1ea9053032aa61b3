package handler

import (
	"net/http"

	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
	"github.com/support-totem125/vcc-totem/internal/httputil"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

type queryResponse struct {
	Success              bool    `json:"success"`
	DNI                  string  `json:"dni"`
	ClientMessage        string  `json:"client_message"`
	ClientMessageCompact string  `json:"client_message_compact"`
	ClientMessageHTML    string  `json:"client_message_html"`
	Error                *string `json:"error"`
	ReturnCode           int     `json:"return_code"`
	HasOffer             bool    `json:"tiene_oferta"`
	RateLimited          bool    `json:"rate_limited"`
	TraceID              string  `json:"trace_id,omitempty"`

	Code apperrors.ErrorCode `json:"code,omitempty"`
}

// clientMessages fills the three renderings of msg: full, single line and HTML.
func (r *queryResponse) clientMessages(msg model.Rendered) {
	full := msg
	full.Text = msg.Title + "\n\n" + msg.Text

	r.ClientMessage = full.Text
	r.ClientMessageCompact = full.Compact()
	r.ClientMessageHTML = full.HTML()
	r.HasOffer = msg.HasOffer
}

func formatQueryResult(result *service.LookupResult) queryResponse {
	resp := queryResponse{
		Success:     result.Success(),
		DNI:         result.DNI,
		ReturnCode:  result.ReturnCode(),
		RateLimited: result.RateLimited,
		TraceID:     result.TraceID,
	}
	resp.clientMessages(result.Message)

	if !resp.Success {
		errMsg := result.Query.RawMessage
		if errMsg == "" {
			errMsg = result.Query.Status.String()
		}
		resp.Error = &errMsg
	}
	return resp
}

// formatQueryFailure answers a lookup that never produced a portal result
// with the generic client message.
func formatQueryFailure(dni string, appErr *apperrors.AppError, msg model.Rendered) queryResponse {
	errMsg := appErr.Message
	resp := queryResponse{
		DNI:        dni,
		Error:      &errMsg,
		ReturnCode: 1,
		Code:       appErr.Code,
	}
	resp.clientMessages(msg)
	return resp
}
