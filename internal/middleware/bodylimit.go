package middleware

import (
	"net/http"

	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
	"github.com/support-totem125/vcc-totem/internal/httputil"
)

// Query bodies carry a single DNI.
const DefaultMaxBodySize = 4 << 10

// BodyLimit rejects declared oversize bodies up front and caps the rest with
// http.MaxBytesReader, which handlers see as *http.MaxBytesError.
func BodyLimit(maxSize int64) func(http.Handler) http.Handler {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxSize {
				httputil.WriteError(w, apperrors.BodyTooLarge(maxSize))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}
