package model

import "fmt"

type StatusKind int

const (
	StatusSuccess StatusKind = iota
	StatusInvalid
	StatusExpired
	StatusBlocked
	StatusRateLimited
	StatusHTTPError
	StatusTimeout
	StatusException
)

var statusKindNames = map[StatusKind]string{
	StatusSuccess:     "success",
	StatusInvalid:     "invalid",
	StatusExpired:     "expired",
	StatusBlocked:     "blocked",
	StatusRateLimited: "rate_limited",
	StatusHTTPError:   "http_error",
	StatusTimeout:     "timeout",
	StatusException:   "exception",
}

func (k StatusKind) String() string {
	if name, ok := statusKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(k))
}

// Status is the classification of one lookup round trip. Message is set for
// Invalid, Code for HTTPError and Detail for Exception.
type Status struct {
	Kind    StatusKind
	Message string
	Code    int
	Detail  string
}

func Success() Status { return Status{Kind: StatusSuccess} }
func Invalid(message string) Status { return Status{Kind: StatusInvalid, Message: message} }
func Expired() Status { return Status{Kind: StatusExpired} }
func Blocked() Status { return Status{Kind: StatusBlocked} }
func RateLimited() Status { return Status{Kind: StatusRateLimited} }
func HTTPError(code int) Status { return Status{Kind: StatusHTTPError, Code: code} }
func Timeout() Status { return Status{Kind: StatusTimeout} }
func Exception(detail string) Status { return Status{Kind: StatusException, Detail: detail} }

func (s Status) Is(kind StatusKind) bool {
	return s.Kind == kind
}

// Answered reports whether the portal processed the business query, as opposed
// to rejecting the session or failing in transport.
func (s Status) Answered() bool {
	return s.Kind == StatusSuccess || s.Kind == StatusInvalid
}

func (s Status) String() string {
	switch s.Kind {
	case StatusInvalid:
		return fmt.Sprintf("invalid: %s", s.Message)
	case StatusHTTPError:
		return fmt.Sprintf("http_error: %d", s.Code)
	case StatusException:
		return fmt.Sprintf("exception: %s", s.Detail)
	default:
		return s.Kind.String()
	}
}

// QueryResult is the outcome of one remote lookup. Client is non-nil only when
// Status is Success.
type QueryResult struct {
	Client     *Client
	Status     Status
	RawMessage string
}
