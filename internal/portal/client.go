package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/util"
)

const (
	documentType = "PE2"
	channel      = "FNB"
	maxBodyBytes = 1 << 20

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	acceptLanguage = "es-419,es;q=0.9"
	loginReferer   = "/WebFNB/login"
	lookupReferer  = "/WebFNB/consulta-credito"
)

type Options struct {
	LoginURL     string
	LookupURL    string
	Username     string
	Password     string
	LoginTimeout time.Duration
	QuickTimeout time.Duration
	Timeout      time.Duration
	// HTTPClient is used as is when set; its Timeout should be zero since
	// every call is bounded by a context deadline.
	HTTPClient *http.Client
}

// Client talks to the credit portal: login and credit-line lookup.
type Client struct {
	loginURL     string
	lookupURL    string
	origin       string
	username     string
	password     string
	loginTimeout time.Duration
	quickTimeout time.Duration
	timeout      time.Duration
	client       *http.Client
	now          func() time.Time
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Jar: jar}
	}

	quick := opts.QuickTimeout
	if quick <= 0 || quick > opts.Timeout {
		quick = opts.Timeout
	}

	return &Client{
		loginURL:     opts.LoginURL,
		lookupURL:    opts.LookupURL,
		origin:       originOf(opts.LoginURL),
		username:     opts.Username,
		password:     opts.Password,
		loginTimeout: opts.LoginTimeout,
		quickTimeout: quick,
		timeout:      opts.Timeout,
		client:       httpClient,
		now:          time.Now,
	}
}

type envelope struct {
	Valid   bool            `json:"valid"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginRequest struct {
	Username  string `json:"usuario"`
	Password  string `json:"password"`
	Captcha   string `json:"captcha"`
	Latitude  string `json:"Latitud"`
	Longitude string `json:"Longitud"`
}

type loginData struct {
	AuthToken string `json:"authToken"`
}

// Login authenticates against the portal and returns a fresh session.
// Failures are returned as AUTH_ERROR.
func (c *Client) Login(ctx context.Context) (*model.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	defer cancel()

	body, err := json.Marshal(loginRequest{
		Username: c.username,
		Password: c.password,
		Captcha:  "exitoso",
	})
	if err != nil {
		return nil, apperrors.LoginFailed(fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.LoginFailed(fmt.Errorf("create request: %w", err))
	}
	c.setBrowserHeaders(req, loginReferer)
	req.Header.Set("Content-Type", "application/json")

	log.Info().Str("url", c.loginURL).Msg("logging in to portal")

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("portal login request failed")
		return nil, apperrors.LoginFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("portal login rejected")
		return nil, apperrors.AuthFailed(fmt.Sprintf("status %d", resp.StatusCode))
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env); err != nil {
		return nil, apperrors.LoginFailed(fmt.Errorf("decode response: %w", err))
	}
	if !env.Valid {
		log.Error().Str("message", env.Message).Msg("portal login invalid")
		return nil, apperrors.AuthFailed(nonEmpty(env.Message, "invalid credentials"))
	}

	var data loginData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, apperrors.LoginFailed(fmt.Errorf("decode data: %w", err))
		}
	}
	if data.AuthToken == "" {
		return nil, apperrors.AuthFailed("no authToken in response")
	}

	allyID, userID, err := decodeToken(data.AuthToken)
	if err != nil {
		return nil, apperrors.LoginFailed(err)
	}

	log.Info().
		Str("userId", userID).
		Str("allyId", allyID).
		Str("tokenFp", util.Fingerprint(data.AuthToken)).
		Dur("elapsed", elapsed).
		Msg("portal login successful")

	return &model.Session{
		Token:     data.AuthToken,
		AllyID:    allyID,
		UserID:    userID,
		CreatedAt: c.now(),
	}, nil
}

// Lookup performs one credit-line query. It never fails: transport and remote
// errors are folded into the returned status.
//
// The first attempt is bounded by the quick timeout. Only when that attempt
// times out is a second one made with the full timeout, so a completed quick
// attempt yields the same classification a single slow call would.
func (c *Client) Lookup(ctx context.Context, session *model.Session, dni string) model.QueryResult {
	start := time.Now()

	result, timedOut := c.attempt(ctx, session, dni, c.quickTimeout)
	if timedOut && c.timeout > c.quickTimeout && ctx.Err() == nil {
		log.Debug().
			Str("dni", dni).
			Dur("quickTimeout", c.quickTimeout).
			Msg("quick lookup timed out, retrying with full timeout")
		result, _ = c.attempt(ctx, session, dni, c.timeout)
	}

	log.Info().
		Str("dni", dni).
		Str("status", result.Status.String()).
		Dur("elapsed", time.Since(start)).
		Msg("portal lookup finished")

	return result
}

func (c *Client) attempt(ctx context.Context, session *model.Session, dni string, timeout time.Duration) (model.QueryResult, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.lookupURL, nil)
	if err != nil {
		return exceptionResult(fmt.Errorf("create request: %w", err)), false
	}
	q := url.Values{}
	q.Set("numeroDocumento", dni)
	q.Set("tipoDocumento", documentType)
	q.Set("idAliado", session.AllyID)
	q.Set("canal", channel)
	req.URL.RawQuery = q.Encode()

	c.setBrowserHeaders(req, lookupReferer)
	req.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.transportFailure(err, timeout)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.transportFailure(err, timeout)
	}

	return ClassifyResponse(resp.StatusCode, body), false
}

func (c *Client) transportFailure(err error, timeout time.Duration) (model.QueryResult, bool) {
	if isTimeout(err) {
		return model.QueryResult{
			Status: model.Timeout(),
			RawMessage: fmt.Sprintf(
				"La consulta excedió el tiempo máximo de espera de %d segundos. Por favor, inténtelo nuevamente.",
				int(timeout.Seconds()),
			),
		}, true
	}
	log.Error().Err(err).Msg("portal lookup transport error")
	return exceptionResult(err), false
}

// ClassifyResponse maps an HTTP status and body from the lookup endpoint to a
// query result. First match wins.
func ClassifyResponse(statusCode int, body []byte) model.QueryResult {
	switch statusCode {
	case http.StatusOK:
		return classifyBody(body)
	case http.StatusUnauthorized:
		return model.QueryResult{Status: model.Expired(), RawMessage: "Sesión expirada"}
	case http.StatusForbidden:
		return model.QueryResult{Status: model.Blocked(), RawMessage: "Acceso bloqueado"}
	case http.StatusTooManyRequests:
		return model.QueryResult{Status: model.RateLimited(), RawMessage: "Demasiadas consultas"}
	default:
		return model.QueryResult{
			Status:     model.HTTPError(statusCode),
			RawMessage: fmt.Sprintf("Error HTTP %d", statusCode),
		}
	}
}

func classifyBody(body []byte) model.QueryResult {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return exceptionResult(errors.New("empty response from portal"))
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return exceptionResult(fmt.Errorf("decode response: %w", err))
	}

	if !env.Valid {
		msg := nonEmpty(env.Message, "Sin mensaje")
		return model.QueryResult{Status: model.Invalid(msg), RawMessage: msg}
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return exceptionResult(errors.New("valid response without data"))
	}

	var client model.Client
	if err := json.Unmarshal(data, &client); err != nil {
		return exceptionResult(fmt.Errorf("decode client data: %w", err))
	}

	return model.QueryResult{Client: &client, Status: model.Success(), RawMessage: env.Message}
}

func exceptionResult(err error) model.QueryResult {
	return model.QueryResult{Status: model.Exception(err.Error()), RawMessage: err.Error()}
}

func (c *Client) setBrowserHeaders(req *http.Request, referer string) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("User-Agent", userAgent)
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
		req.Header.Set("Referer", c.origin+referer)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func originOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
