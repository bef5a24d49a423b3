package sankhya

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vtex-sync/internal/alerting"
)

const (
	maxGetAttempts = 5
	maxGetReauths  = 1

	defaultLoginURL   = "https://api.sankhya.com.br/login"
	defaultBaseMGE    = "https://api.sankhya.com.br/gateway/v1/mge/service.sbr"
	defaultBaseMGECom = "https://api.sankhya.com.br/gateway/v1/mgecom/service.sbr"
)

// Service names carrying these prefixes are served by the mgecom gateway;
// everything else goes through mge.
var mgecomPrefixes = []string{"CACSP.", "SelecaoDocumentoSP."}

var (
	// ErrMissingService indicates a payload without a serviceName.
	ErrMissingService = errors.New("sankhya: payload must carry a serviceName")
	// ErrMissingToken indicates a login response without a bearer token.
	ErrMissingToken = errors.New("sankhya: bearer token missing from login response")
	// ErrNotJSON indicates a response body that does not look like JSON.
	ErrNotJSON = errors.New("sankhya: response body is not JSON")
)

// Credentials hold the four static secrets of the identity endpoint.
// Loaded once, immutable for the process lifetime.
type Credentials struct {
	Token    string
	AppKey   string
	Username string
	Password string
}

// Options parameterise the session.
type Options struct {
	LoginURL   string
	BaseMGE    string
	BaseMGECom string
	Timeout    time.Duration
	// TokenTTL is the declared token lifetime used when the identity
	// endpoint does not report one. Expiry is set at 90% of it.
	TokenTTL       time.Duration
	RetryBaseDelay time.Duration
}

// Payload is a Sankhya service request body. The serviceName selects both
// the operation and the gateway base path.
type Payload struct {
	ServiceName string `json:"serviceName"`
	RequestBody any    `json:"requestBody,omitempty"`
}

// Session owns the bearer token lifecycle for the Sankhya gateway. It
// re-authenticates on demand when the token expires and transparently on 401.
// Not safe for concurrent use; the reconciler is strictly sequential.
type Session struct {
	opts     Options
	creds    Credentials
	client   *http.Client
	notifier alerting.Notifier
	logger   zerolog.Logger

	bearer    string
	expiresAt time.Time

	now func() time.Time
}

// NewSession constructs an unauthenticated session.
func NewSession(opts Options, creds Credentials, notifier alerting.Notifier, logger zerolog.Logger) *Session {
	if opts.LoginURL == "" {
		opts.LoginURL = defaultLoginURL
	}
	if opts.BaseMGE == "" {
		opts.BaseMGE = defaultBaseMGE
	}
	if opts.BaseMGECom == "" {
		opts.BaseMGECom = defaultBaseMGECom
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 30 * time.Minute
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = time.Second
	}

	return &Session{
		opts:     opts,
		creds:    creds,
		client:   &http.Client{Timeout: opts.Timeout},
		notifier: notifier,
		logger:   logger.With().Str("component", "sankhya_session").Logger(),
		now:      time.Now,
	}
}

// Authenticate posts the credentials to the identity endpoint and stores the
// bearer token with a conservative expiry. Failure here is fatal for the run.
func (s *Session) Authenticate(ctx context.Context) error {
	s.logger.Info().Msg("authenticating against Sankhya API")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.LoginURL, nil)
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("token", s.creds.Token)
	req.Header.Set("appkey", s.creds.AppKey)
	req.Header.Set("username", s.creds.Username)
	req.Header.Set("password", s.creds.Password)

	resp, err := s.client.Do(req)
	if err != nil {
		return s.authFailed(ctx, fmt.Errorf("login request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.authFailed(ctx, fmt.Errorf("login returned status %d", resp.StatusCode))
	}

	var body struct {
		BearerToken string `json:"bearerToken"`
		ExpiresIn   int64  `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return s.authFailed(ctx, fmt.Errorf("decode login response: %w", err))
	}
	if body.BearerToken == "" {
		return s.authFailed(ctx, ErrMissingToken)
	}

	ttl := s.opts.TokenTTL
	if body.ExpiresIn > 0 {
		ttl = time.Duration(body.ExpiresIn) * time.Second
	}

	s.bearer = body.BearerToken
	// 90% of the declared lifetime avoids edge-of-expiry failures.
	s.expiresAt = s.now().Add(ttl * 9 / 10)

	s.logger.Debug().Time("expires_at", s.expiresAt).Msg("bearer token acquired")
	return nil
}

func (s *Session) authFailed(ctx context.Context, err error) error {
	s.logger.Error().Err(err).Msg("authentication failed")
	alerting.Send(ctx, s.notifier, s.logger, "Could not authenticate against the Sankhya API")
	return fmt.Errorf("sankhya authenticate: %w", err)
}

// EnsureValid re-authenticates only when the token is absent or expired.
func (s *Session) EnsureValid(ctx context.Context) error {
	if s.bearer != "" && s.now().Before(s.expiresAt) {
		return nil
	}
	return s.Authenticate(ctx)
}

func (s *Session) serviceURL(serviceName string) string {
	base := s.opts.BaseMGE
	for _, prefix := range mgecomPrefixes {
		if strings.HasPrefix(serviceName, prefix) {
			base = s.opts.BaseMGECom
			break
		}
	}
	return fmt.Sprintf("%s?serviceName=%s&outputType=json", base, serviceName)
}

// Get issues a GET request with up to five retries on timeout, sleeping
// 2^(attempt-1) seconds between attempts. A 401 triggers one
// re-authentication and a retry that does not consume the timeout budget; a
// freshly acquired token that is still rejected is an error, not another
// login. A body that does not look like JSON is a recoverable per-call
// failure.
func (s *Session) Get(ctx context.Context, payload Payload) (json.RawMessage, error) {
	if payload.ServiceName == "" {
		return nil, ErrMissingService
	}
	if err := s.EnsureValid(ctx); err != nil {
		return nil, err
	}

	url := s.serviceURL(payload.ServiceName)

	reauths := 0
	for attempt := 1; attempt <= maxGetAttempts; {
		body, status, err := s.do(ctx, http.MethodGet, url, payload)
		switch {
		case isTimeout(err):
			s.logger.Warn().
				Int("attempt", attempt).
				Int("max_attempts", maxGetAttempts).
				Str("service", payload.ServiceName).
				Msg("request timed out")
			if attempt == maxGetAttempts {
				alerting.Sendf(ctx, s.notifier, s.logger,
					"Timeout after %d attempts calling %s", maxGetAttempts, payload.ServiceName)
				return nil, fmt.Errorf("sankhya get %s: timeout after %d attempts: %w", payload.ServiceName, maxGetAttempts, err)
			}
			if err := s.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			attempt++
		case err != nil:
			return nil, fmt.Errorf("sankhya get %s: %w", payload.ServiceName, err)
		case status == http.StatusUnauthorized:
			if reauths >= maxGetReauths {
				s.logger.Error().Str("service", payload.ServiceName).Msg("fresh bearer rejected, giving up")
				alerting.Sendf(ctx, s.notifier, s.logger,
					"Service %s keeps rejecting a freshly acquired token", payload.ServiceName)
				return nil, fmt.Errorf("sankhya get %s: fresh bearer rejected with status 401", payload.ServiceName)
			}
			s.logger.Warn().Str("service", payload.ServiceName).Msg("bearer rejected, re-authenticating")
			if err := s.Authenticate(ctx); err != nil {
				return nil, err
			}
			reauths++
		case status >= 400:
			return nil, fmt.Errorf("sankhya get %s: unexpected status %d", payload.ServiceName, status)
		case !looksLikeJSON(body):
			s.logger.Error().Str("service", payload.ServiceName).Msg("response body is not JSON")
			alerting.Sendf(ctx, s.notifier, s.logger,
				"Non-JSON response from %s", payload.ServiceName)
			return nil, fmt.Errorf("sankhya get %s: %w", payload.ServiceName, ErrNotJSON)
		default:
			return body, nil
		}
	}

	return nil, fmt.Errorf("sankhya get %s: retries exhausted", payload.ServiceName)
}

// Post issues a single POST request, re-authenticating once on 401. HTTP and
// decode failures are recoverable: the caller gets an error it can skip on.
func (s *Session) Post(ctx context.Context, payload Payload) (json.RawMessage, error) {
	if payload.ServiceName == "" {
		return nil, ErrMissingService
	}
	if err := s.EnsureValid(ctx); err != nil {
		return nil, err
	}

	url := s.serviceURL(payload.ServiceName)

	body, status, err := s.do(ctx, http.MethodPost, url, payload)
	if err == nil && status == http.StatusUnauthorized {
		s.logger.Warn().Str("service", payload.ServiceName).Msg("bearer rejected, re-authenticating")
		if err := s.Authenticate(ctx); err != nil {
			return nil, err
		}
		body, status, err = s.do(ctx, http.MethodPost, url, payload)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("service", payload.ServiceName).Msg("post failed")
		alerting.Sendf(ctx, s.notifier, s.logger, "Request to %s failed: %v", payload.ServiceName, err)
		return nil, fmt.Errorf("sankhya post %s: %w", payload.ServiceName, err)
	}
	if status >= 400 {
		s.logger.Error().Int("status", status).Str("service", payload.ServiceName).Msg("post returned error status")
		alerting.Sendf(ctx, s.notifier, s.logger, "Request to %s returned status %d", payload.ServiceName, status)
		return nil, fmt.Errorf("sankhya post %s: unexpected status %d", payload.ServiceName, status)
	}
	if !looksLikeJSON(body) {
		s.logger.Error().Str("service", payload.ServiceName).Msg("response body is not JSON")
		alerting.Sendf(ctx, s.notifier, s.logger, "Non-JSON response from %s", payload.ServiceName)
		return nil, fmt.Errorf("sankhya post %s: %w", payload.ServiceName, ErrNotJSON)
	}

	return body, nil
}

func (s *Session) do(ctx context.Context, method, url string, payload Payload) (json.RawMessage, int, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.bearer)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

func (s *Session) backoff(ctx context.Context, attempt int) error {
	delay := s.opts.RetryBaseDelay << (attempt - 1)
	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
