package dispatch

import (
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

	"github.com/storyflow/gateway/internal/registry"
)

const (
	// DefaultTimeout bounds one outbound subservice call.
	DefaultTimeout = 120 * time.Second

	// RequestIDHeader carries the gateway request id to the subservice.
	RequestIDHeader = "X-Request-Id"

	maxResponseBytes int64 = 8 << 20
	maxErrorBytes    int64 = 64 << 10
)

type contextKey string

const requestIDKey = contextKey("requestID")

// ContextWithRequestID attaches a request id that is forwarded to subservices.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Dispatcher routes one generate request to the subservice of its model.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	registry   *registry.Registry
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

type Option func(*Dispatcher)

// WithHTTPClient replaces the HTTP client used for outbound calls.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) {
		d.httpClient = c
	}
}

// WithTimeout changes the outbound call timeout. Non-positive values keep
// DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher over an immutable registry.
func New(reg *registry.Registry, opts ...Option) (*Dispatcher, error) {
	if reg == nil {
		return nil, errors.New("dispatch: registry must not be nil")
	}
	d := &Dispatcher{
		registry: reg,
		timeout:  DefaultTimeout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.httpClient == nil {
		d.httpClient = &http.Client{
			Timeout: d.timeout,
			// A redirect is an answer of the subservice, not a new target
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return d, nil
}

// Registry returns the registry the dispatcher routes with.
func (d *Dispatcher) Registry() *registry.Registry {
	if d == nil {
		return nil
	}
	return d.registry
}

// Timeout returns the outbound call timeout.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Dispatch validates model, projects fields for its subservice, posts them
// form-encoded and returns the subservice JSON body unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, model string, fields registry.Fields) (json.RawMessage, error) {
	id := registry.ModelID(model)
	target, ok := d.registry.Lookup(id)
	if !ok {
		return nil, newError(ErrorUnknownModel, model, "", nil)
	}
	payload, err := registry.Project(id, fields)
	if err != nil {
		return nil, newError(ErrorUnknownModel, model, target, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, newError(ErrorUnreachable, model, target, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if rid := RequestIDFromContext(ctx); rid != "" {
		req.Header.Set(RequestIDHeader, rid)
	}

	start := time.Now()
	log := d.logger.With().Str("model", model).Str("url", target).Logger()

	res, err := d.httpClient.Do(req)
	if err != nil {
		code := transportCode(ctx, err)
		log.Error().Err(err).Str("code", string(code)).Dur("duration", time.Since(start)).Msg("subservice call failed")
		return nil, newError(code, model, target, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBytes))
		log.Warn().Int("status", res.StatusCode).Dur("duration", time.Since(start)).Msg("subservice returned an error")
		return nil, &Error{
			Code:        ErrorSubservice,
			Model:       model,
			URL:         target,
			StatusCode:  res.StatusCode,
			ContentType: res.Header.Get("Content-Type"),
			Body:        body,
		}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes+1))
	if err != nil {
		code := transportCode(ctx, err)
		log.Error().Err(err).Str("code", string(code)).Msg("reading subservice response failed")
		return nil, newError(code, model, target, fmt.Errorf("read response body: %w", err))
	}
	if int64(len(body)) > maxResponseBytes {
		return nil, newError(ErrorMalformedResponse, model, target, fmt.Errorf("response body exceeds %d bytes", maxResponseBytes))
	}
	if !json.Valid(body) {
		log.Error().Int("status", res.StatusCode).Msg("subservice response is not valid JSON")
		return nil, newError(ErrorMalformedResponse, model, target, errors.New("response body is not valid JSON"))
	}

	log.Info().Int("status", res.StatusCode).Dur("duration", time.Since(start)).Msg("subservice call succeeded")
	return json.RawMessage(body), nil
}

func transportCode(ctx context.Context, err error) ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	return ErrorUnreachable
}
