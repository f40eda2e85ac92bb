package resilience

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without calling the provider while the breaker is open.
var ErrCircuitOpen = errors.New("provider circuit open")

// StatusError is returned for 5xx provider responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ClientConfig configures a provider Client.
type ClientConfig struct {
	Name    string
	Timeout time.Duration

	// Retries is the number of extra attempts after a failed call.
	// Zero means a single attempt.
	Retries uint64

	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration

	Breaker *BreakerConfig

	// Registry, when set, receives the client and its call outcomes.
	Registry *Registry
}

// Client performs provider HTTP calls through a circuit breaker.
type Client struct {
	cfg      ClientConfig
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	registry *Registry
}

// NewClient builds a Client and registers it when cfg.Registry is set.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = 200 * time.Millisecond
	}
	if cfg.RetryMaxInterval <= 0 {
		cfg.RetryMaxInterval = 2 * time.Second
	}
	breakerCfg := DefaultBreakerConfig(cfg.Name)
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
		if breakerCfg.Name == "" {
			breakerCfg.Name = cfg.Name
		}
	}

	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		breaker:  newBreaker[*http.Response](breakerCfg), //nolint:bodyclose // type parameter
		registry: cfg.Registry,
	}
	if c.registry != nil {
		c.registry.Register(cfg.Name, c)
	}
	return c
}

// Name returns the provider name the client was built with.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Do sends req. Responses below 500 are returned as-is for the caller to
// interpret; network failures and 5xx responses count against the breaker
// and are retried only when Retries > 0.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if c.cfg.Retries > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = c.cfg.RetryInitialInterval
		exp.MaxInterval = c.cfg.RetryMaxInterval
		exp.MaxElapsedTime = 0
		policy = backoff.WithMaxRetries(exp, c.cfg.Retries)
	}

	var resp *http.Response
	attempt := func() error {
		r, err := c.breaker.Execute(func() (*http.Response, error) {
			r, err := c.http.Do(req.Clone(ctx))
			if err != nil {
				return nil, stripURL(err)
			}
			if r.StatusCode >= http.StatusInternalServerError {
				_ = r.Body.Close()
				return nil, &StatusError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		c.recordFailure(err)
		return nil, err
	}
	c.recordSuccess()
	return resp, nil
}

// State reports the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts reports the breaker counters for the current generation.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.RecordSuccess(c.cfg.Name)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(c.cfg.Name, err)
	}
}

// stripURL drops the request URL from transport errors. Provider URLs carry
// credentials in their query string.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s request failed: %w", uerr.Op, uerr.Err)
	}
	return err
}
