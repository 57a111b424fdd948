package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/GriffinCanCode/chmon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chmon/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Client.
type Options struct {
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RequestsPerSecond of zero or less disables rate limiting
	RequestsPerSecond float64
	UserAgent         string
	Metrics           *monitoring.Metrics
	Logger            *logging.Logger
}

// DefaultOptions mirrors the process configuration defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:      30 * time.Second,
		Retries:      3,
		RetryWaitMin: time.Second,
		RetryWaitMax: 30 * time.Second,
		UserAgent:    "chmon/1.0",
	}
}

// StatusError reports a non-2xx answer from a remote API.
type StatusError struct {
	Method string
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

// HTTPStatus returns the status code of the answer
func (e *StatusError) HTTPStatus() int { return e.Status }

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == status
}

// Client wraps resty with rate limiting and one circuit breaker per host.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter

	metrics  *monitoring.Metrics
	logger   *logging.Logger
	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

// NewClient creates an HTTP client for remote repository APIs
func NewClient(opts Options) *Client {
	// Retries on connection errors, 429 and 5xx happen below resty
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient())
	restyClient.
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		Resty:    restyClient,
		Limiter:  limiter,
		metrics:  opts.Metrics,
		logger:   opts.Logger.Component("http"),
		breakers: make(map[string]*resilience.Breaker),
	}
}

// breaker returns the circuit breaker for the host of rawURL
func (c *Client) breaker(rawURL string) *resilience.Breaker {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[host]; ok {
		return b
	}

	b := resilience.New(host, resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsFailure: func(err error) bool {
			// A 4xx is an answer about the request, not an outage of the host
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.Status >= 500
			}
			return err != nil
		},
		OnStateChange: func(name string, from, to resilience.State) {
			c.metrics.RecordBreakerTransition(name, to.String())
			c.logger.Warn("repository host breaker changed state",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	c.breakers[host] = b
	return b
}

// BreakerState returns the breaker state of the host serving rawURL
func (c *Client) BreakerState(rawURL string) resilience.State {
	return c.breaker(rawURL).State()
}

// Request creates a new request after waiting for the rate limiter
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	return c.Resty.R().SetContext(ctx), nil
}

// execute runs one request through the host breaker and checks its status.
func (c *Client) execute(ctx context.Context, method, rawURL string, prepare func(*resty.Request)) (*resty.Response, error) {
	var resp *resty.Response
	err := c.breaker(rawURL).Do(func() error {
		req, err := c.Request(ctx)
		if err != nil {
			return err
		}
		if prepare != nil {
			prepare(req)
		}

		start := time.Now()
		resp, err = req.Execute(method, rawURL)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, rawURL, err)
		}
		c.logger.Debug("request completed",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("elapsed", time.Since(start)))

		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return &StatusError{Method: method, URL: rawURL, Status: resp.StatusCode()}
		}
		return nil
	})
	return resp, err
}

// GetJSON fetches rawURL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	resp, err := c.execute(ctx, http.MethodGet, rawURL, func(req *resty.Request) {
		req.SetHeaders(headers)
	})
	if err != nil {
		return err
	}
	return decode(rawURL, resp.Body(), out)
}

// PostJSON sends body as JSON to rawURL and decodes the answer into out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any, out any) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request for %s: %w", rawURL, err)
	}

	resp, err := c.execute(ctx, http.MethodPost, rawURL, func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json").
			SetBody(bytes.NewReader(payload))
	})
	if err != nil {
		return err
	}
	return decode(rawURL, resp.Body(), out)
}

// GetText fetches rawURL and returns the body as a string.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.execute(ctx, http.MethodGet, rawURL, func(req *resty.Request) {
		req.SetHeader("Accept", "text/html, text/plain, */*")
	})
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

func decode(rawURL string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}
