// Package api is the typed client of the dashboard REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"findash/internal/log"
	"findash/internal/session"
)

const (
	defaultMaxResponseBytes = 32 << 20
	defaultMaxExportBytes   = 1 << 30
)

// ErrResponseTooLarge is wrapped by the error of a call whose response body
// exceeds the client's cap.
var ErrResponseTooLarge = errors.New("response body too large")

// Navigator is told to show the login entry point after an authorization
// failure.
type Navigator interface {
	ToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() { f() }

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64 // 0 disables throttling
	RateLimitBurst int
	// MaxResponseBytes caps JSON answers, MaxExportBytes caps CSV exports.
	// Zero selects 32 MiB and 1 GiB.
	MaxResponseBytes int64
	MaxExportBytes   int64
	HTTPClient     *http.Client
	Navigator      Navigator
	Logger         *log.Logger
}

// Client issues backend calls on behalf of one session.
type Client struct {
	baseURL   string
	http      *http.Client
	session   *session.Session
	navigator Navigator
	limiter   *rate.Limiter
	logger    *log.Logger
	maxBody   int64
	maxExport int64
}

func NewClient(opts Options, sess *session.Session) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentAPI)

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: &log.Transport{Logger: logger},
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}

	navigator := opts.Navigator
	if navigator == nil {
		navigator = NavigatorFunc(func() {})
	}

	maxBody := opts.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = defaultMaxResponseBytes
	}
	maxExport := opts.MaxExportBytes
	if maxExport <= 0 {
		maxExport = defaultMaxExportBytes
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      httpClient,
		session:   sess,
		navigator: navigator,
		limiter:   limiter,
		logger:    logger,
		maxBody:   maxBody,
		maxExport: maxExport,
	}
}

// Session returns the session the client reads its token from.
func (c *Client) Session() *session.Session {
	return c.session
}

type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	fallback string
	limit    int64 // 0 = the client's MaxResponseBytes
}

// do sends the request and returns the raw body of a 2xx answer.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	fail := func(kind Kind, status int, msg string, err error) error {
		return &Error{Op: cl.op, Status: status, Kind: kind, Message: msg, Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fail(KindNetwork, 0, cl.fallback, err)
		}
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fail(KindNetwork, 0, cl.fallback, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fail(KindNetwork, 0, cl.fallback, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(KindNetwork, 0, cl.fallback, err)
	}
	defer resp.Body.Close()

	limit := cl.limit
	if limit <= 0 {
		limit = c.maxBody
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fail(KindNetwork, resp.StatusCode, cl.fallback, fmt.Errorf("read response: %w", err))
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.teardown(ctx, cl.op, resp.StatusCode)
		return nil, fail(KindAuth, resp.StatusCode, errorMessage(data, cl.fallback), ErrUnauthorized)
	case resp.StatusCode >= 500:
		return nil, fail(KindServer, resp.StatusCode, errorMessage(data, cl.fallback), nil)
	case resp.StatusCode >= 400:
		return nil, fail(KindValidation, resp.StatusCode, errorMessage(data, cl.fallback), nil)
	}

	if int64(len(data)) > limit {
		c.logger.ErrorContext(ctx, "Response exceeds size cap",
			log.FieldOperation, cl.op, "limit_bytes", limit)
		return nil, fail(KindNetwork, resp.StatusCode, cl.fallback,
			fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, limit))
	}
	return data, nil
}

// teardown clears the session and sends the user to login. It runs for every
// 401/403, whoever initiated the call.
func (c *Client) teardown(ctx context.Context, op string, status int) {
	c.logger.WarnContext(ctx, "Authorization failed, clearing session",
		log.FieldOperation, op,
		log.FieldStatusCode, status,
		log.FieldErrorType, log.ErrorTypeAuth)

	if err := c.session.Clear(ctx); err != nil {
		c.logger.ErrorContext(ctx, "Session teardown incomplete", log.FieldError, err)
	}
	c.navigator.ToLogin()
}

func (c *Client) decode(cl call, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: cl.op, Kind: KindNetwork, Message: cl.fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, cl call, out any) error {
	cl.method = http.MethodGet
	data, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	return c.decode(cl, data, out)
}

func (c *Client) postJSON(ctx context.Context, cl call, out any) error {
	cl.method = http.MethodPost
	data, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return c.decode(cl, data, out)
}
