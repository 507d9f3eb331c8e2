// Package http is the transport shared by the delivery and management
// clients: URL building, API key injection, JSON bodies, and retries on top
// of go-retryablehttp.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/storyblok-client/internal/auth"
	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// Static errors for err113 compliance.
var (
	ErrInvalidMaxRetries = errors.New("max retries must not be negative")
	ErrInvalidTimeout    = errors.New("timeout must not be negative")
)

// errorBodyPreview bounds how much of an error response ends up in messages.
const errorBodyPreview = 120

// Response is a raw API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client sends requests to one Storyblok API base URL.
type Client struct {
	baseURL      string
	keys         auth.KeyManager
	kind         storyblok.ConsumerKind
	logger       storyblok.Logger
	debug        bool
	userAgent    string
	transport    http.RoundTripper
	interceptors *storyblok.InterceptorChain

	mu        sync.RWMutex
	timeout   time.Duration
	retryMax  int
	retryStep time.Duration
	retry     *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for retries and debug output.
func WithLogger(logger storyblok.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response through the logger.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithConsumerKind selects delivery or management behavior. Management
// clients send the API key in the Authorization header.
func WithConsumerKind(kind storyblok.ConsumerKind) Option {
	return func(c *Client) {
		c.kind = kind
	}
}

// WithRetryConfig sets the retry count and the linear backoff step.
func WithRetryConfig(retryMax int, step time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax

		if step > 0 {
			c.retryStep = step
		}
	}
}

// WithTimeout bounds each attempt. Zero disables the timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithTransport replaces the pooled default transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithInterceptors installs a request/response interceptor chain.
func WithInterceptors(chain *storyblok.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a client for baseURL. keys may be nil when no request
// needs an API key.
func NewClient(baseURL string, keys auth.KeyManager, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		keys:      keys,
		kind:      storyblok.ContentDelivery,
		userAgent: constants.DefaultUserAgent,
		retryMax:  constants.DefaultRetryMax,
		retryStep: constants.DefaultRetryStep,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = cleanhttp.DefaultPooledTransport()
	}

	if c.debug && c.logger != nil {
		c.interceptors = c.interceptors.Clone()
		c.interceptors.AddRequestInterceptor(storyblok.LoggingInterceptor(c.logger))
		c.interceptors.AddResponseInterceptor(storyblok.LoggingResponseInterceptor(c.logger))
	}

	if c.retryMax < 0 {
		c.retryMax = 0
	}

	c.retry = c.newRetryClient()

	return c
}

// newRetryClient builds a retryablehttp client from the current settings.
// Callers hold c.mu or own c exclusively.
func (c *Client) newRetryClient() *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Transport: c.transport,
		Timeout:   c.timeout,
	}
	rc.RetryMax = c.retryMax
	rc.RetryWaitMin = c.retryStep
	rc.RetryWaitMax = c.retryStep * time.Duration(c.retryMax+1)
	rc.CheckRetry = CheckRetry
	rc.Backoff = LinearBackoff(c.retryStep)
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil

	if c.logger != nil {
		rc.Logger = &leveledLogger{logger: c.logger}
		rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				c.logger.Warn("retrying request", map[string]interface{}{
					"method":  req.Method,
					"path":    req.URL.Path,
					"attempt": attempt,
				})
			}
		}
	}

	return rc
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Kind returns the consumer kind.
func (c *Client) Kind() storyblok.ConsumerKind {
	return c.kind
}

// Timeout returns the per-attempt timeout, zero when unset.
func (c *Client) Timeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.timeout
}

// SetTimeout changes the per-attempt timeout for subsequent requests.
func (c *Client) SetTimeout(timeout time.Duration) error {
	if timeout < 0 {
		return ErrInvalidTimeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeout = timeout
	c.retry = c.newRetryClient()

	return nil
}

// MaxRetries returns the retry limit.
func (c *Client) MaxRetries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.retryMax
}

// SetMaxRetries changes the retry limit for subsequent requests.
func (c *Client) SetMaxRetries(retryMax int) error {
	if retryMax < 0 {
		return ErrInvalidMaxRetries
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.retryMax = retryMax
	c.retry = c.newRetryClient()

	return nil
}

func (c *Client) retryClient() *retryablehttp.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.retry
}

// Get sends a GET request with the encoded options as query string.
func (c *Client) Get(ctx context.Context, path string, query *storyblok.Options) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post sends a POST request with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Put sends a PUT request with body encoded as JSON.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body)
}

// Delete sends a DELETE request without a body.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends a request and retries it according to the retry policy. Every
// failure, including a final status >= 400, is returned as *storyblok.APIError.
func (c *Client) Do(ctx context.Context, method, path string, query *storyblok.Options, body any) (*Response, error) {
	var payload []byte

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, storyblok.NewAPIError(storyblok.ErrorKindSerialization, 0, "encoding request body: "+err.Error(), err)
		}

		payload = data
	}

	ireq := &storyblok.Request{
		Method:  method,
		Path:    path,
		Query:   query.Encode(),
		Headers: make(http.Header),
		Body:    payload,
	}

	ireq.Headers.Set("Accept", "application/json")
	ireq.Headers.Set("User-Agent", c.userAgent)

	if payload != nil {
		ireq.Headers.Set("Content-Type", "application/json")
	}

	if c.kind == storyblok.ContentManagement {
		key, err := c.apiKey(ctx)
		if err != nil {
			return nil, storyblok.NewAPIError(storyblok.ErrorKindRequest, 0, "", err)
		}

		ireq.Headers.Set("Authorization", key)
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, ireq)
	if err != nil {
		return nil, storyblok.NewAPIError(storyblok.ErrorKindRequest, 0, "", err)
	}

	resp, err := c.send(ctx, ireq)

	iresp := &storyblok.InterceptedResponse{Error: err}
	if resp != nil {
		iresp.StatusCode = resp.StatusCode
		iresp.Headers = resp.Headers
		iresp.Body = resp.Body
	}

	if ierr := c.interceptors.ExecuteResponseInterceptors(ctx, ireq, iresp); ierr != nil && err == nil {
		err = storyblok.NewAPIError(storyblok.ErrorKindRequest, 0, "", ierr)
	}

	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, ireq *storyblok.Request) (*Response, error) {
	target := resolve(c.baseURL, ireq.Path)
	if ireq.Query != "" {
		target += "?" + ireq.Query
	}

	var body interface{}
	if ireq.Body != nil {
		body = ireq.Body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, ireq.Method, target, body)
	if err != nil {
		return nil, storyblok.NewAPIError(storyblok.ErrorKindRequest, 0, "building request: "+err.Error(), err)
	}

	for name, values := range ireq.Headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	httpResp, err := c.retryClient().Do(req)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		return nil, transportError(ireq, err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, storyblok.NewAPIError(storyblok.ErrorKindConnection, httpResp.StatusCode, "reading response body: "+err.Error(), err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}

	if resp.StatusCode >= constants.HTTPStatusBadRequest {
		return resp, statusError(ireq, resp)
	}

	return resp, nil
}

func (c *Client) apiKey(ctx context.Context) (string, error) {
	if c.keys == nil {
		return "", auth.ErrNoKey
	}

	key, err := c.keys.GetKey(ctx)
	if err != nil {
		return "", fmt.Errorf("getting API key: %w", err)
	}

	return key, nil
}

func transportError(req *storyblok.Request, err error) *storyblok.APIError {
	cause := err

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		cause = urlErr.Err
	}

	message := fmt.Sprintf("%s %s: %v", req.Method, req.Path, cause)

	switch {
	case isTimeout(err):
		return storyblok.NewAPIError(storyblok.ErrorKindTimeout, 0, message, err)
	case isConnectionError(err):
		return storyblok.NewAPIError(storyblok.ErrorKindConnection, 0, message, err)
	default:
		return storyblok.NewAPIError(storyblok.ErrorKindRequest, 0, message, err)
	}
}

func statusError(req *storyblok.Request, resp *Response) *storyblok.APIError {
	preview := bytes.TrimSpace(resp.Body)
	if len(preview) > errorBodyPreview {
		preview = append(preview[:errorBodyPreview:errorBodyPreview], "..."...)
	}

	message := fmt.Sprintf("%s %s resulted in a %d %s response",
		req.Method, req.Path, resp.StatusCode, http.StatusText(resp.StatusCode))
	if len(preview) > 0 {
		message += ": " + string(preview)
	}

	apiErr := storyblok.NewAPIError(storyblok.ErrorKindHTTPStatus, resp.StatusCode, message, nil)
	apiErr.Body = resp.Body

	return apiErr
}
