package storyblok

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Request represents an HTTP request that can be intercepted.
type Request struct {
	Method   string
	Path     string
	Query    string
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// InterceptedResponse represents an HTTP response that can be intercepted.
type InterceptedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// RequestInterceptor is called once before a request is sent, not per retry.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called once after the final attempt.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *InterceptedResponse) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// Clone returns a chain holding the same interceptors. Adding to the clone
// leaves c unchanged.
func (c *InterceptorChain) Clone() *InterceptorChain {
	if c == nil {
		return NewInterceptorChain()
	}

	return &InterceptorChain{
		requestInterceptors:  append([]RequestInterceptor(nil), c.requestInterceptors...),
		responseInterceptors: append([]ResponseInterceptor(nil), c.responseInterceptors...),
	}
}

// ExecuteRequestInterceptors runs all request interceptors.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *InterceptedResponse) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// Common Interceptors

// LoggingInterceptor logs requests. Query strings are not logged because
// delivery requests carry the API key in them.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("API Request", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *InterceptedResponse) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// Metrics holds call statistics for one endpoint.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	InFlight        int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector collects API metrics per "METHOD path".
type MetricsCollector struct {
	mu      sync.Mutex
	metrics map[string]*Metrics
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// GetMetrics returns a copy of the metrics for an endpoint, or nil.
func (m *MetricsCollector) GetMetrics(endpoint string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if metrics, ok := m.metrics[endpoint]; ok {
		snapshot := *metrics

		return &snapshot
	}

	return nil
}

// Snapshot returns a copy of every endpoint's metrics.
func (m *MetricsCollector) Snapshot() map[string]Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Metrics, len(m.metrics))
	for endpoint, metrics := range m.metrics {
		out[endpoint] = *metrics
	}

	return out
}

func (m *MetricsCollector) endpoint(key string) *Metrics {
	metrics, ok := m.metrics[key]
	if !ok {
		metrics = &Metrics{}
		m.metrics[key] = metrics
	}

	return metrics
}

func endpointKey(req *Request) string {
	return fmt.Sprintf("%s %s", req.Method, req.Path)
}

// MetricsRequestInterceptor records the request start time and counts the
// request as in flight until MetricsResponseInterceptor sees it complete.
func MetricsRequestInterceptor(collector *MetricsCollector) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata["start_time"] = time.Now()

		collector.mu.Lock()
		defer collector.mu.Unlock()

		collector.endpoint(endpointKey(req)).InFlight++

		return nil
	}
}

// MetricsResponseInterceptor records response metrics.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *InterceptedResponse) error {
		collector.mu.Lock()
		defer collector.mu.Unlock()

		metrics := collector.endpoint(endpointKey(req))
		metrics.TotalRequests++

		if metrics.InFlight > 0 {
			metrics.InFlight--
		}
		metrics.LastRequestTime = time.Now()

		if startTime, ok := req.Metadata["start_time"].(time.Time); ok {
			metrics.TotalLatency += time.Since(startTime)
			metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
		}

		if resp.Error != nil || resp.StatusCode >= http.StatusBadRequest {
			metrics.TotalErrors++
		}

		return nil
	}
}
