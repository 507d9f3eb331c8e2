package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fivetwenty-io/storyblok-client/internal/auth"
	"github.com/fivetwenty-io/storyblok-client/internal/http"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// base holds what the delivery and management clients share: the transport,
// the API key, and the edit mode flag.
type base struct {
	httpClient *http.Client
	keys       auth.KeyManager
	logger     storyblok.Logger

	mu       sync.RWMutex
	editMode bool
}

// createHTTPClientOptions builds HTTP client options from a normalized config.
func createHTTPClientOptions(config *storyblok.Config) []http.Option {
	httpOpts := []http.Option{
		http.WithConsumerKind(config.Kind),
		http.WithRetryConfig(config.MaxRetries, config.RetryStep),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.Timeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.Timeout))
	}

	// The caller's chain may be shared by several clients.
	chain := config.Interceptors
	if len(config.Headers) > 0 {
		chain = chain.Clone()
		chain.AddRequestInterceptor(storyblok.HeaderInterceptor(config.Headers))
	}

	if chain != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(chain))
	}

	return httpOpts
}

// newBase normalizes config and builds the transport for it. keys replaces
// the static key from config when not nil.
func newBase(config *storyblok.Config, keys auth.KeyManager) (*base, *storyblok.Config, error) {
	normalized, err := config.Normalize()
	if err != nil {
		return nil, nil, err
	}

	if keys == nil {
		keys = auth.NewStaticKeyManager(normalized.APIKey)
	}

	baseURL := http.BuildBaseURL(normalized.Endpoint, normalized.APIVersion, normalized.UseTLS, normalized.Kind)

	b := &base{
		httpClient: http.NewClient(baseURL, keys, createHTTPClientOptions(normalized)...),
		keys:       keys,
		logger:     normalized.Logger,
		editMode:   normalized.EditMode,
	}

	return b, normalized, nil
}

// BaseURL returns the URL every request path is resolved against.
func (b *base) BaseURL() string {
	return b.httpClient.BaseURL()
}

// APIKey returns the current API key, "" when none is set.
func (b *base) APIKey() string {
	key, err := b.keys.GetKey(context.Background())
	if err != nil {
		return ""
	}

	return key
}

// SetAPIKey replaces the API key for subsequent requests.
func (b *base) SetAPIKey(key string) {
	b.keys.SetKey(key)
}

// Timeout returns the per-attempt timeout, zero when unset.
func (b *base) Timeout() time.Duration {
	return b.httpClient.Timeout()
}

// SetTimeout changes the per-attempt timeout. Zero removes it.
func (b *base) SetTimeout(timeout time.Duration) error {
	err := b.httpClient.SetTimeout(timeout)
	if errors.Is(err, http.ErrInvalidTimeout) {
		return storyblok.ErrInvalidTimeout
	}

	return err
}

// MaxRetries returns the retry limit.
func (b *base) MaxRetries() int {
	return b.httpClient.MaxRetries()
}

// SetMaxRetries changes the retry limit.
func (b *base) SetMaxRetries(maxRetries int) error {
	err := b.httpClient.SetMaxRetries(maxRetries)
	if errors.Is(err, http.ErrInvalidMaxRetries) {
		return storyblok.ErrInvalidMaxRetries
	}

	return err
}

// EditMode reports whether the client serves the visual editor.
func (b *base) EditMode() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.editMode
}

// SetEditMode sets the edit mode flag.
func (b *base) SetEditMode(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.editMode = enabled
}

func toResponse(resp *http.Response) *storyblok.Response {
	return storyblok.NewResponse(resp.StatusCode, resp.Headers, resp.Body)
}
