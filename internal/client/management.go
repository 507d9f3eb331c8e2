package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fivetwenty-io/storyblok-client/internal/auth"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// ManagementClient implements storyblok.ManagementClient.
type ManagementClient struct {
	*base

	events storyblok.EventPublisher
	now    func() time.Time
}

var _ storyblok.ManagementClient = (*ManagementClient)(nil)

// NewManagement creates a content management client.
func NewManagement(config *storyblok.Config) (*ManagementClient, error) {
	return NewManagementWithKeyManager(config, nil)
}

// NewManagementWithKeyManager creates a content management client that reads
// its API key from keys instead of config.APIKey.
func NewManagementWithKeyManager(config *storyblok.Config, keys auth.KeyManager) (*ManagementClient, error) {
	if config != nil && config.Kind != storyblok.ContentManagement {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrWrongConsumerKind, storyblok.ContentManagement, config.Kind)
	}

	b, normalized, err := newBase(config, keys)
	if err != nil {
		return nil, err
	}

	return &ManagementClient{
		base:   b,
		events: normalized.Events,
		now:    time.Now,
	}, nil
}

// Get implements storyblok.ManagementClient.Get.
func (c *ManagementClient) Get(ctx context.Context, path string, options *storyblok.Options) (*storyblok.Response, error) {
	resp, err := c.httpClient.Get(ctx, path, options)
	if err != nil {
		return nil, storyblok.WrapAPIError("getting "+path, err)
	}

	return toResponse(resp), nil
}

// Post implements storyblok.ManagementClient.Post.
func (c *ManagementClient) Post(ctx context.Context, path string, payload any) (*storyblok.Response, error) {
	return c.write(ctx, http.MethodPost, "creating "+path, path, payload)
}

// Put implements storyblok.ManagementClient.Put.
func (c *ManagementClient) Put(ctx context.Context, path string, payload any) (*storyblok.Response, error) {
	return c.write(ctx, http.MethodPut, "updating "+path, path, payload)
}

// Delete implements storyblok.ManagementClient.Delete.
func (c *ManagementClient) Delete(ctx context.Context, path string) (*storyblok.Response, error) {
	return c.write(ctx, http.MethodDelete, "deleting "+path, path, nil)
}

func (c *ManagementClient) write(ctx context.Context, method, op, path string, payload any) (*storyblok.Response, error) {
	resp, err := c.httpClient.Do(ctx, method, path, nil, payload)
	if err != nil {
		return nil, storyblok.WrapAPIError(op, err)
	}

	c.publish(ctx, &storyblok.ManagementEvent{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		At:         c.now().UTC(),
	})

	return toResponse(resp), nil
}

// publish hands event to the configured publisher. Failures are logged only;
// the write itself already succeeded.
func (c *ManagementClient) publish(ctx context.Context, event *storyblok.ManagementEvent) {
	if c.events == nil {
		return
	}

	err := c.events.Publish(ctx, event)
	if err != nil && c.logger != nil {
		c.logger.Warn("failed to publish management event", map[string]interface{}{
			"method": event.Method,
			"path":   event.Path,
			"error":  err.Error(),
		})
	}
}
