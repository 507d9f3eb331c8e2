// Package client implements the Storyblok delivery and management clients on
// top of the shared transport in internal/http.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/storyblok-client/internal/auth"
	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// Static errors for err113 compliance.
var (
	ErrWrongConsumerKind = errors.New("config is for a different consumer kind")
)

// Client implements storyblok.DeliveryClient.
type Client struct {
	*base

	version          storyblok.ContentVersion
	resolveRelations string
}

var _ storyblok.DeliveryClient = (*Client)(nil)

// New creates a content delivery client.
func New(config *storyblok.Config) (*Client, error) {
	return NewWithKeyManager(config, nil)
}

// NewWithKeyManager creates a content delivery client that reads its API key
// from keys instead of config.APIKey. config.APIKey must still be set.
func NewWithKeyManager(config *storyblok.Config, keys auth.KeyManager) (*Client, error) {
	if config != nil && config.Kind != storyblok.ContentDelivery {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrWrongConsumerKind, storyblok.ContentDelivery, config.Kind)
	}

	b, normalized, err := newBase(config, keys)
	if err != nil {
		return nil, err
	}

	return &Client{
		base:             b,
		version:          normalized.Version,
		resolveRelations: normalized.ResolveRelations,
	}, nil
}

// Version returns the content version requested when edit mode is off.
func (c *Client) Version() storyblok.ContentVersion {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.version
}

// SetVersion selects the content version. Unknown values select draft.
func (c *Client) SetVersion(version storyblok.ContentVersion) {
	parsed, err := storyblok.ParseContentVersion(string(version))
	if err != nil {
		parsed = storyblok.VersionDraft
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.version = parsed
}

// ResolveRelations returns the resolve_relations value sent with story
// lookups.
func (c *Client) ResolveRelations() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.resolveRelations
}

// SetResolveRelations sets the resolve_relations value, e.g.
// "article.author,article.categories". An empty value omits the parameter.
func (c *Client) SetResolveRelations(relations string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resolveRelations = relations
}

// effectiveVersion is the version sent on the wire. The visual editor always
// works on drafts.
func (c *Client) effectiveVersion() storyblok.ContentVersion {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.editMode {
		return storyblok.VersionDraft
	}

	return c.version
}

// fixedQuery returns the options every delivery request carries: token and
// version.
func (c *Client) fixedQuery(ctx context.Context) (*storyblok.Options, error) {
	token, err := c.keys.GetKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting API key: %w", err)
	}

	return storyblok.NewOptions().
		Set(constants.QueryToken, token).
		Set(constants.QueryVersion, string(c.effectiveVersion())), nil
}

// list fetches path with the caller's options merged under the fixed ones.
func (c *Client) list(ctx context.Context, op, path string, options, extra *storyblok.Options) (*storyblok.Response, error) {
	fixed, err := c.fixedQuery(ctx)
	if err != nil {
		return nil, storyblok.WrapAPIError(op, err)
	}

	query := options.Merge(extra).Merge(fixed)

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, storyblok.WrapAPIError(op, err)
	}

	return toResponse(resp), nil
}
