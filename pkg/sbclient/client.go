package sbclient

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/storyblok-client/internal/client"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// New creates a content delivery client. config.Kind is ignored.
func New(config *storyblok.Config) (storyblok.DeliveryClient, error) {
	if config == nil {
		return nil, storyblok.ErrConfigRequired
	}

	prepared := prepare(config, storyblok.ContentDelivery)

	c, err := client.New(prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery client: %w", err)
	}

	return c, nil
}

// NewManagement creates a content management client. config.Kind is ignored.
func NewManagement(config *storyblok.Config) (storyblok.ManagementClient, error) {
	if config == nil {
		return nil, storyblok.ErrConfigRequired
	}

	prepared := prepare(config, storyblok.ContentManagement)

	c, err := client.NewManagement(prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to create management client: %w", err)
	}

	return c, nil
}

// NewWithKey creates a delivery client for the default endpoint over https.
func NewWithKey(apiKey string) (storyblok.DeliveryClient, error) {
	return New(&storyblok.Config{
		APIKey: apiKey,
		UseTLS: true,
	})
}

// NewManagementWithKey creates a management client for the default endpoint
// over https.
func NewManagementWithKey(apiKey string) (storyblok.ManagementClient, error) {
	return NewManagement(&storyblok.Config{
		APIKey: apiKey,
		UseTLS: true,
	})
}

// prepare copies config, sets kind, and moves a scheme in the endpoint into
// UseTLS.
func prepare(config *storyblok.Config, kind storyblok.ConsumerKind) *storyblok.Config {
	out := *config
	out.Kind = kind

	if out.Endpoint != "" {
		host, useTLS, hasScheme := NormalizeEndpoint(out.Endpoint)
		out.Endpoint = host

		if hasScheme {
			out.UseTLS = useTLS
		}
	}

	return &out
}

// NormalizeEndpoint splits an endpoint such as "https://api.storyblok.com/"
// into its host and whether it asked for TLS. hasScheme is false when no
// http:// or https:// prefix was present.
func NormalizeEndpoint(endpoint string) (host string, useTLS, hasScheme bool) {
	host = strings.TrimSpace(endpoint)

	switch {
	case strings.HasPrefix(strings.ToLower(host), "https://"):
		host = host[len("https://"):]
		useTLS, hasScheme = true, true
	case strings.HasPrefix(strings.ToLower(host), "http://"):
		host = host[len("http://"):]
		hasScheme = true
	}

	return strings.TrimRight(host, "/"), useTLS, hasScheme
}
