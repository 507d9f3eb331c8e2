package client

import (
	"context"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// GetTags implements storyblok.DeliveryClient.GetTags.
func (c *Client) GetTags(ctx context.Context, options *storyblok.Options) (*storyblok.Response, error) {
	return c.list(ctx, "listing tags", constants.PathTags, options, nil)
}
