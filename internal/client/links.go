package client

import (
	"context"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// GetLinks implements storyblok.DeliveryClient.GetLinks. Call Tree on the
// response to nest the links by parent.
func (c *Client) GetLinks(ctx context.Context, options *storyblok.Options) (*storyblok.Response, error) {
	return c.list(ctx, "listing links", constants.PathLinks, options, nil)
}
