package client

import (
	"context"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// GetDatasourceEntries implements storyblok.DeliveryClient.GetDatasourceEntries.
// slug overrides a datasource key in options.
func (c *Client) GetDatasourceEntries(ctx context.Context, slug string, options *storyblok.Options) (*storyblok.Response, error) {
	extra := storyblok.NewOptions().Set(constants.QueryDatasource, slug)

	return c.list(ctx, "listing datasource entries", constants.PathDatasourceEntries, options, extra)
}
