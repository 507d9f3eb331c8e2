package client

import (
	"context"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// GetStoryBySlug implements storyblok.DeliveryClient.GetStoryBySlug.
func (c *Client) GetStoryBySlug(ctx context.Context, slug string) (*storyblok.Response, error) {
	return c.getStory(ctx, "getting story by slug", slug, nil)
}

// GetStoryByUUID implements storyblok.DeliveryClient.GetStoryByUUID.
func (c *Client) GetStoryByUUID(ctx context.Context, uuid string) (*storyblok.Response, error) {
	extra := storyblok.NewOptions().Set(constants.QueryFindBy, constants.FindByUUID)

	return c.getStory(ctx, "getting story by uuid", uuid, extra)
}

func (c *Client) getStory(ctx context.Context, op, id string, extra *storyblok.Options) (*storyblok.Response, error) {
	query, err := c.fixedQuery(ctx)
	if err != nil {
		return nil, storyblok.WrapAPIError(op, err)
	}

	query = query.Merge(extra)

	if relations := c.ResolveRelations(); relations != "" {
		query.Set(constants.QueryResolveRelations, relations)
	}

	resp, err := c.httpClient.Get(ctx, constants.PathStories+id, query)
	if err != nil {
		return nil, storyblok.WrapAPIError(op, err)
	}

	return toResponse(resp), nil
}

// GetStories implements storyblok.DeliveryClient.GetStories. token and
// version always override the same keys in options.
func (c *Client) GetStories(ctx context.Context, options *storyblok.Options) (*storyblok.Response, error) {
	return c.list(ctx, "listing stories", constants.PathStories, options, nil)
}
