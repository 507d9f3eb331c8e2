// Package sbclient is the entry point for constructing Storyblok clients.
//
// It turns a storyblok.Config, or the STORYBLOK_* environment, into a
// storyblok.DeliveryClient or storyblok.ManagementClient.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/storyblok-client/pkg/sbclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Content delivery with a preview token.
//	  cdn, err := sbclient.NewWithKey("preview-token")
//	  if err != nil { log.Fatal(err) }
//
//	  story, err := cdn.GetStoryBySlug(ctx, "home")
//	  if err != nil { log.Fatal(err) }
//	  log.Println(story.Body.Map()["story"])
//
//	  // Content management with a personal access token.
//	  mapi, err := sbclient.NewManagementWithKey("management-token")
//	  if err != nil { log.Fatal(err) }
//	  _, err = mapi.Delete(ctx, "spaces/606/stories/42")
//	}
//
// Environment
//
// ConfigFromEnv reads:
//
//	STORYBLOK_PREVIEW_KEY       delivery API key
//	STORYBLOK_MANAGEMENT_KEY    management API key
//	STORYBLOK_ENDPOINT          API host, with or without scheme
//	STORYBLOK_API_VERSION       version path segment (v1)
//	STORYBLOK_SSL               use https (true/false)
//	STORYBLOK_TIMEOUT           per-attempt timeout, seconds or a Go duration
//	STORYBLOK_MAX_RETRIES       retry limit (5)
//	STORYBLOK_VERSION           draft or published
//	STORYBLOK_RESOLVE_RELATIONS resolve_relations for story lookups
//
// Endpoints
//
// Endpoint may carry a scheme. "https://api-us.storyblok.com" is the same as
// Endpoint "api-us.storyblok.com" with UseTLS set.
package sbclient
