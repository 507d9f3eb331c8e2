// Package storyblok provides types, interfaces, and helpers for working with
// the Storyblok content delivery and content management APIs.
//
// # Overview
//
// The storyblok package defines the configuration, the response envelope, the
// link tree helper, the error type, and the client interfaces. A concrete
// implementation of the clients is provided by the sbclient package, which
// wires configuration, transport, and retries. Most consumers should import
// sbclient to construct a client and then interact with the interfaces
// exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/storyblok-client/pkg/sbclient"
//	  "github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := sbclient.New(&storyblok.Config{APIKey: "preview-token", UseTLS: true})
//	  if err != nil { log.Fatal(err) }
//
//	  resp, err := cli.GetStoryBySlug(ctx, "home")
//	  if err != nil { log.Fatal(err) }
//	  _ = resp.Body.Map()["story"]
//	}
//
// # Options
//
// Options is an ordered set of query parameters (or JSON fields). List values
// are sent as repeated keys, so SetList("with_tag", "a", "b") is encoded as
// with_tag=a&with_tag=b.
//
// # Responses
//
// Every call returns a Response holding the status code, the headers, and a
// Body. A Body is either structured (the payload was valid JSON) or raw; a
// malformed payload is never an error. Response.Tree turns the flat links
// list returned by the links endpoint into a nested LinkTree.
//
// # Errors
//
// All failures are reported as *APIError. The message always starts with
// "An HTTP Error has occurred!"; Code carries the HTTP status when one was
// received and Kind tells connection failures, timeouts, HTTP status errors,
// and serialization errors apart. Helpers such as IsNotFound, IsRateLimited,
// and IsTimeout cover the common cases.
//
// # Retries
//
// Connection failures, 5xx responses, and 429 responses are retried up to
// MaxRetries times (5 by default) with a linear, non-jittered delay of one
// second per attempt. Many clients failing at once will retry in lockstep.
package storyblok
