package storyblok

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrAPIKeyRequired      = errors.New("API key is required")
	ErrEndpointRequired    = errors.New("API endpoint is required")
	ErrInvalidMaxRetries   = errors.New("max retries must not be negative")
	ErrInvalidTimeout      = errors.New("timeout must not be negative")
	ErrUnknownConsumerKind = errors.New("unknown consumer kind")
	ErrUnknownVersion      = errors.New("unknown content version")
)

// ConsumerKind selects which API surface a client talks to.
type ConsumerKind int

const (
	// ContentDelivery reads content from the CDN API. The API key travels as
	// the token query parameter.
	ContentDelivery ConsumerKind = iota

	// ContentManagement reads and writes through the management API. The API
	// key travels in the Authorization header.
	ContentManagement
)

// String implements fmt.Stringer.
func (k ConsumerKind) String() string {
	switch k {
	case ContentDelivery:
		return "delivery"
	case ContentManagement:
		return "management"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// ContentVersion is the story version requested from the delivery API.
type ContentVersion string

const (
	VersionDraft     ContentVersion = "draft"
	VersionPublished ContentVersion = "published"
)

// ParseContentVersion validates a version name. The empty string selects draft.
func ParseContentVersion(s string) (ContentVersion, error) {
	switch ContentVersion(s) {
	case "", VersionDraft:
		return VersionDraft, nil
	case VersionPublished:
		return VersionPublished, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownVersion, s)
	}
}

// Settings exposes the mutable part of a client's configuration.
//
// Setters are safe to call while requests are in flight; a request uses the
// values that were current when it started.
type Settings interface {
	APIKey() string
	SetAPIKey(key string)
	Timeout() time.Duration
	SetTimeout(timeout time.Duration) error
	MaxRetries() int
	SetMaxRetries(maxRetries int) error
	EditMode() bool
	SetEditMode(enabled bool)
}

// DeliveryClient reads stories, tags, datasource entries, and links from the
// content delivery API.
type DeliveryClient interface {
	Settings

	GetStoryBySlug(ctx context.Context, slug string) (*Response, error)
	GetStoryByUUID(ctx context.Context, uuid string) (*Response, error)
	GetStories(ctx context.Context, options *Options) (*Response, error)
	GetTags(ctx context.Context, options *Options) (*Response, error)
	GetDatasourceEntries(ctx context.Context, slug string, options *Options) (*Response, error)
	GetLinks(ctx context.Context, options *Options) (*Response, error)

	Version() ContentVersion
	SetVersion(version ContentVersion)
	ResolveRelations() string
	SetResolveRelations(relations string)
}

// ManagementClient issues authenticated requests against the content
// management API.
type ManagementClient interface {
	Settings

	Get(ctx context.Context, path string, options *Options) (*Response, error)
	Post(ctx context.Context, path string, payload any) (*Response, error)
	Put(ctx context.Context, path string, payload any) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ManagementEvent describes a successful write against the management API.
type ManagementEvent struct {
	Method     string    `json:"method"      yaml:"method"`
	Path       string    `json:"path"        yaml:"path"`
	StatusCode int       `json:"status_code" yaml:"status_code"`
	At         time.Time `json:"at"          yaml:"at"`
}

// EventPublisher receives management write events. Publish errors are logged
// by the client and never returned to the caller of the write.
type EventPublisher interface {
	Publish(ctx context.Context, event *ManagementEvent) error
}

// Config represents client configuration for building a Storyblok client.
//
// # Retries
//
// Connection failures, responses with status >= 500, and 429 responses are
// retried. MaxRetries of 0 selects the default of 5; set DisableRetries to
// send every request exactly once. The delay before retry n is n*RetryStep
// (1s by default), without jitter.
//
// # Versions and edit mode
//
// Delivery clients request Version (draft by default). When EditMode is set,
// draft is always requested. Use EditModeFromQuery to derive EditMode from
// the query of an incoming preview request.
type Config struct {
	// APIKey: preview/public token for delivery clients, management token for
	// management clients.
	APIKey string
	// Endpoint: API host, "api.storyblok.com" when empty.
	Endpoint string
	// APIVersion: version path segment, "v1" when empty.
	APIVersion string
	// UseTLS selects https.
	UseTLS bool
	// Kind selects the delivery or management API. Constructors in sbclient
	// set it for you.
	Kind ConsumerKind

	// Timeout bounds each attempt. Zero means no timeout.
	Timeout time.Duration
	// MaxRetries: retries after the first attempt. Zero selects the default.
	MaxRetries int
	// DisableRetries turns retries off regardless of MaxRetries.
	DisableRetries bool
	// RetryStep is the linear backoff step, 1s when zero.
	RetryStep time.Duration

	// Version is the content version requested by delivery clients.
	Version ContentVersion
	// ResolveRelations is sent as resolve_relations on story lookups when set.
	ResolveRelations string
	// EditMode marks the client as serving the visual editor.
	EditMode bool

	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the transport.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Headers are added to every request.
	Headers map[string]string
	// Interceptors run before each request and after its final attempt.
	Interceptors *InterceptorChain
	// Events receives management write events. Ignored by delivery clients.
	Events EventPublisher
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:   constants.DefaultEndpoint,
		APIVersion: constants.DefaultAPIVersion,
		MaxRetries: constants.DefaultRetryMax,
		RetryStep:  constants.DefaultRetryStep,
		Version:    VersionDraft,
	}
}

// Normalize returns a copy of the configuration with defaults applied, or an
// error when the configuration cannot produce a working client.
func (c *Config) Normalize() (*Config, error) {
	if c == nil {
		return nil, ErrConfigRequired
	}

	out := *c

	if out.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	if out.Kind != ContentDelivery && out.Kind != ContentManagement {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConsumerKind, out.Kind)
	}

	if out.Endpoint == "" {
		out.Endpoint = constants.DefaultEndpoint
	}

	if out.APIVersion == "" {
		out.APIVersion = constants.DefaultAPIVersion
	}

	if out.Timeout < 0 {
		return nil, ErrInvalidTimeout
	}

	switch {
	case out.MaxRetries < 0:
		return nil, ErrInvalidMaxRetries
	case out.DisableRetries:
		out.MaxRetries = 0
	case out.MaxRetries == 0:
		out.MaxRetries = constants.DefaultRetryMax
	}

	if out.RetryStep <= 0 {
		out.RetryStep = constants.DefaultRetryStep
	}

	version, err := ParseContentVersion(string(out.Version))
	if err != nil {
		return nil, err
	}

	out.Version = version

	return &out, nil
}

// EditModeFromQuery reports whether an incoming request was made by the
// Storyblok visual editor, which adds a _storyblok query parameter.
func EditModeFromQuery(query url.Values) bool {
	if query == nil {
		return false
	}

	_, ok := query[constants.QueryEditMode]

	return ok
}
