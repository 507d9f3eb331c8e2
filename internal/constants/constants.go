package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// API endpoint defaults.
const (
	// DefaultEndpoint is the Storyblok API host.
	DefaultEndpoint = "api.storyblok.com"

	// DefaultAPIVersion is the API version path segment.
	DefaultAPIVersion = "v1"

	// DeliveryPathSegment is appended to the base URL of content delivery clients.
	DeliveryPathSegment = "cdn"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "storyblok-go-client"
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// DefaultRetryStep is the delay added per retry attempt (1s, 2s, 3s, ...).
	DefaultRetryStep = 1 * time.Second
)

// HTTP status codes used by the retry policy.
const (
	// HTTPStatusTooManyRequests is returned when the API rate limits a caller.
	HTTPStatusTooManyRequests = 429

	// HTTPStatusInternalServerError is the lowest server error status.
	HTTPStatusInternalServerError = 500

	// HTTPStatusBadRequest is the lowest client error status.
	HTTPStatusBadRequest = 400
)

// Query parameter names.
const (
	QueryToken            = "token"
	QueryVersion          = "version"
	QueryFindBy           = "find_by"
	QueryResolveRelations = "resolve_relations"
	QueryDatasource       = "datasource"

	// QueryEditMode is set by the Storyblok visual editor on preview requests.
	QueryEditMode = "_storyblok"

	// FindByUUID selects UUID lookups on the stories endpoint.
	FindByUUID = "uuid"
)

// API paths, relative to the base URL.
const (
	PathStories           = "stories/"
	PathTags              = "tags/"
	PathDatasourceEntries = "datasource_entries/"
	PathLinks             = "links/"
)

// Link tree limits.
const (
	// LinkTreeRootID is the parent id of top level links.
	LinkTreeRootID = 0

	// MaxLinkTreeDepth bounds how deep a link tree is materialised.
	MaxLinkTreeDepth = 256
)

// Batch defaults.
const (
	// DefaultBatchConcurrency bounds how many batch operations run at once.
	DefaultBatchConcurrency = 5

	// DefaultBatchTimeout bounds a single batch operation, retries included.
	DefaultBatchTimeout = 30 * time.Second
)

// Events.
const (
	// DefaultEventSubject is the NATS subject management write events go to.
	DefaultEventSubject = "storyblok.management"

	// DefaultPublishTimeout bounds a single event publish.
	DefaultPublishTimeout = 5 * time.Second
)

// Display constants.
const (
	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// KeyPreviewLength is how many leading characters of a key are shown.
	KeyPreviewLength = 4
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
