package constants

import "errors"

// GenericHTTPError prefixes every APIError message.
const GenericHTTPError = "An HTTP Error has occurred!"

// Configuration errors.
var (
	ErrNoKeyConfigured     = errors.New("no API key configured, use 'storyblok config set' or STORYBLOK_PREVIEW_KEY")
	ErrNoMgmtKeyConfigured = errors.New("no management key configured, use 'storyblok config set' or STORYBLOK_MANAGEMENT_KEY")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidOutputFormat = errors.New("output must be one of json, yaml, table")
)

// Command errors.
var (
	ErrStoriesFailed = errors.New("some stories could not be fetched")
)

// Validation errors.
var (
	ErrInvalidPayload    = errors.New("payload must be a JSON object")
	ErrInvalidQueryParam = errors.New("invalid query parameter, expected key=value")
)
