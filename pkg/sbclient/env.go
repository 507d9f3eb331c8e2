package sbclient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// Static errors for err113 compliance.
var (
	ErrInvalidTimeoutValue = errors.New("invalid timeout value")
)

// Config keys, also the environment variable names without the STORYBLOK_
// prefix.
const (
	KeyPreviewKey       = "preview_key"
	KeyManagementKey    = "management_key"
	KeyEndpoint         = "endpoint"
	KeyAPIVersion       = "api_version"
	KeySSL              = "ssl"
	KeyTimeout          = "timeout"
	KeyMaxRetries       = "max_retries"
	KeyVersion          = "version"
	KeyResolveRelations = "resolve_relations"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "STORYBLOK"

// NewEnvViper returns a viper instance reading STORYBLOK_* variables, with
// the library defaults registered.
func NewEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	SetDefaults(v)

	return v
}

// SetDefaults registers the library defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyEndpoint, constants.DefaultEndpoint)
	v.SetDefault(KeyAPIVersion, constants.DefaultAPIVersion)
	v.SetDefault(KeySSL, false)
	v.SetDefault(KeyMaxRetries, constants.DefaultRetryMax)
	v.SetDefault(KeyVersion, string(storyblok.VersionDraft))
}

// ConfigFromEnv builds a config for kind from the STORYBLOK_* environment.
func ConfigFromEnv(kind storyblok.ConsumerKind) (*storyblok.Config, error) {
	return ConfigFromViper(NewEnvViper(), kind)
}

// ConfigFromViper builds a config for kind from v. The API key comes from
// preview_key for delivery and management_key for management.
func ConfigFromViper(v *viper.Viper, kind storyblok.ConsumerKind) (*storyblok.Config, error) {
	config := &storyblok.Config{
		Kind:             kind,
		APIVersion:       v.GetString(KeyAPIVersion),
		UseTLS:           v.GetBool(KeySSL),
		MaxRetries:       v.GetInt(KeyMaxRetries),
		ResolveRelations: v.GetString(KeyResolveRelations),
	}

	switch kind {
	case storyblok.ContentDelivery:
		config.APIKey = v.GetString(KeyPreviewKey)
	case storyblok.ContentManagement:
		config.APIKey = v.GetString(KeyManagementKey)
	default:
		return nil, fmt.Errorf("%w: %s", storyblok.ErrUnknownConsumerKind, kind)
	}

	host, useTLS, hasScheme := NormalizeEndpoint(v.GetString(KeyEndpoint))
	config.Endpoint = host

	if hasScheme {
		config.UseTLS = useTLS
	}

	timeout, err := ParseTimeout(v.GetString(KeyTimeout))
	if err != nil {
		return nil, err
	}

	config.Timeout = timeout

	version, err := storyblok.ParseContentVersion(v.GetString(KeyVersion))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", KeyVersion, err)
	}

	config.Version = version

	// Normalize reads a zero MaxRetries as "use the default".
	if v.IsSet(KeyMaxRetries) && config.MaxRetries == 0 {
		config.DisableRetries = true
	}

	return config, nil
}

// ParseTimeout reads a timeout given in seconds ("2.5") or as a Go duration
// ("2500ms"). The empty string means no timeout.
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if seconds, err := strconv.ParseFloat(s, 64); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeoutValue, s)
		}

		return time.Duration(seconds * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeoutValue, s)
	}

	return d, nil
}
