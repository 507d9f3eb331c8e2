package storyblok_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Normalize(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		var config *storyblok.Config

		_, err := config.Normalize()
		require.ErrorIs(t, err, storyblok.ErrConfigRequired)
	})

	t.Run("defaults", func(t *testing.T) {
		config := &storyblok.Config{APIKey: "k"}

		normalized, err := config.Normalize()
		require.NoError(t, err)

		assert.Equal(t, "api.storyblok.com", normalized.Endpoint)
		assert.Equal(t, "v1", normalized.APIVersion)
		assert.Equal(t, 5, normalized.MaxRetries)
		assert.Equal(t, time.Second, normalized.RetryStep)
		assert.Equal(t, storyblok.VersionDraft, normalized.Version)
		assert.Empty(t, config.Endpoint, "input is not modified")
	})

	t.Run("disable retries", func(t *testing.T) {
		normalized, err := (&storyblok.Config{APIKey: "k", MaxRetries: 3, DisableRetries: true}).Normalize()
		require.NoError(t, err)
		assert.Equal(t, 0, normalized.MaxRetries)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		normalized, err := (&storyblok.Config{
			APIKey:     "k",
			MaxRetries: 2,
			Version:    storyblok.VersionPublished,
			Timeout:    3 * time.Second,
		}).Normalize()
		require.NoError(t, err)
		assert.Equal(t, 2, normalized.MaxRetries)
		assert.Equal(t, storyblok.VersionPublished, normalized.Version)
		assert.Equal(t, 3*time.Second, normalized.Timeout)
	})

	errorCases := []struct {
		name   string
		config storyblok.Config
		want   error
	}{
		{"missing key", storyblok.Config{}, storyblok.ErrAPIKeyRequired},
		{"negative retries", storyblok.Config{APIKey: "k", MaxRetries: -1}, storyblok.ErrInvalidMaxRetries},
		{"negative timeout", storyblok.Config{APIKey: "k", Timeout: -time.Second}, storyblok.ErrInvalidTimeout},
		{"unknown version", storyblok.Config{APIKey: "k", Version: "latest"}, storyblok.ErrUnknownVersion},
		{"unknown kind", storyblok.Config{APIKey: "k", Kind: 7}, storyblok.ErrUnknownConsumerKind},
	}

	for _, tc := range errorCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.config.Normalize()
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := storyblok.DefaultConfig()

	assert.Equal(t, "api.storyblok.com", config.Endpoint)
	assert.Equal(t, storyblok.VersionDraft, config.Version)
	assert.Equal(t, 5, config.MaxRetries)
}

func TestConsumerKind_String(t *testing.T) {
	assert.Equal(t, "delivery", storyblok.ContentDelivery.String())
	assert.Equal(t, "management", storyblok.ContentManagement.String())
	assert.Equal(t, "unknown(9)", storyblok.ConsumerKind(9).String())
}

func TestParseContentVersion(t *testing.T) {
	v, err := storyblok.ParseContentVersion("")
	require.NoError(t, err)
	assert.Equal(t, storyblok.VersionDraft, v)

	v, err = storyblok.ParseContentVersion("published")
	require.NoError(t, err)
	assert.Equal(t, storyblok.VersionPublished, v)

	_, err = storyblok.ParseContentVersion("latest")
	require.ErrorIs(t, err, storyblok.ErrUnknownVersion)
}

func TestEditModeFromQuery(t *testing.T) {
	assert.False(t, storyblok.EditModeFromQuery(nil))
	assert.False(t, storyblok.EditModeFromQuery(url.Values{"foo": {"bar"}}))
	assert.True(t, storyblok.EditModeFromQuery(url.Values{"_storyblok": {"123"}}))
	assert.True(t, storyblok.EditModeFromQuery(url.Values{"_storyblok": {""}}))

	query, err := url.ParseQuery("_storyblok=42&_storyblok_tk[space_id]=1")
	require.NoError(t, err)
	assert.True(t, storyblok.EditModeFromQuery(query))
}
