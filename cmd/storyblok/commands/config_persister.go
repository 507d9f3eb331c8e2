package commands

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/storyblok-client/pkg/sbclient"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateAPIKey stores key as the preview or management key, depending on
// kind, and saves the config file.
func (p *ConfigPersister) UpdateAPIKey(kind storyblok.ConsumerKind, key string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()

	var configKey string

	switch kind {
	case storyblok.ContentDelivery:
		config.PreviewKey = key
		configKey = sbclient.KeyPreviewKey
	case storyblok.ContentManagement:
		config.ManagementKey = key
		configKey = sbclient.KeyManagementKey
	default:
		return fmt.Errorf("%w: %s", storyblok.ErrUnknownConsumerKind, kind)
	}

	err := saveConfigStruct(config)
	if err != nil {
		return err
	}

	viper.Set(configKey, key)

	return nil
}
