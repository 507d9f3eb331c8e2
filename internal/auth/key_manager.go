package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
	ErrNoKey             = errors.New("no API key set")
)

// KeyManager hands out the API key attached to each request.
type KeyManager interface {
	GetKey(ctx context.Context) (string, error)
	SetKey(key string)
}

// StaticKeyManager holds a single key in memory.
type StaticKeyManager struct {
	mutex sync.RWMutex
	key   string
}

// NewStaticKeyManager creates a key manager for key.
func NewStaticKeyManager(key string) *StaticKeyManager {
	return &StaticKeyManager{key: key}
}

// GetKey returns the current key.
func (m *StaticKeyManager) GetKey(ctx context.Context) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.key == "" {
		return "", ErrNoKey
	}

	return m.key, nil
}

// SetKey replaces the key. Requests already in flight keep the old one.
func (m *StaticKeyManager) SetKey(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.key = key
}

// ConfigPersister defines the interface for persisting key changes.
type ConfigPersister interface {
	UpdateAPIKey(kind storyblok.ConsumerKind, key string) error
}

// ConfigKeyManager wraps a StaticKeyManager and saves every new key through
// a ConfigPersister.
type ConfigKeyManager struct {
	*StaticKeyManager

	configPersister ConfigPersister
	kind            storyblok.ConsumerKind
}

// NewConfigKeyManager creates a config-persisting key manager.
func NewConfigKeyManager(initialKey string, kind storyblok.ConsumerKind, configPersister ConfigPersister) *ConfigKeyManager {
	return &ConfigKeyManager{
		StaticKeyManager: NewStaticKeyManager(initialKey),
		configPersister:  configPersister,
		kind:             kind,
	}
}

// SetKey replaces the key and persists it. Persist failures are reported on
// stderr; the in-memory key is updated regardless.
func (m *ConfigKeyManager) SetKey(key string) {
	m.StaticKeyManager.SetKey(key)

	err := m.persistKey(key)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist API key: %v\n", err)
	}
}

// persistKey saves the key to config.
func (m *ConfigKeyManager) persistKey(key string) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.UpdateAPIKey(m.kind, key)
	if err != nil {
		return fmt.Errorf("failed to update API key: %w", err)
	}

	return nil
}
