package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fivetwenty-io/storyblok-client/internal/auth"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPersist = errors.New("disk full")

type recordingPersister struct {
	mu   sync.Mutex
	kind storyblok.ConsumerKind
	keys []string
	err  error
}

func (p *recordingPersister) UpdateAPIKey(kind storyblok.ConsumerKind, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.kind = kind
	p.keys = append(p.keys, key)

	return p.err
}

func TestStaticKeyManager_GetKey(t *testing.T) {
	t.Parallel()

	manager := auth.NewStaticKeyManager("preview-key")

	key, err := manager.GetKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "preview-key", key)

	manager.SetKey("rotated-key")

	key, err = manager.GetKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated-key", key)
}

func TestStaticKeyManager_EmptyKey(t *testing.T) {
	t.Parallel()

	manager := auth.NewStaticKeyManager("")

	_, err := manager.GetKey(context.Background())
	require.ErrorIs(t, err, auth.ErrNoKey)
}

func TestStaticKeyManager_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	manager := auth.NewStaticKeyManager("initial")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(2)

		go func() {
			defer wg.Done()

			manager.SetKey("key-" + string(rune('a'+i)))
		}()

		go func() {
			defer wg.Done()

			_, _ = manager.GetKey(context.Background())
		}()
	}

	wg.Wait()

	key, err := manager.GetKey(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, key)
}

func TestConfigKeyManager_PersistsKey(t *testing.T) {
	t.Parallel()

	persister := &recordingPersister{}
	manager := auth.NewConfigKeyManager("old", storyblok.ContentManagement, persister)

	manager.SetKey("new")

	key, err := manager.GetKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", key)
	assert.Equal(t, []string{"new"}, persister.keys)
	assert.Equal(t, storyblok.ContentManagement, persister.kind)
}

func TestConfigKeyManager_PersistFailureKeepsKey(t *testing.T) {
	t.Parallel()

	persister := &recordingPersister{err: errPersist}
	manager := auth.NewConfigKeyManager("old", storyblok.ContentDelivery, persister)

	manager.SetKey("new")

	key, err := manager.GetKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", key)
}

func TestConfigKeyManager_NoPersister(t *testing.T) {
	t.Parallel()

	manager := auth.NewConfigKeyManager("old", storyblok.ContentDelivery, nil)

	manager.SetKey("new")

	key, err := manager.GetKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", key)
}
