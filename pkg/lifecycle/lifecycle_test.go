package lifecycle

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agrismart/pkg/registry"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestManager_EmitAndReceive(t *testing.T) {
	client := newRedis(t)
	watcher := NewManager(client, "other", "other-1")
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	var mu sync.Mutex
	var got []*EventMessage
	watcher.OnEvent(EventReady, func(msg *EventMessage) {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	})

	emitter := NewManager(client, "platform", "platform-1")
	require.NoError(t, emitter.Emit(EventReady, map[string]string{"addr": ":3000"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "platform", got[0].Service)
	var meta map[string]string
	require.NoError(t, got[0].Decode(&meta))
	assert.Equal(t, ":3000", meta["addr"])
}

func TestCacheBroadcaster_Invalidate(t *testing.T) {
	client := newRedis(t)
	mgr := NewManager(client, "platform", "n1")
	b := NewCacheBroadcaster(mgr)
	require.NoError(t, mgr.Start())
	defer mgr.Stop()

	var keys sync.Map
	b.Subscribe(ModuleEntitlement, func(key string) { keys.Store(key, true) })

	require.NoError(t, b.Invalidate(ModuleEntitlement, "INV_MGMT"))
	require.NoError(t, b.Invalidate("unrelated", "X"))

	assert.Eventually(t, func() bool {
		_, ok := keys.Load("INV_MGMT")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	_, ok := keys.Load("X")
	assert.False(t, ok)
}

func TestService_StartAndShutdown(t *testing.T) {
	client := newRedis(t)
	reg := registry.NewMemoryRegistry()

	var started, stopped atomic.Bool
	svc := New("platform").
		Node("platform-test").
		Addr("127.0.0.1:0").
		Redis(client).
		Registry(reg).
		OnStart(func(s *Service) error {
			started.Store(true)
			return nil
		}).
		OnStop(func(s *Service) error {
			stopped.Store(true)
			return nil
		}).
		Build()

	require.NoError(t, svc.Start())
	assert.True(t, started.Load())

	services, err := reg.GetService("platform")
	require.NoError(t, err)
	assert.Equal(t, "platform-test", services[0].Nodes[0].Id)

	require.NoError(t, svc.Shutdown())
	assert.True(t, stopped.Load())
	_, err = reg.GetService("platform")
	assert.Error(t, err)
}
