package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/agrismart/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go-micro.dev/v5/registry"
	"go.uber.org/zap"
)

const (
	servicePrefix = "registry:service:"
	defaultTTL    = 30 * time.Second
)

// RedisRegistry 基于 Redis 的注册中心，键带 TTL 并由心跳续期
type RedisRegistry struct {
	client    *redis.Client
	ttl       time.Duration
	mu        sync.Mutex
	heartbeat map[string]chan struct{}
}

// NewRedisRegistry 创建 Redis 注册中心
func NewRedisRegistry(client *redis.Client) registry.Registry {
	return NewRedisRegistryWithTTL(client, defaultTTL)
}

// NewRedisRegistryWithTTL 指定 TTL
func NewRedisRegistryWithTTL(client *redis.Client, ttl time.Duration) registry.Registry {
	return &RedisRegistry{
		client:    client,
		ttl:       ttl,
		heartbeat: make(map[string]chan struct{}),
	}
}

// Init 初始化
func (r *RedisRegistry) Init(opts ...registry.Option) error {
	return nil
}

// Options 获取选项
func (r *RedisRegistry) Options() registry.Options {
	return registry.Options{}
}

// Register 注册服务并启动心跳
func (r *RedisRegistry) Register(s *registry.Service, opts ...registry.RegisterOption) error {
	if s == nil || len(s.Nodes) == 0 {
		return fmt.Errorf("service or nodes cannot be empty")
	}

	if err := r.write(context.Background(), s); err != nil {
		return err
	}

	logger.Debug("service registered",
		zap.String("service", s.Name),
		zap.Int("nodes", len(s.Nodes)),
	)

	r.startHeartbeat(s)
	return nil
}

func (r *RedisRegistry) write(ctx context.Context, s *registry.Service) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal service: %w", err)
	}
	if err := r.client.Set(ctx, servicePrefix+s.Name, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("write registry key: %w", err)
	}
	return nil
}

// Deregister 注销服务
func (r *RedisRegistry) Deregister(s *registry.Service, opts ...registry.DeregisterOption) error {
	if s == nil {
		return fmt.Errorf("service cannot be nil")
	}
	r.stopHeartbeat(s.Name)
	return r.client.Del(context.Background(), servicePrefix+s.Name).Err()
}

// GetService 获取服务
func (r *RedisRegistry) GetService(name string, opts ...registry.GetOption) ([]*registry.Service, error) {
	data, err := r.client.Get(context.Background(), servicePrefix+name).Bytes()
	if err == redis.Nil {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var svc registry.Service
	if err := json.Unmarshal(data, &svc); err != nil {
		return nil, fmt.Errorf("unmarshal service: %w", err)
	}
	return []*registry.Service{&svc}, nil
}

// ListServices 列出所有服务
func (r *RedisRegistry) ListServices(opts ...registry.ListOption) ([]*registry.Service, error) {
	ctx := context.Background()
	services := make([]*registry.Service, 0)

	iter := r.client.Scan(ctx, 0, servicePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var svc registry.Service
		if err := json.Unmarshal(data, &svc); err != nil {
			logger.Warn("skip malformed registry entry", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		services = append(services, &svc)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return services, nil
}

// Watch 不推送变更，仅阻塞到 Stop
func (r *RedisRegistry) Watch(opts ...registry.WatchOption) (registry.Watcher, error) {
	return newStopWatcher(), nil
}

// String 返回注册中心名称
func (r *RedisRegistry) String() string {
	return "redis"
}

func (r *RedisRegistry) startHeartbeat(s *registry.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stop, ok := r.heartbeat[s.Name]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	r.heartbeat[s.Name] = stop

	go func() {
		ticker := time.NewTicker(r.ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := r.write(context.Background(), s); err != nil {
					logger.Warn("registry heartbeat failed", zap.String("service", s.Name), zap.Error(err))
				}
			}
		}
	}()
}

func (r *RedisRegistry) stopHeartbeat(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stop, ok := r.heartbeat[name]; ok {
		close(stop)
		delete(r.heartbeat, name)
	}
}
