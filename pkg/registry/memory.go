package registry

import (
	"sync"

	"go-micro.dev/v5/registry"
)

// MemoryRegistry 进程内注册中心，用于单节点运行和测试
type MemoryRegistry struct {
	services map[string]map[string]*registry.Node // name -> nodeID -> node
	meta     map[string]*registry.Service
	mu       sync.RWMutex
}

// NewMemoryRegistry 创建内存注册中心
func NewMemoryRegistry() registry.Registry {
	return &MemoryRegistry{
		services: make(map[string]map[string]*registry.Node),
		meta:     make(map[string]*registry.Service),
	}
}

// Init 初始化
func (r *MemoryRegistry) Init(opts ...registry.Option) error {
	return nil
}

// Options 获取选项
func (r *MemoryRegistry) Options() registry.Options {
	return registry.Options{}
}

// Register 注册服务节点
func (r *MemoryRegistry) Register(s *registry.Service, opts ...registry.RegisterOption) error {
	if s == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes, ok := r.services[s.Name]
	if !ok {
		nodes = make(map[string]*registry.Node)
		r.services[s.Name] = nodes
	}
	for _, n := range s.Nodes {
		nodes[n.Id] = n
	}
	r.meta[s.Name] = &registry.Service{Name: s.Name, Version: s.Version, Metadata: s.Metadata}
	return nil
}

// Deregister 注销服务节点，节点全部移除后删除服务
func (r *MemoryRegistry) Deregister(s *registry.Service, opts ...registry.DeregisterOption) error {
	if s == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes := r.services[s.Name]
	for _, n := range s.Nodes {
		delete(nodes, n.Id)
	}
	if len(nodes) == 0 {
		delete(r.services, s.Name)
		delete(r.meta, s.Name)
	}
	return nil
}

// GetService 获取服务
func (r *MemoryRegistry) GetService(name string, opts ...registry.GetOption) ([]*registry.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.snapshot(name)
	if !ok {
		return nil, registry.ErrNotFound
	}
	return []*registry.Service{svc}, nil
}

// ListServices 列出所有服务
func (r *MemoryRegistry) ListServices(opts ...registry.ListOption) ([]*registry.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]*registry.Service, 0, len(r.services))
	for name := range r.services {
		if svc, ok := r.snapshot(name); ok {
			services = append(services, svc)
		}
	}
	return services, nil
}

func (r *MemoryRegistry) snapshot(name string) (*registry.Service, bool) {
	nodes, ok := r.services[name]
	if !ok {
		return nil, false
	}
	base := r.meta[name]
	svc := &registry.Service{Name: name, Version: base.Version, Metadata: base.Metadata}
	for _, n := range nodes {
		svc.Nodes = append(svc.Nodes, n)
	}
	return svc, true
}

// Watch 不推送变更，仅阻塞到 Stop
func (r *MemoryRegistry) Watch(opts ...registry.WatchOption) (registry.Watcher, error) {
	return newStopWatcher(), nil
}

// String 返回注册中心名称
func (r *MemoryRegistry) String() string {
	return "memory"
}

// stopWatcher 只支持停止的监听器
type stopWatcher struct {
	exit chan struct{}
	once sync.Once
}

func newStopWatcher() *stopWatcher {
	return &stopWatcher{exit: make(chan struct{})}
}

func (w *stopWatcher) Next() (*registry.Result, error) {
	<-w.exit
	return nil, registry.ErrWatcherStopped
}

func (w *stopWatcher) Stop() {
	w.once.Do(func() { close(w.exit) })
}
