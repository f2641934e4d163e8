package lifecycle

import (
	"sync"

	"github.com/agrismart/pkg/logger"
	"go.uber.org/zap"
)

// 本地缓存模块
const (
	ModuleEntitlement = "entitlement"
)

// Invalidation 缓存失效通知，Key 为空表示清空整个模块
type Invalidation struct {
	Module string `json:"module"`
	Key    string `json:"key,omitempty"`
}

// CacheBroadcaster 通过生命周期频道在各节点间广播本地缓存失效
type CacheBroadcaster struct {
	mgr      *Manager
	mu       sync.RWMutex
	handlers map[string][]func(key string)
}

// NewCacheBroadcaster 创建广播器并挂接到管理器
func NewCacheBroadcaster(mgr *Manager) *CacheBroadcaster {
	b := &CacheBroadcaster{
		mgr:      mgr,
		handlers: make(map[string][]func(key string)),
	}
	mgr.OnEvent(EventInvalidate, b.receive)
	return b
}

// Subscribe 注册模块的失效处理
func (b *CacheBroadcaster) Subscribe(module string, fn func(key string)) {
	b.mu.Lock()
	b.handlers[module] = append(b.handlers[module], fn)
	b.mu.Unlock()
}

// Invalidate 广播失效，包括本节点
func (b *CacheBroadcaster) Invalidate(module, key string) error {
	return b.mgr.Emit(EventInvalidate, Invalidation{Module: module, Key: key})
}

func (b *CacheBroadcaster) receive(msg *EventMessage) {
	var inv Invalidation
	if err := msg.Decode(&inv); err != nil {
		logger.Warn("invalid cache invalidation message", zap.Error(err))
		return
	}

	b.mu.RLock()
	handlers := b.handlers[inv.Module]
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(inv.Key)
	}
}
