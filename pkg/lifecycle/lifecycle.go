package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/agrismart/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event 生命周期事件类型
type Event string

const (
	EventStarting   Event = "starting"   // 服务启动中
	EventStarted    Event = "started"    // 服务已启动
	EventReady      Event = "ready"      // 服务就绪
	EventStopping   Event = "stopping"   // 服务停止中
	EventStopped    Event = "stopped"    // 服务已停止
	EventInvalidate Event = "invalidate" // 本地缓存失效
)

// EventMessage 生命周期消息
type EventMessage struct {
	Service   string          `json:"service"`
	NodeID    string          `json:"node_id"`
	Event     Event           `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Decode 解析附加元数据
func (m *EventMessage) Decode(dest any) error {
	if len(m.Metadata) == 0 {
		return fmt.Errorf("event %s has no metadata", m.Event)
	}
	return json.Unmarshal(m.Metadata, dest)
}

// Handler 生命周期事件处理器
type Handler func(msg *EventMessage)

const lifecycleChannel = "agrismart:lifecycle"

// Manager 基于 Redis Pub/Sub 的生命周期管理器
type Manager struct {
	service     string
	nodeID      string
	redis       *redis.Client
	handlers    map[Event][]Handler
	allHandlers []Handler
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	pubsub      *redis.PubSub
}

// NewManager 创建生命周期管理器
func NewManager(client *redis.Client, service, nodeID string) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		service:  service,
		nodeID:   nodeID,
		redis:    client,
		handlers: make(map[Event][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// NodeID 当前节点
func (m *Manager) NodeID() string {
	return m.nodeID
}

// OnEvent 监听特定事件
func (m *Manager) OnEvent(event Event, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], handler)
}

// OnAnyEvent 监听所有事件
func (m *Manager) OnAnyEvent(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allHandlers = append(m.allHandlers, handler)
}

// Emit 发布事件
func (m *Manager) Emit(event Event, metadata any) error {
	msg := &EventMessage{
		Service:   m.service,
		NodeID:    m.nodeID,
		Event:     event,
		Timestamp: time.Now(),
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal event metadata: %w", err)
		}
		msg.Metadata = raw
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal lifecycle message: %w", err)
	}
	return m.redis.Publish(m.ctx, lifecycleChannel, data).Err()
}

// Start 订阅事件频道
func (m *Manager) Start() error {
	m.pubsub = m.redis.Subscribe(m.ctx, lifecycleChannel)

	// 等待订阅确认
	if _, err := m.pubsub.Receive(m.ctx); err != nil {
		return fmt.Errorf("subscribe lifecycle channel: %w", err)
	}

	go m.listen(m.pubsub.Channel())

	logger.Info("lifecycle manager started",
		zap.String("service", m.service),
		zap.String("node_id", m.nodeID),
	)
	return nil
}

func (m *Manager) listen(ch <-chan *redis.Message) {
	for {
		select {
		case <-m.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			m.dispatch(msg.Payload)
		}
	}
}

func (m *Manager) dispatch(payload string) {
	var msg EventMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		logger.Error("failed to decode lifecycle message", zap.Error(err))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, handler := range m.handlers[msg.Event] {
		go handler(&msg)
	}
	for _, handler := range m.allHandlers {
		go handler(&msg)
	}
}

// Stop 停止监听
func (m *Manager) Stop() error {
	m.cancel()
	if m.pubsub != nil {
		return m.pubsub.Close()
	}
	return nil
}
