package lifecycle

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go-micro.dev/v5/registry"
)

// Builder 服务构建器
type Builder struct {
	opts     *ServiceOptions
	app      *fiber.App
	onStart  []Hook
	onReady  []Hook
	onStop   []Hook
	watchers map[Event][]func(*EventMessage, *Service)
}

// New 创建服务构建器
func New(name string) *Builder {
	return &Builder{
		opts: &ServiceOptions{
			Name:   name,
			NodeID: name + "-1",
		},
		watchers: make(map[Event][]func(*EventMessage, *Service)),
	}
}

// Node 设置节点ID
func (b *Builder) Node(nodeID string) *Builder {
	b.opts.NodeID = nodeID
	return b
}

// Addr 设置监听地址
func (b *Builder) Addr(addr string) *Builder {
	b.opts.Address = addr
	return b
}

// Registry 设置注册中心
func (b *Builder) Registry(reg registry.Registry) *Builder {
	b.opts.Registry = reg
	return b
}

// RegInfo 设置注册信息
func (b *Builder) RegInfo(svc *registry.Service) *Builder {
	b.opts.Service = svc
	return b
}

// Redis 设置事件频道使用的客户端
func (b *Builder) Redis(client *redis.Client) *Builder {
	b.opts.Redis = client
	return b
}

// App 设置Fiber应用
func (b *Builder) App(app *fiber.App) *Builder {
	b.app = app
	return b
}

// OnStart 添加启动钩子
func (b *Builder) OnStart(fn Hook) *Builder {
	b.onStart = append(b.onStart, fn)
	return b
}

// OnReady 添加就绪钩子
func (b *Builder) OnReady(fn Hook) *Builder {
	b.onReady = append(b.onReady, fn)
	return b
}

// OnStop 添加停止钩子
func (b *Builder) OnStop(fn Hook) *Builder {
	b.onStop = append(b.onStop, fn)
	return b
}

// On 监听其他节点的生命周期事件
func (b *Builder) On(event Event, fn func(*EventMessage, *Service)) *Builder {
	b.watchers[event] = append(b.watchers[event], fn)
	return b
}

// Build 构建服务
func (b *Builder) Build() *Service {
	if b.opts.Service == nil && b.opts.Address != "" {
		b.opts.Service = &registry.Service{
			Name:    b.opts.Name,
			Version: "1.0.0",
			Nodes:   []*registry.Node{{Id: b.opts.NodeID, Address: b.opts.Address}},
		}
	}

	svc := NewService(b.opts)
	svc.SetApp(b.app)
	for _, fn := range b.onStart {
		svc.OnStart(fn)
	}
	for _, fn := range b.onReady {
		svc.OnReady(fn)
	}
	for _, fn := range b.onStop {
		svc.OnStop(fn)
	}
	for event, fns := range b.watchers {
		for _, fn := range fns {
			fn := fn
			svc.Lifecycle().OnEvent(event, func(msg *EventMessage) { fn(msg, svc) })
		}
	}
	return svc
}

// Run 构建并运行
func (b *Builder) Run() error {
	return b.Build().Run()
}
