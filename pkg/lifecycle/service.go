package lifecycle

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrismart/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go-micro.dev/v5/registry"
	"go.uber.org/zap"
)

// Hook 服务钩子
type Hook func(s *Service) error

// ServiceOptions 服务配置选项
type ServiceOptions struct {
	Name            string            // 服务名称
	NodeID          string            // 节点ID
	Address         string            // 监听地址
	Registry        registry.Registry // 服务注册中心
	Service         *registry.Service // 服务注册信息
	Redis           *redis.Client     // 事件频道
	ShutdownTimeout time.Duration
}

// Service 服务包装器
type Service struct {
	opts      *ServiceOptions
	app       *fiber.App
	lifecycle *Manager
	cache     *CacheBroadcaster

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewService 创建服务
func NewService(opts *ServiceOptions) *Service {
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	mgr := NewManager(opts.Redis, opts.Name, opts.NodeID)
	return &Service{
		opts:      opts,
		lifecycle: mgr,
		cache:     NewCacheBroadcaster(mgr),
	}
}

// Name 服务名称
func (s *Service) Name() string {
	return s.opts.Name
}

// SetApp 设置Fiber应用
func (s *Service) SetApp(app *fiber.App) {
	s.app = app
}

// App Fiber应用
func (s *Service) App() *fiber.App {
	return s.app
}

// Lifecycle 生命周期管理器
func (s *Service) Lifecycle() *Manager {
	return s.lifecycle
}

// Cache 缓存失效广播器
func (s *Service) Cache() *CacheBroadcaster {
	return s.cache
}

// OnStart 注册启动钩子
func (s *Service) OnStart(fn Hook) {
	s.onStart = append(s.onStart, fn)
}

// OnReady 注册就绪钩子
func (s *Service) OnReady(fn Hook) {
	s.onReady = append(s.onReady, fn)
}

// OnStop 注册停止钩子
func (s *Service) OnStop(fn Hook) {
	s.onStop = append(s.onStop, fn)
}

// Start 订阅事件、执行启动钩子并注册服务，不启动 HTTP 监听
func (s *Service) Start() error {
	if err := s.lifecycle.Start(); err != nil {
		return fmt.Errorf("start lifecycle manager: %w", err)
	}
	s.emit(EventStarting)

	for _, fn := range s.onStart {
		if err := fn(s); err != nil {
			return fmt.Errorf("start hook: %w", err)
		}
	}

	if s.opts.Registry != nil && s.opts.Service != nil {
		if err := s.opts.Registry.Register(s.opts.Service); err != nil {
			return fmt.Errorf("register service: %w", err)
		}
	}

	s.emit(EventStarted)
	return nil
}

// Ready 执行就绪钩子
func (s *Service) Ready() error {
	for _, fn := range s.onReady {
		if err := fn(s); err != nil {
			return fmt.Errorf("ready hook: %w", err)
		}
	}
	s.emit(EventReady)
	return nil
}

// Run 启动并阻塞直到收到退出信号
func (s *Service) Run() error {
	if s.app == nil {
		return fmt.Errorf("service %s has no http app", s.opts.Name)
	}
	if err := s.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("service listening",
			zap.String("service", s.opts.Name),
			zap.String("address", s.opts.Address),
		)
		if err := s.app.Listen(s.opts.Address); err != nil {
			errCh <- err
		}
	}()

	// 等待监听建立
	time.Sleep(100 * time.Millisecond)

	if err := s.Ready(); err != nil {
		_ = s.Shutdown()
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = s.Shutdown()
		return fmt.Errorf("server error: %w", err)
	}

	return s.Shutdown()
}

// Shutdown 优雅关闭
func (s *Service) Shutdown() error {
	s.emit(EventStopping)

	for _, fn := range s.onStop {
		if err := fn(s); err != nil {
			logger.Error("stop hook failed", zap.Error(err))
		}
	}

	if s.opts.Registry != nil && s.opts.Service != nil {
		if err := s.opts.Registry.Deregister(s.opts.Service); err != nil {
			logger.Error("failed to deregister service", zap.Error(err))
		}
	}

	if s.app != nil {
		if err := s.app.ShutdownWithTimeout(s.opts.ShutdownTimeout); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}

	s.emit(EventStopped)

	if err := s.lifecycle.Stop(); err != nil {
		logger.Error("failed to stop lifecycle manager", zap.Error(err))
	}

	logger.Info("service stopped", zap.String("service", s.opts.Name))
	return nil
}

func (s *Service) emit(event Event) {
	if err := s.lifecycle.Emit(event, nil); err != nil {
		logger.Warn("failed to emit lifecycle event", zap.String("event", string(event)), zap.Error(err))
	}
}
