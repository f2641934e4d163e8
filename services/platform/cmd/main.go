package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/agrismart/pkg/auth"
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/config"
	"github.com/agrismart/pkg/database"
	"github.com/agrismart/pkg/lifecycle"
	"github.com/agrismart/pkg/logger"
	"github.com/agrismart/pkg/metrics"
	"github.com/agrismart/pkg/middleware"
	pkgRegistry "github.com/agrismart/pkg/registry"
	"github.com/agrismart/pkg/router"
	authctl "github.com/agrismart/services/platform/internal/auth"
	"github.com/agrismart/services/platform/internal/analytics"
	"github.com/agrismart/services/platform/internal/branch"
	"github.com/agrismart/services/platform/internal/category"
	"github.com/agrismart/services/platform/internal/delivery"
	"github.com/agrismart/services/platform/internal/entitlement"
	"github.com/agrismart/services/platform/internal/inventory"
	"github.com/agrismart/services/platform/internal/model"
	"github.com/agrismart/services/platform/internal/order"
	"github.com/agrismart/services/platform/internal/policy"
	"github.com/agrismart/services/platform/internal/role"
	"github.com/agrismart/services/platform/internal/seed"
	"github.com/agrismart/services/platform/internal/shop"
	"github.com/agrismart/services/platform/internal/shopentitlement"
	"github.com/agrismart/services/platform/internal/user"
	"go.uber.org/zap"
)

const (
	serviceName = "agrismart-platform"
	basePath    = "api"
)

func main() {
	// 加载配置
	if err := config.Init(os.Getenv("CONFIG_PATH")); err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 初始化数据库与 Redis
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("failed to init database", zap.Error(err))
	}
	defer database.Close()
	if err := database.InitRedis(&cfg.Redis); err != nil {
		logger.Fatal("failed to init redis", zap.Error(err))
	}
	defer database.CloseRedis()

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	rdb := database.GetRedis()
	reg := pkgRegistry.NewRedisRegistry(rdb)
	svcInfo := pkgRegistry.NewServiceBuilder(serviceName, cfg.App.Version).
		WithAddress(addr).
		WithBasePath(basePath).
		WithMetadata(pkgRegistry.MetaEnv, cfg.App.Env).
		Build()

	app := fiber.New(fiber.Config{
		AppName:      serviceName,
		ErrorHandler: middleware.ErrorHandler,
		ReadTimeout:  time.Duration(cfg.Server.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.HTTP.WriteTimeout) * time.Second,
	})

	// 全局中间件
	app.Use(middleware.RequestID())
	app.Use(middleware.Recovery())
	app.Use(middleware.Cors())
	app.Use(middleware.AccessLog("/health", "/metrics"))
	app.Use(metrics.Middleware())
	app.Use(middleware.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst).Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"service": serviceName,
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", metrics.Handler())

	var operations int

	err := lifecycle.New(serviceName).
		Node(serviceName + "-1").
		Addr(addr).
		Registry(reg).
		RegInfo(svcInfo).
		Redis(rdb).
		App(app).
		OnStart(func(s *lifecycle.Service) error {
			db := database.Get()
			if err := db.AutoMigrate(model.All()...); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			logger.Info("database migrated")

			gate, err := auth.NewRoleGate(db, &cfg.Casbin)
			if err != nil {
				return err
			}
			engine := authz.NewEngine(authz.WithRoleChecker(gate))
			jwtManager := auth.NewJWTManager(&cfg.JWT)
			hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

			// 仓储
			userRepo := user.NewRepository(db)
			entitlementRepo := entitlement.NewRepository(db)
			grantRepo := shopentitlement.NewRepository(db)
			categoryRepo := category.NewRepository(db)
			principals := user.NewPrincipalStore(userRepo, database.NewCache("principal"),
				time.Duration(cfg.Auth.PrincipalCacheTTL)*time.Second)

			// 控制器
			userCtrl := user.NewController(userRepo, hasher, principals)
			entitlementCtrl := entitlement.NewController(entitlementRepo)
			entitlementCtrl.UseBroadcaster(s.Cache())
			policyCtrl := policy.NewController(gate)

			middlewares := map[string]fiber.Handler{
				router.MiddlewareAuth:     middleware.JWTAuth(jwtManager, principals),
				router.MiddlewareOptional: middleware.OptionalAuth(jwtManager, principals),
			}
			guard := func(p authz.Policy) fiber.Handler { return middleware.Guard(engine, p) }

			api := app.Group("/" + basePath)
			policies := router.Register(api, middlewares, guard,
				authctl.NewController(userRepo, userCtrl, hasher, jwtManager),
				userCtrl,
				entitlementCtrl,
				shopentitlement.NewController(grantRepo, entitlementRepo),
				role.NewController(role.NewRepository(db), grantRepo, principals),
				shop.NewController(shop.NewRepository(db), hasher),
				branch.NewController(branch.NewRepository(db)),
				category.NewController(categoryRepo),
				inventory.NewController(inventory.NewRepository(db)),
				order.NewController(order.NewRepository(db), order.NewSequencer(database.NewCache("order"))),
				delivery.NewController(delivery.NewRepository(db)),
				analytics.NewController(analytics.NewRepository(db)),
				policyCtrl,
			)
			if err := gate.Sync(policies); err != nil {
				return err
			}
			policyCtrl.SetPolicies(policies)
			operations = len(policies)
			// 注册在启动钩子之后执行，元数据在此补齐
			svcInfo.Metadata[pkgRegistry.MetaOperations] = strconv.Itoa(operations)

			if cfg.Seed.Enabled {
				seeder := seed.New(cfg.Seed, userRepo, categoryRepo, entitlementRepo, hasher)
				if err := seeder.Run(context.Background()); err != nil {
					return fmt.Errorf("failed to seed: %w", err)
				}
			}
			return nil
		}).
		OnReady(func(s *lifecycle.Service) error {
			logger.Info("platform service ready", zap.String("addr", addr), zap.Int("operations", operations))
			return nil
		}).
		OnStop(func(s *lifecycle.Service) error {
			logger.Info("platform service stopping")
			return nil
		}).
		On(lifecycle.EventReady, func(msg *lifecycle.EventMessage, s *lifecycle.Service) {
			if msg.NodeID == s.Lifecycle().NodeID() {
				return
			}
			logger.Info("peer node ready", zap.String("service", msg.Service), zap.String("node", msg.NodeID))
		}).
		Run()

	if err != nil {
		logger.Fatal("service exited", zap.Error(err))
	}
}
