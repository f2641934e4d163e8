package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/agrismart/pkg/auth"
	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/logger"
	"github.com/agrismart/pkg/response"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	localPrincipal = "principal"
	localRequestID = "requestId"
)

// PrincipalLoader 按用户ID加载请求主体（含权限快照）
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID int64) (*authz.Principal, error)
}

// JWTAuth JWT认证中间件，令牌有效后从用户存储加载主体
func JWTAuth(jwtManager *auth.JWTManager, loader PrincipalLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return response.Unauthorized(c, "Missing authentication token")
		}
		if err := authenticate(c, jwtManager, loader, token); err != nil {
			return response.Fail(c, err)
		}
		return c.Next()
	}
}

// OptionalAuth 公开接口使用，带有效令牌时加载主体，否则匿名继续
func OptionalAuth(jwtManager *auth.JWTManager, loader PrincipalLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			if err := authenticate(c, jwtManager, loader, token); err != nil {
				logger.Debug("optional auth ignored", zap.Error(err))
			}
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if h == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func authenticate(c *fiber.Ctx, jwtManager *auth.JWTManager, loader PrincipalLoader, token string) error {
	claims, err := jwtManager.ParseToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return errors.ErrTokenExpired
		}
		return errors.ErrTokenInvalid
	}

	p, err := loader.LoadPrincipal(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.Unauthorized("User not found")
	}
	if !p.Active {
		return errors.Unauthorized("Account is inactive")
	}

	c.Locals(localPrincipal, p)
	c.SetUserContext(authz.WithPrincipal(c.UserContext(), p))
	return nil
}

// Guard 按操作策略执行角色门和权益门
func Guard(engine *authz.Engine, policy authz.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := engine.Authorize(c.UserContext(), GetPrincipal(c), policy); err != nil {
			return response.Fail(c, err)
		}
		return c.Next()
	}
}

// GetPrincipal 从上下文获取当前主体，未登录返回 nil
func GetPrincipal(c *fiber.Ctx) *authz.Principal {
	p, _ := c.Locals(localPrincipal).(*authz.Principal)
	return p
}

// Recovery 恢复中间件
func Recovery() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("error", r),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
				)
				err = response.Error(c, http.StatusInternalServerError, errors.ErrInternalServer.Message)
			}
		}()
		return c.Next()
	}
}

// Cors 跨域中间件
func Cors() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if origin := c.Get("Origin"); origin != "" {
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			c.Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization, X-Request-ID")
			c.Set("Access-Control-Expose-Headers", "Content-Length, Content-Type, X-Request-ID")
			c.Set("Access-Control-Allow-Credentials", "true")
		}
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(http.StatusNoContent)
		}
		return c.Next()
	}
}

// RateLimiter 全局令牌桶限流
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter 创建限流器，rate 为每秒请求数
func NewRateLimiter(perSecond, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Middleware 限流中间件
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.limiter.Allow() {
			return response.Error(c, http.StatusTooManyRequests, "Too many requests")
		}
		return c.Next()
	}
}

// RequestID 请求ID中间件
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(localRequestID, requestID)
		c.Set("X-Request-ID", requestID)
		return c.Next()
	}
}

// GetRequestID 获取请求ID
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localRequestID).(string)
	return id
}

// AccessLog 访问日志
func AccessLog(skipPaths ...string) fiber.Handler {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		if _, ok := skip[c.Path()]; ok {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("requestId", GetRequestID(c)),
		}
		if p := GetPrincipal(c); p != nil {
			fields = append(fields, zap.Int64("userId", p.UserID))
		}
		logger.Info("request", fields...)
		return err
	}
}

// ErrorHandler fiber 全局错误处理
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Code, fe.Message)
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return response.Error(c, appErr.Code, appErr.Message)
	}
	logger.Error("unhandled error", zap.Error(err), zap.String("path", c.Path()))
	return response.Error(c, http.StatusInternalServerError, errors.ErrInternalServer.Message)
}
