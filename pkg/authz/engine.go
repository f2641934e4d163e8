package authz

import (
	"context"
	"fmt"

	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/logger"
	"github.com/agrismart/pkg/metrics"
	"go.uber.org/zap"
)

const (
	gateRole        = "role"
	gateEntitlement = "entitlement"
)

// RoleChecker 角色白名单判定
type RoleChecker interface {
	Allowed(ctx context.Context, role Role, policy Policy) (bool, error)
}

// ListChecker 直接按策略中的白名单判定
type ListChecker struct{}

// Allowed 实现 RoleChecker
func (ListChecker) Allowed(_ context.Context, role Role, policy Policy) (bool, error) {
	return policy.AllowsRole(role), nil
}

// Engine 授权判定引擎
type Engine struct {
	roles RoleChecker
	log   *zap.Logger
}

// Option 引擎选项
type Option func(*Engine)

// WithRoleChecker 替换角色判定实现
func WithRoleChecker(rc RoleChecker) Option {
	return func(e *Engine) {
		if rc != nil {
			e.roles = rc
		}
	}
}

// NewEngine 创建引擎
func NewEngine(opts ...Option) *Engine {
	e := &Engine{roles: ListChecker{}, log: logger.Named("authz")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Authorize 先角色后权益，任一失败即返回
func (e *Engine) Authorize(ctx context.Context, p *Principal, policy Policy) error {
	if err := e.CheckRole(ctx, p, policy); err != nil {
		return err
	}
	return e.CheckEntitlement(p, policy)
}

// CheckRole 角色门，无隐式超级管理员放行
func (e *Engine) CheckRole(ctx context.Context, p *Principal, policy Policy) error {
	if len(policy.Roles) == 0 {
		return nil
	}
	if p == nil {
		return e.deny(gateRole, nil, policy, errors.Forbidden("User not authenticated"))
	}
	ok, err := e.roles.Allowed(ctx, p.Role, policy)
	if err != nil {
		return errors.Internal(err)
	}
	if !ok {
		return e.deny(gateRole, p, policy, errors.Forbidden("Insufficient role permissions"))
	}
	metrics.AuthzDecisions.WithLabelValues(gateRole, "allow").Inc()
	return nil
}

// CheckEntitlement 权益门，只读取主体上的快照
func (e *Engine) CheckEntitlement(p *Principal, policy Policy) error {
	req := policy.Entitlement
	if req == nil {
		return nil
	}
	if p == nil {
		return e.deny(gateEntitlement, nil, policy, errors.Forbidden("User not authenticated"))
	}
	if p.Role == RoleSuperAdmin {
		metrics.AuthzDecisions.WithLabelValues(gateEntitlement, "bypass").Inc()
		return nil
	}
	if len(p.Permissions) == 0 {
		return e.deny(gateEntitlement, p, policy, errors.Forbidden("User does not have any permissions assigned"))
	}
	code := NormalizeCode(req.Code)
	grant, ok := FindGrant(p.Permissions, code)
	if !ok {
		return e.deny(gateEntitlement, p, policy, errors.Forbidden(fmt.Sprintf("User does not have access to %s", code)))
	}
	if !grant.Permissions.Has(req.Verb) {
		return e.deny(gateEntitlement, p, policy, errors.Forbidden(fmt.Sprintf("User does not have %s permission for %s", req.Verb, code)))
	}
	metrics.AuthzDecisions.WithLabelValues(gateEntitlement, "allow").Inc()
	return nil
}

func (e *Engine) deny(gate string, p *Principal, policy Policy, err *errors.AppError) error {
	metrics.AuthzDecisions.WithLabelValues(gate, "deny").Inc()
	fields := []zap.Field{
		zap.String("gate", gate),
		zap.String("operation", policy.Operation),
		zap.String("reason", err.Message),
	}
	if p != nil {
		fields = append(fields, zap.Int64("userId", p.UserID), zap.String("role", string(p.Role)))
	}
	e.log.Debug("authorization denied", fields...)
	return err
}
