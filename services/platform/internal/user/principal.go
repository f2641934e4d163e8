package user

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/agrismart/pkg/authz"
	"github.com/agrismart/pkg/database"
	"github.com/agrismart/pkg/errors"
	"github.com/agrismart/pkg/logger"
	"go.uber.org/zap"
)

// PrincipalStore 按用户加载请求主体，结果缓存在 Redis
type PrincipalStore struct {
	repo  Repository
	cache *database.Cache
	ttl   time.Duration
}

// NewPrincipalStore 创建主体加载器，cache 为 nil 或 ttl 为0时不缓存
func NewPrincipalStore(repo Repository, cache *database.Cache, ttl time.Duration) *PrincipalStore {
	return &PrincipalStore{repo: repo, cache: cache, ttl: ttl}
}

func principalKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *PrincipalStore) cached() bool {
	return s != nil && s.cache != nil && s.ttl > 0
}

// LoadPrincipal 读取用户及权限快照，用户不存在返回 nil
func (s *PrincipalStore) LoadPrincipal(ctx context.Context, userID int64) (*authz.Principal, error) {
	if s.cached() {
		if raw, err := s.cache.Get(ctx, principalKey(userID)); err == nil {
			var p authz.Principal
			if err := json.Unmarshal([]byte(raw), &p); err == nil {
				return &p, nil
			}
		} else if !errors.Is(err, database.ErrCacheMiss) {
			logger.Warn("principal cache read failed", zap.Int64("userId", userID), zap.Error(err))
		}
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if u == nil {
		return nil, nil
	}
	p := u.Principal()

	if s.cached() {
		if raw, err := json.Marshal(p); err == nil {
			if err := s.cache.Set(ctx, principalKey(userID), raw, s.ttl); err != nil {
				logger.Warn("principal cache write failed", zap.Int64("userId", userID), zap.Error(err))
			}
		}
	}
	return p, nil
}

// Evict 用户或其快照变更后淘汰缓存
func (s *PrincipalStore) Evict(ctx context.Context, userIDs ...int64) {
	if !s.cached() || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = principalKey(id)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		logger.Warn("principal cache evict failed", zap.Int64s("userIds", userIDs), zap.Error(err))
	}
}
