package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-dropship-admin/internal/metrics"
	"go-dropship-admin/pkg/logger"
	"go-dropship-admin/pkg/redis"
)

// DecisionCache memoises staff decisions under a policy version. Get hands out
// the version it observed and Put stores under that version only, so a decision
// computed before a policy write can never be filed under the newer version.
type DecisionCache interface {
	Get(ctx context.Context, staffID uint, key PermissionKey) (d Decision, version string, hit bool)
	Put(ctx context.Context, version string, staffID uint, key PermissionKey, d Decision)
	// Invalidate must be called after every write that can change a staff decision.
	Invalidate(ctx context.Context) error
}

// NoopDecisionCache always misses: every decision re-reads storage.
type NoopDecisionCache struct{}

func (NoopDecisionCache) Get(context.Context, uint, PermissionKey) (Decision, string, bool) {
	return Decision{}, "", false
}

func (NoopDecisionCache) Put(context.Context, string, uint, PermissionKey, Decision) {}

func (NoopDecisionCache) Invalidate(context.Context) error { return nil }

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithExpire(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

const policyVersionKey = "admin:policy:version"

type redisDecisionCache struct {
	store redisStore
	ttl   time.Duration
	log   *logger.Logger
}

func NewRedisDecisionCache(store redisStore, ttl time.Duration, log *logger.Logger) DecisionCache {
	return &redisDecisionCache{store: store, ttl: ttl, log: log.Named("decision-cache")}
}

func decisionKey(version string, staffID uint, key PermissionKey) string {
	return fmt.Sprintf("admin:policy:%s:staff:%d:%s|%s|%s", version, staffID, key.Panel, key.Module, key.Action)
}

func (c *redisDecisionCache) version(ctx context.Context) (string, error) {
	v, err := c.store.Get(ctx, policyVersionKey)
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func (c *redisDecisionCache) Get(ctx context.Context, staffID uint, key PermissionKey) (Decision, string, bool) {
	version, err := c.version(ctx)
	if err != nil {
		metrics.DecisionCacheLookups.WithLabelValues("error").Inc()
		c.log.Errorf(err, "read policy version")
		return Decision{}, "", false
	}

	raw, err := c.store.Get(ctx, decisionKey(version, staffID, key))
	if errors.Is(err, redis.Nil) {
		metrics.DecisionCacheLookups.WithLabelValues("miss").Inc()
		return Decision{}, version, false
	}
	if err != nil {
		metrics.DecisionCacheLookups.WithLabelValues("error").Inc()
		c.log.Errorf(err, "read cached decision")
		return Decision{}, "", false
	}

	allowed, reason, ok := strings.Cut(raw, ":")
	if !ok {
		metrics.DecisionCacheLookups.WithLabelValues("miss").Inc()
		return Decision{}, version, false
	}
	metrics.DecisionCacheLookups.WithLabelValues("hit").Inc()
	return Decision{Allowed: allowed == "1", Reason: reason}, version, true
}

func (c *redisDecisionCache) Put(ctx context.Context, version string, staffID uint, key PermissionKey, d Decision) {
	if version == "" {
		return
	}
	flag := "0"
	if d.Allowed {
		flag = "1"
	}
	if err := c.store.SetWithExpire(ctx, decisionKey(version, staffID, key), flag+":"+d.Reason, c.ttl); err != nil {
		c.log.Errorf(err, "store cached decision")
	}
}

func (c *redisDecisionCache) Invalidate(ctx context.Context) error {
	_, err := c.store.Incr(context.WithoutCancel(ctx), policyVersionKey)
	return err
}
