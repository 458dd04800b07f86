package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"room-booking/config"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("缓存未命中")

// keyPrefix 所有键的命名空间，便于与同实例上的其他应用区分
const keyPrefix = "roombook:"

const (
	blacklistNS = "revoked:"
	rateNS      = "rate:"
	cacheNS     = "cache:"
)

// Client 承载三类数据：已注销的 jti、接口限流窗口、教室目录缓存
type Client struct {
	rdb    goredis.UniversalClient
	logger *zap.Logger
}

// NewClient 连接并 Ping，失败时关闭连接
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败 (%s): %w", cfg.Addr, err)
	}

	logger.Info("Redis 已连接", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &Client{rdb: rdb, logger: logger}, nil
}

func key(ns, id string) string { return keyPrefix + ns + id }

// ── 注销的 Token ──

// BlacklistToken 记录 jti 直到 Token 自然过期；ttl<=0 说明已过期，无需记录
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, key(blacklistNS, jti), 1, ttl).Err()
}

func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key(blacklistNS, jti)).Result()
	return n > 0, err
}

// ── 限流 ──

// slidingWindow 先清理窗口外的记录，未超限时才记入本次请求，
// 被拒绝的请求不占用名额
var slidingWindow = goredis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1] - ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// CheckRateLimit 窗口内已放行 limit 次时返回 false
func (c *Client) CheckRateLimit(ctx context.Context, id string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMilli()
	allowed, err := slidingWindow.Run(ctx, c.rdb,
		[]string{key(rateNS, id)},
		now, window.Milliseconds(), limit, uuid.NewString(),
	).Int()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// ── 缓存 ──

// GetJSON 未命中返回 ErrCacheMiss
func (c *Client) GetJSON(ctx context.Context, id string, dst any) error {
	raw, err := c.rdb.Get(ctx, key(cacheNS, id)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return ErrCacheMiss
	case err != nil:
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (c *Client) SetJSON(ctx context.Context, id string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化缓存值失败: %w", err)
	}
	return c.rdb.Set(ctx, key(cacheNS, id), raw, ttl).Err()
}

// Delete 使缓存失效
func (c *Client) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(cacheNS, id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
