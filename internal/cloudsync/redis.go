package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key RedisClient stores the document under.
const DefaultRedisKey = "phonocorrect:rules"

var _ Client = (*RedisClient)(nil)

// RedisClient syncs through a Redis string key. The revision is kept
// alongside it under "<key>:revision".
type RedisClient struct {
	client redis.Cmdable
	now    func() time.Time
	key    string
}

// NewRedisClient wraps an existing Redis connection.
func NewRedisClient(client redis.Cmdable, key string) *RedisClient {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisClient{client: client, key: key, now: time.Now}
}

// RedisOptions configures DialRedis.
type RedisOptions struct {
	Addr     string
	Password string
	Key      string
	DB       int
}

// DialRedis opens a connection and checks it responds.
func DialRedis(ctx context.Context, opts RedisOptions) (*RedisClient, func() error, error) {
	if opts.Addr == "" {
		return nil, nil, fmt.Errorf("%w: redis address is empty", common.ErrInvalidConfig)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", opts.Addr, err)
	}
	return NewRedisClient(rdb, opts.Key), rdb.Close, nil
}

// Push stores data and its revision in one MULTI block.
func (c *RedisClient) Push(ctx context.Context, data []byte) (Ack, error) {
	rev := revision(data)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.key, data, 0)
		pipe.Set(ctx, c.key+":revision", rev, 0)
		return nil
	})
	if err != nil {
		return Ack{}, fmt.Errorf("failed to push to redis: %w", err)
	}
	return Ack{StoredAt: c.now(), Revision: rev, Bytes: len(data)}, nil
}

// Pull fetches the stored document.
func (c *RedisClient) Pull(ctx context.Context) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.Permanent(fmt.Errorf("redis key %s: %w", c.key, common.ErrNotFound))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pull from redis: %w", err)
	}
	return data, nil
}
