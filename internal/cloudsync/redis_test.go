package cloudsync

import (
	"context"
	"os"
	"testing"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set PHONOCORRECT_TEST_REDIS_ADDR to run against a scratch Redis instance.
func TestRedisClient(t *testing.T) {
	addr := os.Getenv("PHONOCORRECT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PHONOCORRECT_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, closeFn, err := DialRedis(ctx, RedisOptions{Addr: addr, Key: "phonocorrect:test:" + t.Name()})
	require.NoError(t, err)
	defer func() { _ = closeFn() }()
	defer func() {
		_ = client.client.Del(ctx, client.key, client.key+":revision").Err()
	}()

	_, err = client.Pull(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)

	ack, err := client.Push(ctx, []byte(`{"version":1,"rules":[]}`))
	require.NoError(t, err)
	assert.Equal(t, revision([]byte(`{"version":1,"rules":[]}`)), ack.Revision)

	rev, err := client.client.Get(ctx, client.key+":revision").Result()
	require.NoError(t, err)
	assert.Equal(t, ack.Revision, rev)

	data, err := client.Pull(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"rules":[]}`, string(data))
}

func TestDialRedis_RequiresAddress(t *testing.T) {
	_, _, err := DialRedis(context.Background(), RedisOptions{})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestNewRedisClient_DefaultKey(t *testing.T) {
	assert.Equal(t, DefaultRedisKey, NewRedisClient(nil, "").key)
}
