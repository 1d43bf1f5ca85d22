package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) (*RedisProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisProviderFromClient(client, "registry:"), mr
}

func TestRedisProvider_SetGet(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "announcements:active", []byte(`[{"id":1}]`), time.Minute))

	got, err := p.Get(ctx, "announcements:active")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))
	assert.True(t, mr.Exists("registry:announcements:active"), "key should carry the prefix")
}

func TestRedisProvider_Miss(t *testing.T) {
	p, _ := newTestProvider(t)

	_, err := p.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisProvider_Expiry(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "k", []byte("v"), 30*time.Second))
	mr.FastForward(31 * time.Second)

	_, err := p.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisProvider_Delete(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, p.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, p.Delete(ctx, "a", "b"))
	require.NoError(t, p.Delete(ctx))

	_, err := p.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = p.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewRedisProvider(t *testing.T) {
	mr := miniredis.RunT(t)

	p, err := NewRedisProvider(context.Background(), "redis://"+mr.Addr()+"/0", "x:")
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Ping(context.Background()))

	_, err = NewRedisProvider(context.Background(), "not a url", "x:")
	assert.Error(t, err)
}

func TestNoopProvider(t *testing.T) {
	var p Provider = NoopProvider{}
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := p.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, p.Delete(ctx, "k"))
}
