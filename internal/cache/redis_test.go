package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl, zerolog.Nop())
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedis_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute)

	assert.Nil(t, r.Get(ctx, "logo:c1"))
	r.Set(ctx, "logo:c1", []byte("png"))
	assert.Equal(t, []byte("png"), r.Get(ctx, "logo:c1"))
	assert.True(t, mr.Exists("odonto:logo:c1"), "chave com prefixo")

	r.Delete(ctx, "logo:c1")
	assert.Nil(t, r.Get(ctx, "logo:c1"))
}

func TestRedis_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, 30*time.Second)

	r.Set(ctx, "assinatura:b1", []byte("img"))
	assert.Equal(t, 30*time.Second, mr.TTL("odonto:assinatura:b1"))

	mr.FastForward(29 * time.Second)
	assert.Equal(t, []byte("img"), r.Get(ctx, "assinatura:b1"))
	mr.FastForward(2 * time.Second)
	assert.Nil(t, r.Get(ctx, "assinatura:b1"))
}

func TestRedis_ErrorReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute)
	r.Set(ctx, "logo:c1", []byte("png"))

	mr.SetError("LOADING redis fora do ar")
	assert.Nil(t, r.Get(ctx, "logo:c1"))
	r.Set(ctx, "logo:c2", []byte("x"))
	r.Delete(ctx, "logo:c1")

	mr.SetError("")
	assert.Equal(t, []byte("png"), r.Get(ctx, "logo:c1"), "falhas não apagam o que já estava gravado")
	assert.Nil(t, r.Get(ctx, "logo:c2"))

	mr.Close()
	assert.Nil(t, r.Get(ctx, "logo:c1"))
}
