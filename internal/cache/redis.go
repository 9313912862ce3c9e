package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis é o Store compartilhado entre réplicas. Falhas do Redis viram cache miss.
type Redis struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    zerolog.Logger
}

// NewRedis conecta a partir de uma URL redis:// e valida com PING.
func NewRedis(ctx context.Context, url string, ttl time.Duration, log zerolog.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewRedisClient(rdb, ttl, log), nil
}

func NewRedisClient(rdb redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, prefix: "odonto:", log: log}
}

func (r *Redis) Get(ctx context.Context, key string) []byte {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("key", key).Msg("redis get")
		}
		return nil
	}
	return b
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.rdb.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("redis set")
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("redis del")
	}
}

func (r *Redis) Close() error { return r.rdb.Close() }
