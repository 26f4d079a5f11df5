package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/config"
)

const redisProbeTimeout = 2 * time.Second

var errRedisNotConfigured = errors.New("redis client not configured")

// Redis holds the shared go-redis client. Only the login throttle uses it.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client and probes it once. An unreachable server is
// logged and tolerated; the throttle fails open.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisProbeTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	r := &Redis{Client: client}

	ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
	defer cancel()
	log := logger.With(zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	if err := r.Ping(ctx); err != nil {
		log.Warn("redis unreachable; login throttling disabled until it recovers", zap.Error(err))
	} else {
		log.Info("connected to redis")
	}
	return r
}

func (r *Redis) Handle() *redis.Client {
	if r == nil {
		return nil
	}
	return r.Client
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.Handle() == nil {
		return errRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) Close() {
	if c := r.Handle(); c != nil {
		_ = c.Close()
	}
}
