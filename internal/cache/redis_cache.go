package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/config"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
)

type RedisParticipantCache struct {
	client *redis.Client
	prefix string
}

func NewRedisParticipantCache(cfg config.RedisConfig, prefix string) (*RedisParticipantCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisParticipantCache{
		client: client,
		prefix: prefix,
	}, nil
}

func (c *RedisParticipantCache) listKey() string {
	return fmt.Sprintf("%s:participants", c.prefix)
}

func (c *RedisParticipantCache) GetParticipants(ctx context.Context) ([]domain.Participant, error) {
	data, err := c.client.Get(ctx, c.listKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var participants []domain.Participant
	if err := json.Unmarshal(data, &participants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return participants, nil
}

func (c *RedisParticipantCache) SetParticipants(ctx context.Context, participants []domain.Participant, ttl time.Duration) error {
	data, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.listKey(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisParticipantCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.listKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

func (c *RedisParticipantCache) Close() error {
	return c.client.Close()
}
