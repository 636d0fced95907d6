package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const redisPrefix = "refresh:"

// RedisRepository keeps refresh tokens as JSON values whose TTL matches
// the token expiry.
type RedisRepository struct {
	client redis.Cmdable
}

func NewRedisRepository(client redis.Cmdable) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) key(token string) string {
	return redisPrefix + hashToken(token)
}

func (r *RedisRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	data, err := json.Marshal(models.RefreshToken{UserID: userID, Expires: time.Now().Add(validity)})
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := r.client.Set(ctx, r.key(token), data, validity).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	data, err := r.client.GetDel(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	rt := &models.RefreshToken{}
	if err := json.Unmarshal(data, rt); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	rt.Token = token
	return rt, nil
}
