package halcyon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisTokenRepository keeps pending verification tokens in Redis, keyed by
// account ID with a TTL matching the token expiry, so stale tokens vanish
// without a sweeper.
type redisTokenRepository struct {
	client *redis.Client
}

func NewRedisTokenRepository(client *redis.Client) VerifyTokenRepository {
	return &redisTokenRepository{client: client}
}

func tokenKey(id ID) string {
	return "verify:" + string(id)
}

func (r *redisTokenRepository) Store(t *VerifyToken) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(context.TODO(), tokenKey(t.AccountID), data, ttl).Err()
}

func (r *redisTokenRepository) FindByAccount(id ID) (*VerifyToken, error) {
	data, err := r.client.Get(context.TODO(), tokenKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	var t VerifyToken
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *redisTokenRepository) Delete(id ID) error {
	n, err := r.client.Del(context.TODO(), tokenKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenInvalid
	}
	return nil
}
