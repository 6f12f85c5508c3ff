package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/dental-clinic/internal/models"
)

// RedisProfileStore хранит профиль JSON-строкой под одним ключом.
// Подходит, когда клиентом выступает серверный процесс без локального диска.
type RedisProfileStore struct {
	rdb redis.UniversalClient
	key string
}

// NewRedisProfileStore: key обычно prefix + идентификатор рабочего места.
func NewRedisProfileStore(rdb redis.UniversalClient, key string) *RedisProfileStore {
	return &RedisProfileStore{rdb: rdb, key: key}
}

func (r *RedisProfileStore) Load(ctx context.Context) (*models.UserProfile, error) {
	const op = "session.RedisProfileStore.Load"

	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	return &p, nil
}

func (r *RedisProfileStore) Save(ctx context.Context, p models.UserProfile) error {
	const op = "session.RedisProfileStore.Save"

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Кэш профиля бессрочный, как localStorage: живёт до logout.
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisProfileStore) Clear(ctx context.Context) error {
	const op = "session.RedisProfileStore.Clear"

	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisProfileStore) Probe(ctx context.Context) error {
	const op = "session.RedisProfileStore.Probe"

	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (r *RedisProfileStore) Close() error { return r.rdb.Close() }
