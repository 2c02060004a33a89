// Package cache реализует зеркалирование истории телеметрии в Redis.
// Зеркало только пишется: при старте история из Redis не восстанавливается.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telemachus-gateway/internal/models"
)

const (
	// HistoryKeyPrefix префикс списков истории полей
	HistoryKeyPrefix = "telemetry:history:"
	// LatestKeyPrefix префикс ключей последнего значения поля
	LatestKeyPrefix = "telemetry:latest:"
	// SamplesTotalKey счетчик зеркалированных измерений
	SamplesTotalKey = "telemetry:samples:total"
	// LatestTTL время жизни последнего значения
	LatestTTL = 5 * time.Minute
)

// HistoryKey возвращает ключ списка истории поля
func HistoryKey(field string) string {
	return HistoryKeyPrefix + field
}

// LatestKey возвращает ключ последнего значения поля
func LatestKey(field string) string {
	return LatestKeyPrefix + field
}

// RedisCache зеркалирует измерения в Redis
type RedisCache struct {
	client     *redis.Client
	maxHistory int64
}

// NewRedisCache создает новое подключение к Redis. Списки истории
// обрезаются до maxHistory элементов, как и история в памяти.
func NewRedisCache(ctx context.Context, addr, password string, db, maxHistory int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client:     client,
		maxHistory: int64(maxHistory),
	}, nil
}

// MirrorSample записывает измерение в список истории поля и обновляет последнее значение
func (r *RedisCache) MirrorSample(ctx context.Context, field string, sample models.Sample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	key := HistoryKey(field)

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -r.maxHistory, -1)
	pipe.Set(ctx, LatestKey(field), data, LatestTTL)
	pipe.Incr(ctx, SamplesTotalKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mirror sample for %s: %w", field, err)
	}
	return nil
}

// GetCounter возвращает значение счетчика
func (r *RedisCache) GetCounter(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Ping проверяет соединение с Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close закрывает соединение
func (r *RedisCache) Close() error {
	return r.client.Close()
}
