package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// maxTxRetries ограничивает число повторов оптимистичной транзакции
const maxTxRetries = 16

// RedisStore реализует Store поверх Redis
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore создает новое хранилище Redis
func NewRedisStore(addr, password string, db int, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: logger,
	}, nil
}

// Close закрывает соединение с Redis
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get читает значение по ключу и десериализует его в v
func (s *RedisStore) Get(ctx context.Context, key string, v interface{}) error {
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get key %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to unmarshal key %q: %w", key, err)
	}
	return nil
}

// Set сериализует v и записывает по ключу
func (s *RedisStore) Set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal key %q: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// Delete удаляет ключ
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// ListByPrefix возвращает все пары ключ-значение с данным префиксом
func (s *RedisStore) ListByPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	result := make(map[string][]byte)

	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue // ключ исчез между SCAN и GET
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get key %q: %w", key, err)
		}
		result[key] = []byte(data)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan prefix %q: %w", prefix, err)
	}

	return result, nil
}

// Update выполняет fn в оптимистичной транзакции: перечисленные ключи
// ставятся под WATCH, записи собираются в буфер и применяются одним
// MULTI/EXEC. Если другой клиент изменил ключ, транзакция повторяется.
func (s *RedisStore) Update(ctx context.Context, keys []string, fn func(tx Tx) error) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, func(rt *redis.Tx) error {
			t := &redisTx{ctx: ctx, tx: rt}
			if err := fn(t); err != nil {
				return err
			}
			_, err := rt.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, w := range t.writes {
					if w.deleted {
						pipe.Del(ctx, w.key)
					} else {
						pipe.Set(ctx, w.key, w.data, 0)
					}
				}
				return nil
			})
			return err
		}, keys...)

		if err == redis.TxFailedErr {
			s.logger.Debug("Optimistic transaction conflict, retrying",
				zap.Strings("keys", keys),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		return err
	}
	return ErrTxConflict
}

// write — отложенная запись внутри транзакции
type write struct {
	key     string
	data    []byte
	deleted bool
}

// redisTx реализует Tx поверх наблюдаемого соединения
type redisTx struct {
	ctx    context.Context
	tx     *redis.Tx
	writes []write
}

// Get читает ключ, учитывая собственные незакоммиченные записи
func (t *redisTx) Get(key string, v interface{}) error {
	for i := len(t.writes) - 1; i >= 0; i-- {
		if t.writes[i].key == key {
			if t.writes[i].deleted {
				return ErrKeyNotFound
			}
			return json.Unmarshal(t.writes[i].data, v)
		}
	}

	data, err := t.tx.Get(t.ctx, key).Result()
	if err == redis.Nil {
		return ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get key %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to unmarshal key %q: %w", key, err)
	}
	return nil
}

// Set добавляет отложенную запись
func (t *redisTx) Set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal key %q: %w", key, err)
	}
	t.writes = append(t.writes, write{key: key, data: data})
	return nil
}

// Delete добавляет отложенное удаление
func (t *redisTx) Delete(key string) {
	t.writes = append(t.writes, write{key: key, deleted: true})
}
