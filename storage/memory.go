package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore — хранилище в памяти с той же семантикой, что и RedisStore.
// Используется в тестах; транзакции сериализуются общим мьютексом, так
// что конфликтов не бывает и повторы не нужны.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore создает пустое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Close ничего не делает
func (s *MemoryStore) Close() error {
	return nil
}

// Get читает значение по ключу
func (s *MemoryStore) Get(ctx context.Context, key string, v interface{}) error {
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return ErrKeyNotFound
	}
	return json.Unmarshal(data, v)
}

// Set записывает значение по ключу
func (s *MemoryStore) Set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal key %q: %w", key, err)
	}
	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
	return nil
}

// Delete удаляет ключ
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// ListByPrefix возвращает копии всех значений с данным префиксом
func (s *MemoryStore) ListByPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]byte)
	for key, data := range s.data {
		if strings.HasPrefix(key, prefix) {
			cp := make([]byte, len(data))
			copy(cp, data)
			result[key] = cp
		}
	}
	return result, nil
}

// Update выполняет fn под общим мьютексом; записи применяются
// только при успешном завершении fn.
func (s *MemoryStore) Update(ctx context.Context, keys []string, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &memTx{store: s}
	if err := fn(t); err != nil {
		return err
	}
	for _, w := range t.writes {
		if w.deleted {
			delete(s.data, w.key)
		} else {
			s.data[w.key] = w.data
		}
	}
	return nil
}

// memTx буферизует записи транзакции в памяти
type memTx struct {
	store  *MemoryStore
	writes []write
}

// Get читает ключ, учитывая собственные незакоммиченные записи
func (t *memTx) Get(key string, v interface{}) error {
	for i := len(t.writes) - 1; i >= 0; i-- {
		if t.writes[i].key == key {
			if t.writes[i].deleted {
				return ErrKeyNotFound
			}
			return json.Unmarshal(t.writes[i].data, v)
		}
	}
	data, ok := t.store.data[key]
	if !ok {
		return ErrKeyNotFound
	}
	return json.Unmarshal(data, v)
}

// Set добавляет отложенную запись
func (t *memTx) Set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal key %q: %w", key, err)
	}
	t.writes = append(t.writes, write{key: key, data: data})
	return nil
}

// Delete добавляет отложенное удаление
func (t *memTx) Delete(key string) {
	t.writes = append(t.writes, write{key: key, deleted: true})
}
