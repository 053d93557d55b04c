package storage

import (
	"context"
	"errors"
	"time"

	"sokofresh/internal/pkg/cache"
)

// RedisStore é o escopo de curta duração sobre o cliente de cache.
// Toda escrita renova o TTL; a expiração faz o papel do "fim do contexto de navegação".
type RedisStore struct {
	client cache.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore cria o escopo. prefix isola as chaves (ex.: "short:").
func NewRedisStore(client cache.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl)
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.client.Delete(ctx, s.prefix+key)
}
