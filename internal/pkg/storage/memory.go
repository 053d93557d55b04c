package storage

import (
	"context"
	"sync"
)

// MemoryStore guarda os valores num mapa do processo.
// Usado como escopo de curta duração quando não há Redis, e nos testes.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore cria um escopo vazio.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *MemoryStore) CompareAndSwap(_ context.Context, key string, old *string, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.data[key]
	if old == nil && ok || old != nil && (!ok || current != *old) {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

// Clear apaga tudo, simulando o fim do contexto de navegação.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
}
