package userservice

import (
	"context"
	"sync"
	"time"

	"sokofresh/internal/pkg/logger"
)

// Factory monta o serviço de um contexto de navegação (repositório de sessão já escopado).
type Factory func(clientID string) *UserService

// Registry mantém um UserService por contexto de navegação.
// A sessão de um cliente nunca é lida nem apagada pelas requisições de outro.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	logger  logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	svc      *UserService
	lastSeen time.Time
}

// NewRegistry cria o registro. idleTTL <= 0 desliga a limpeza de instâncias ociosas.
func NewRegistry(factory Factory, idleTTL time.Duration, log logger.Logger) *Registry {
	return &Registry{
		factory: factory,
		idleTTL: idleTTL,
		logger:  log,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// ForClient devolve o serviço do cliente, criando-o na primeira requisição.
// Uma instância nova relê a sessão gravada, então sobrevive a reinícios e à limpeza.
func (r *Registry) ForClient(ctx context.Context, clientID string) (*UserService, error) {
	r.mu.Lock()
	if e, ok := r.entries[clientID]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.svc, nil
	}
	r.mu.Unlock()

	// 1. Montar e hidratar fora do lock (acessa o armazenamento)
	svc := r.factory(clientID)
	if err := svc.Initialize(ctx); err != nil {
		return nil, err
	}
	if _, err := svc.GetCurrentSession(ctx); err != nil {
		return nil, err
	}

	// 2. Registrar; se outra requisição chegou antes, usar a dela
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[clientID]; ok {
		e.lastSeen = r.now()
		return e.svc, nil
	}
	r.entries[clientID] = &registryEntry{svc: svc, lastSeen: r.now()}
	return svc, nil
}

// Len informa quantos clientes têm serviço em memória.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep descarta instâncias ociosas sem observadores. A sessão gravada fica;
// só a cópia em memória sai.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) && e.svc.listenerCount() == 0 {
			delete(r.entries, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("Sessões ociosas descartadas da memória.", map[string]interface{}{"removed": removed, "active": len(r.entries)})
	}
	return removed
}

// Run chama Sweep a cada intervalo até o contexto terminar.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
