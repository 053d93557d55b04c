// Package storage define o contrato chave-valor usado pelos escopos de persistência
// (curta e longa duração) e suas implementações: memória, Redis e SQL.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound é retornado por Get quando a chave não existe no escopo.
var ErrNotFound = errors.New("storage: key not found")

// Store é o contrato opaco get/set/remove sobre strings.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Swapper é implementado pelos escopos que sabem gravar condicionalmente.
// CompareAndSwap grava value só se o valor atual for *old (old nil = chave ausente)
// e informa se gravou.
type Swapper interface {
	CompareAndSwap(ctx context.Context, key string, old *string, value string) (bool, error)
}

// Chaves lógicas usadas pelo serviço.
const (
	KeyUsers             = "sokoFreshUsers"
	KeyPersistentSession = "sokoFreshPersistedUser"
	KeySession           = "sokoFreshCurrentUser"
)
