package sessionrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sokofresh/internal/domain"
	apperror "sokofresh/internal/errors"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/pkg/storage"
)

// SessionRepository implementa domain.SessionRepository sobre dois escopos:
// curta duração (KeySession) e longa duração (KeyPersistentSession).
// Com um clientID as chaves ganham o sufixo ":<clientID>", uma sessão por cliente.
type SessionRepository struct {
	shortLived storage.Store
	longLived  storage.Store
	logger     logger.Logger
	clientID   string
}

// NewSessionRepository cria o repositório de sessão (chaves sem sufixo de cliente).
func NewSessionRepository(shortLived, longLived storage.Store, logger logger.Logger) *SessionRepository {
	return &SessionRepository{shortLived: shortLived, longLived: longLived, logger: logger}
}

// ForClient devolve uma cópia cujas chaves pertencem só ao cliente informado.
func (r *SessionRepository) ForClient(clientID string) *SessionRepository {
	scoped := *r
	scoped.clientID = clientID
	return &scoped
}

func (r *SessionRepository) key(base string) string {
	if r.clientID == "" {
		return base
	}
	return base + ":" + r.clientID
}

func (r *SessionRepository) scope(mode domain.PersistenceMode) (storage.Store, string, error) {
	switch mode {
	case domain.PersistenceShortLived:
		return r.shortLived, r.key(storage.KeySession), nil
	case domain.PersistenceLongLived:
		return r.longLived, r.key(storage.KeyPersistentSession), nil
	default:
		return nil, "", apperror.NewInternalError(fmt.Sprintf("Modo de persistência sem escopo: %q", mode), nil)
	}
}

// Get lê a sessão gravada no escopo. Ausente = (nil, nil).
// Valor ilegível devolve CorruptDataError.
func (r *SessionRepository) Get(ctx context.Context, mode domain.PersistenceMode) (*domain.PublicProfile, error) {
	store, key, err := r.scope(mode)
	if err != nil {
		return nil, err
	}

	raw, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewStorageError("failed to read session", err)
	}

	var profile domain.PublicProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, apperror.NewCorruptDataError(key, err)
	}
	return &profile, nil
}

// Put grava a sessão no escopo indicado.
func (r *SessionRepository) Put(ctx context.Context, mode domain.PersistenceMode, profile domain.PublicProfile) error {
	store, key, err := r.scope(mode)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return apperror.NewInternalError("Falha ao serializar sessão.", err)
	}

	if err := store.Set(ctx, key, string(payload)); err != nil {
		return apperror.NewStorageError("failed to write session", err)
	}

	r.logger.Debug("Sessão gravada.", map[string]interface{}{"mode": string(mode), "email": profile.Email})
	return nil
}

// Remove apaga a sessão de um escopo.
func (r *SessionRepository) Remove(ctx context.Context, mode domain.PersistenceMode) error {
	store, key, err := r.scope(mode)
	if err != nil {
		return err
	}
	if err := store.Remove(ctx, key); err != nil {
		return apperror.NewStorageError("failed to remove session", err)
	}
	return nil
}

// Clear apaga a sessão dos dois escopos.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if err := r.Remove(ctx, domain.PersistenceShortLived); err != nil {
		return err
	}
	return r.Remove(ctx, domain.PersistenceLongLived)
}

// ActiveMode informa qual escopo guarda a sessão agora (longa duração tem prioridade).
// A presença da chave basta; o conteúdo não é validado.
func (r *SessionRepository) ActiveMode(ctx context.Context) (domain.PersistenceMode, error) {
	for _, mode := range []domain.PersistenceMode{domain.PersistenceLongLived, domain.PersistenceShortLived} {
		store, key, _ := r.scope(mode)
		_, err := store.Get(ctx, key)
		if err == nil {
			return mode, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return domain.PersistenceNone, apperror.NewStorageError("failed to inspect session", err)
		}
	}
	return domain.PersistenceNone, nil
}
