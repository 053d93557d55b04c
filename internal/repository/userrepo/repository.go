package userrepo

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"sokofresh/internal/domain"
	apperror "sokofresh/internal/errors"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/pkg/storage"
)

// Tentativas de Update antes de desistir com ConflictError.
const maxUpdateAttempts = 5

// UserRepository implementa domain.UserRepository.
// O conjunto durável é gravado como um único blob JSON na chave storage.KeyUsers.
type UserRepository struct {
	store  storage.Store
	logger logger.Logger

	// Serializa Update entre todos os serviços que compartilham este repositório.
	mu sync.Mutex
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o escopo de longa duração.
func NewUserRepository(store storage.Store, logger logger.Logger) *UserRepository {
	return &UserRepository{store: store, logger: logger}
}

// LoadAll lê o conjunto inteiro. Chave ausente = conjunto vazio.
// Um valor ilegível devolve CorruptDataError; quem decide o reset é o serviço.
func (r *UserRepository) LoadAll(ctx context.Context) ([]domain.UserRecord, error) {
	// 1. Ler o blob
	raw, found, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		r.logger.Debug("Conjunto de usuários ainda não existe no armazenamento.", nil)
	}

	// 2. Desserializar
	users, err := decodeUsers(raw, found)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Conjunto de usuários carregado.", map[string]interface{}{"count": len(users)})
	return users, nil
}

// SaveAll grava o conjunto inteiro, substituindo o valor anterior.
func (r *UserRepository) SaveAll(ctx context.Context, users []domain.UserRecord) error {
	if users == nil {
		users = []domain.UserRecord{}
	}

	payload, err := json.Marshal(users)
	if err != nil {
		return apperror.NewInternalError("Falha ao serializar usuários.", err)
	}

	if err := r.store.Set(ctx, storage.KeyUsers, string(payload)); err != nil {
		r.logger.Error("Falha ao gravar o conjunto de usuários.", err)
		return apperror.NewStorageError("failed to save users", err)
	}

	r.logger.Debug("Conjunto de usuários gravado.", map[string]interface{}{"count": len(users)})
	return nil
}

// Update relê o conjunto gravado, aplica fn e grava o resultado.
// A escrita parte sempre do valor atual do armazenamento, não de uma cópia antiga.
// Em escopos com storage.Swapper a gravação é condicional: se outro processo gravou
// entre a leitura e a escrita, o ciclo recomeça (fn pode rodar mais de uma vez).
// Um valor ilegível é tratado como conjunto vazio (e sobrescrito).
func (r *UserRepository) Update(ctx context.Context, fn func(users []domain.UserRecord) ([]domain.UserRecord, error)) ([]domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	swapper, conditional := r.store.(storage.Swapper)
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		// 1. Reler
		raw, found, err := r.read(ctx)
		if err != nil {
			return nil, err
		}
		users, err := decodeUsers(raw, found)
		if err != nil {
			r.logger.Error("Conjunto de usuários corrompido; reescrevendo a partir do vazio.", err)
			users = []domain.UserRecord{}
		}

		// 2. Aplicar a mudança
		next, err := fn(users)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []domain.UserRecord{}
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return nil, apperror.NewInternalError("Falha ao serializar usuários.", err)
		}

		// 3. Gravar
		if !conditional {
			if err := r.store.Set(ctx, storage.KeyUsers, string(payload)); err != nil {
				r.logger.Error("Falha ao gravar o conjunto de usuários.", err)
				return nil, apperror.NewStorageError("failed to save users", err)
			}
			return next, nil
		}

		var expected *string
		if found {
			expected = &raw
		}
		swapped, err := swapper.CompareAndSwap(ctx, storage.KeyUsers, expected, string(payload))
		if err != nil {
			r.logger.Error("Falha ao gravar o conjunto de usuários.", err)
			return nil, apperror.NewStorageError("failed to save users", err)
		}
		if swapped {
			r.logger.Debug("Conjunto de usuários gravado.", map[string]interface{}{"count": len(next), "attempt": attempt})
			return next, nil
		}
		r.logger.Warn("Conjunto de usuários mudou durante a escrita; relendo.", map[string]interface{}{"attempt": attempt})
	}

	return nil, apperror.NewConflictError("O conjunto de usuários mudou repetidamente durante a gravação; tente novamente.")
}

// read devolve o blob cru e se a chave existe.
func (r *UserRepository) read(ctx context.Context) (string, bool, error) {
	raw, err := r.store.Get(ctx, storage.KeyUsers)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("Falha ao ler o conjunto de usuários.", err)
		return "", false, apperror.NewStorageError("failed to load users", err)
	}
	return raw, true, nil
}

func decodeUsers(raw string, found bool) ([]domain.UserRecord, error) {
	if !found {
		return []domain.UserRecord{}, nil
	}
	var users []domain.UserRecord
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, apperror.NewCorruptDataError(storage.KeyUsers, err)
	}
	if users == nil {
		users = []domain.UserRecord{}
	}
	return users, nil
}
