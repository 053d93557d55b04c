// Package bootstrap monta os escopos de armazenamento e o serviço de sessão
// a partir da configuração. É compartilhado pelo servidor e pelo sokoctl.
package bootstrap

import (
	"context"
	"fmt"

	"sokofresh/config"
	"sokofresh/internal/api/user"
	"sokofresh/internal/pkg/cache"
	"sokofresh/internal/pkg/database"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/pkg/storage"
	"sokofresh/internal/repository/sessionrepo"
	"sokofresh/internal/repository/userrepo"
	"sokofresh/internal/seed"
	"sokofresh/internal/service/userservice"
)

const redisKeyPrefix = "sokofresh:"

// Stores reúne os dois escopos e o cliente Redis (nil quando REDIS_ADDR está vazio).
type Stores struct {
	ShortLived storage.Store
	LongLived  storage.Store
	Cache      cache.Client

	closers []func() error
}

// OpenStores abre o escopo de longa duração (memória, SQLite ou PostgreSQL, com migrações)
// e o de curta duração (Redis com TTL ou memória do processo).
func OpenStores(ctx context.Context, cfg *config.Config, log logger.Logger) (*Stores, error) {
	s := &Stores{}

	// 1. Longa duração
	switch cfg.StorageDriver {
	case config.DriverMemory:
		s.LongLived = storage.NewMemoryStore()
		log.Warn("Armazenamento em memória: nada sobrevive a um reinício.", nil)

	case config.DriverSQLite:
		db, err := database.NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("falha ao abrir SQLite: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		if err := database.RunMigrations(ctx, db, "sqlite3"); err != nil {
			_ = s.Close()
			return nil, err
		}
		store, err := storage.NewSQLStore(db, storage.DialectSQLite, cfg.DBTimeout)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.LongLived = store
		log.Info("SQLite pronto.", map[string]interface{}{"path": cfg.SQLitePath})

	case config.DriverPostgres:
		db, err := database.NewPostgresDB(cfg.DatabaseURL, database.DefaultPoolConfig())
		if err != nil {
			return nil, fmt.Errorf("falha ao conectar ao PostgreSQL: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		if err := database.RunMigrations(ctx, db, "postgres"); err != nil {
			_ = s.Close()
			return nil, err
		}
		store, err := storage.NewSQLStore(db, storage.DialectPostgres, cfg.DBTimeout)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.LongLived = store
		log.Info("Conexão PostgreSQL estabelecida.", nil)

	default:
		return nil, fmt.Errorf("STORAGE_DRIVER desconhecido: %q", cfg.StorageDriver)
	}

	// 2. Curta duração
	if cfg.RedisAddr == "" {
		s.ShortLived = storage.NewMemoryStore()
		log.Info("Sessão de curta duração na memória do processo.", nil)
		return s, nil
	}

	client, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("falha ao conectar ao Redis: %w", err)
	}
	s.closers = append(s.closers, client.Close)
	s.Cache = client
	s.ShortLived = storage.NewRedisStore(client, redisKeyPrefix, cfg.SessionTTL)
	log.Info("Conexão Redis estabelecida.", map[string]interface{}{"ttl": cfg.SessionTTL.String()})

	return s, nil
}

// Close fecha as conexões na ordem inversa de abertura.
func (s *Stores) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// NewUserService monta Repository -> Service sobre os escopos abertos.
// A sessão usa as chaves sem sufixo de cliente (sokoctl).
func NewUserService(cfg *config.Config, s *Stores, metrics userservice.Recorder, log logger.Logger) *userservice.UserService {
	return newFactory(cfg, s, metrics, log)("")
}

// NewRegistry monta o registro de serviços por contexto de navegação (servidor HTTP).
// Todos compartilham o mesmo UserRepository, que serializa as escritas do conjunto.
func NewRegistry(cfg *config.Config, s *Stores, metrics userservice.Recorder, log logger.Logger) *userservice.Registry {
	return userservice.NewRegistry(newFactory(cfg, s, metrics, log), cfg.SessionIdleTTL, log)
}

func newFactory(cfg *config.Config, s *Stores, metrics userservice.Recorder, log logger.Logger) userservice.Factory {
	userRepo := userrepo.NewUserRepository(s.LongLived, log)
	sessionRepo := sessionrepo.NewSessionRepository(s.ShortLived, s.LongLived, log)
	listings := seed.FileSource{Path: cfg.SeedFile}
	hasher := userservice.NewBcryptHasher(cfg.BcryptCost)
	return func(clientID string) *userservice.UserService {
		repo := sessionRepo
		if clientID != "" {
			repo = sessionRepo.ForClient(clientID)
		}
		return userservice.NewService(userRepo, repo, listings, hasher, metrics, log)
	}
}

// SessionProvider expõe o registro para o handler HTTP.
func SessionProvider(reg *userservice.Registry) user.ProviderFunc {
	return func(ctx context.Context, clientID string) (user.UserService, error) {
		svc, err := reg.ForClient(ctx, clientID)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}
