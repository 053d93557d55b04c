package userservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sokofresh/internal/domain"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/repository/sessionrepo"
	"sokofresh/internal/repository/userrepo"
	"sokofresh/internal/service/userservice"
)

// registry monta o registro como o bootstrap: um repositório de usuários para todos,
// um repositório de sessão por cliente.
func (f *fixture) registry(idle time.Duration) *userservice.Registry {
	log := logger.NewNop()
	users := userrepo.NewUserRepository(f.long, log)
	sessions := sessionrepo.NewSessionRepository(f.short, f.long, log)
	hasher := userservice.NewBcryptHasher(bcrypt.MinCost)
	return userservice.NewRegistry(func(clientID string) *userservice.UserService {
		return userservice.NewService(users, sessions.ForClient(clientID), f.listings, hasher, nil, log)
	}, idle, log)
}

func TestRegistry_ClientsDoNotShareSessions(t *testing.T) {
	f := newFixture()
	reg := f.registry(0)
	ctx := context.Background()

	alice, err := reg.ForClient(ctx, "client-a")
	require.NoError(t, err)
	_, err = alice.Register(ctx, regA())
	require.NoError(t, err)
	_, err = alice.Login(ctx, "a@x.com", "secret-a", true)
	require.NoError(t, err)

	// Outro navegador, sem credencial: não vê a sessão de A
	stranger, err := reg.ForClient(ctx, "client-b")
	require.NoError(t, err)
	session, err := stranger.GetCurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	// ...e o logout dele não encerra a sessão de A
	require.NoError(t, stranger.Logout(ctx))
	session, err = alice.GetCurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "a@x.com", session.Email)

	// O conjunto durável continua compartilhado
	_, err = stranger.Login(ctx, "a@x.com", "secret-a", false)
	assert.NoError(t, err)
}

func TestRegistry_SameClientSameInstanceAndRestart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg := f.registry(0)

	first, err := reg.ForClient(ctx, "client-a")
	require.NoError(t, err)
	again, err := reg.ForClient(ctx, "client-a")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, reg.Len())

	_, err = first.Register(ctx, regA())
	require.NoError(t, err)
	_, err = first.Login(ctx, "a@x.com", "secret-a", true)
	require.NoError(t, err)

	// Novo processo: a instância nova já nasce com a sessão gravada
	restarted, err := f.registry(0).ForClient(ctx, "client-a")
	require.NoError(t, err)
	assert.Equal(t, domain.PersistenceLongLived, restarted.CurrentMode())
}

func TestRegistry_SweepKeepsSubscribedClients(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg := f.registry(time.Nanosecond)

	_, err := reg.ForClient(ctx, "idle")
	require.NoError(t, err)
	watched, err := reg.ForClient(ctx, "watched")
	require.NoError(t, err)
	unsubscribe := watched.Subscribe(func(*domain.PublicProfile) {})

	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	unsubscribe()
	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, reg.Sweep())
	assert.Zero(t, reg.Len())
}

func TestRegistry_SweepDisabled(t *testing.T) {
	reg := newFixture().registry(0)
	_, err := reg.ForClient(context.Background(), "client-a")
	require.NoError(t, err)

	assert.Zero(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}
