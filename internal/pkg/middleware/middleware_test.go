package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sokofresh/internal/domain"
	"sokofresh/internal/pkg/cache"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/pkg/middleware"
	"sokofresh/internal/pkg/token"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func newSigner(t *testing.T) *token.Signer {
	t.Helper()
	s, err := token.NewSigner("test-secret", time.Minute)
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := newSigner(t)
	signed, _ := tokens.Issue(token.Grant{Email: "a@x.com", Role: string(domain.RoleMember), SessionID: "sid-1"})

	var got middleware.UserClaims
	h := middleware.NewAuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = middleware.GetUserClaimsFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, domain.RoleMember, got.Role)
	assert.Equal(t, "sid-1", got.SessionID)
}

func TestAuthMiddleware_TokenBoundToClient(t *testing.T) {
	tokens := newSigner(t)
	signed, _ := tokens.Issue(token.Grant{Email: "a@x.com", Role: string(domain.RoleMember), SessionID: "sid-1"})
	h := middleware.NewAuthMiddleware(tokens)(okHandler())

	for clientID, status := range map[string]int{"sid-1": http.StatusNoContent, "sid-2": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodPut, "/v1/profile", nil)
		req = req.WithContext(middleware.WithClientID(req.Context(), clientID))
		req.Header.Set("Authorization", "Bearer "+signed)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, status, rr.Code, clientID)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tokens := newSigner(t)
	h := middleware.NewAuthMiddleware(tokens)(okHandler())

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, header)
	}
}

func TestPermissionMiddleware(t *testing.T) {
	h := middleware.PermissionMiddleware(domain.RoleMember)(okHandler())

	cases := []struct {
		name   string
		ctx    context.Context
		status int
	}{
		{"sem claims", context.Background(), http.StatusUnauthorized},
		{"convidado", middleware.WithUserClaims(context.Background(), middleware.UserClaims{Role: domain.RoleGuest}), http.StatusForbidden},
		{"membro", middleware.WithUserClaims(context.Background(), middleware.UserClaims{Role: domain.RoleMember}), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/ratings", nil).WithContext(tc.ctx)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code)
		})
	}
}

// MockCacheClient é uma implementação mock da interface cache.Client
type MockCacheClient struct {
	mock.Mock
}

func (m *MockCacheClient) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheClient) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheClient) GetInt(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockCacheClient) Incr(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheClient) Close() error { return nil }

func serveFrom(h http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiter_FirstRequestStartsWindow(t *testing.T) {
	client := new(MockCacheClient)
	client.On("GetInt", mock.Anything, "rate-limit:10.0.0.1").Return(0, cache.ErrCacheMiss)
	client.On("Set", mock.Anything, "rate-limit:10.0.0.1", 1, time.Minute).Return(nil)

	rr := serveFrom(middleware.RateLimiter(client, 3, time.Minute, logger.NewNop())(okHandler()))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Remaining"))
	client.AssertExpectations(t)
}

func TestRateLimiter_IncrementsUnderLimit(t *testing.T) {
	client := new(MockCacheClient)
	client.On("GetInt", mock.Anything, "rate-limit:10.0.0.1").Return(1, nil)
	client.On("Incr", mock.Anything, "rate-limit:10.0.0.1").Return(int64(2), nil)

	rr := serveFrom(middleware.RateLimiter(client, 3, time.Minute, logger.NewNop())(okHandler()))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
	client.AssertExpectations(t)
}

func TestRateLimiter_BlocksAtLimit(t *testing.T) {
	client := new(MockCacheClient)
	client.On("GetInt", mock.Anything, "rate-limit:10.0.0.1").Return(3, nil)

	rr := serveFrom(middleware.RateLimiter(client, 3, time.Minute, logger.NewNop())(okHandler()))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	client.AssertNotCalled(t, "Incr", mock.Anything, mock.Anything)
}

func TestRateLimiter_CacheFailure(t *testing.T) {
	client := new(MockCacheClient)
	client.On("GetInt", mock.Anything, "rate-limit:10.0.0.1").Return(0, errors.New("connection refused"))

	rr := serveFrom(middleware.RateLimiter(client, 3, time.Minute, logger.NewNop())(okHandler()))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestClientSession_IssuesCookieOnce(t *testing.T) {
	var seen []string
	h := middleware.ClientSession(middleware.CookieOptions{MaxAge: time.Hour})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.GetClientIDFromContext(r.Context())
		require.True(t, ok)
		seen = append(seen, id)
	}))

	// 1. Primeira visita: cookie novo
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/session", nil))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	// 2. Mesma visita de volta: mesmo ID, sem Set-Cookie
	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Result().Cookies())

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, cookies[0].Value, seen[0])
}

func TestClientSession_ReplacesForgedValue(t *testing.T) {
	var seen string
	h := middleware.ClientSession(middleware.CookieOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.GetClientIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "../../sokoFreshUsers"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.NotEqual(t, "../../sokoFreshUsers", seen)
	require.Len(t, rr.Result().Cookies(), 1)
	assert.Equal(t, seen, rr.Result().Cookies()[0].Value)
}
