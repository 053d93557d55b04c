package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sokofresh/internal/api/router"
	"sokofresh/internal/api/user"
	"sokofresh/internal/bootstrap"
	"sokofresh/internal/domain"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/pkg/metrics"
	"sokofresh/internal/pkg/storage"
	"sokofresh/internal/pkg/token"
	"sokofresh/internal/repository/sessionrepo"
	"sokofresh/internal/repository/userrepo"
	"sokofresh/internal/service/userservice"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.NewNop()
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	long := storage.NewMemoryStore()

	users := userrepo.NewUserRepository(long, log)
	sessions := sessionrepo.NewSessionRepository(storage.NewMemoryStore(), long, log)
	hasher := userservice.NewBcryptHasher(bcrypt.MinCost)
	registry := userservice.NewRegistry(func(clientID string) *userservice.UserService {
		return userservice.NewService(users, sessions.ForClient(clientID), nil, hasher, collector, log)
	}, 0, log)

	tokens, err := token.NewSigner("router-secret", time.Minute)
	require.NoError(t, err)
	h := router.NewRouter(router.Deps{
		UserHandler: user.NewHandler(bootstrap.SessionProvider(registry), tokens, log),
		Tokens:      tokens,
		Logger:      log,
		Metrics:     collector,
		Gatherer:    reg,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// browser é um cliente com o seu próprio cookie jar (um contexto de navegação).
func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func do(t *testing.T, client *http.Client, method, url, body, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func register(t *testing.T, client *http.Client, url, email, phone string) user.SessionResponse {
	t.Helper()
	resp := do(t, client, http.MethodPost, url+"/v1/register",
		`{"name":"Alice","email":"`+email+`","phone":"`+phone+`","password":"pw"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[user.SessionResponse](t, resp)
}

func TestPing(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.DefaultClient, http.MethodGet, srv.URL+"/ping", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterThenRateRequiresMember(t *testing.T) {
	srv := newServer(t)
	register(t, browser(t), srv.URL, "a@x.com", "0700000001")

	anon := browser(t)
	resp := do(t, anon, http.MethodPost, srv.URL+"/v1/ratings", `{"email":"a@x.com","rating":5}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	guestBrowser := browser(t)
	resp = do(t, guestBrowser, http.MethodPost, srv.URL+"/v1/login/guest", "", "")
	guest := decode[user.SessionResponse](t, resp)
	resp = do(t, guestBrowser, http.MethodPost, srv.URL+"/v1/ratings", `{"email":"a@x.com","rating":5}`, guest.Token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	memberBrowser := browser(t)
	member := register(t, memberBrowser, srv.URL, "b@x.com", "0700000002")
	resp = do(t, memberBrowser, http.MethodPost, srv.URL+"/v1/ratings", `{"email":"a@x.com","rating":5}`, member.Token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// O token vale só no navegador para o qual foi emitido.
	resp = do(t, anon, http.MethodPost, srv.URL+"/v1/ratings", `{"email":"a@x.com","rating":5}`, member.Token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Um cliente anônimo não enxerga nem encerra a sessão de outro navegador.
func TestSessionIsScopedToBrowser(t *testing.T) {
	srv := newServer(t)
	alice := browser(t)
	register(t, alice, srv.URL, "a@x.com", "0700000001")
	resp := do(t, alice, http.MethodPost, srv.URL+"/v1/login", `{"identifier":"a@x.com","password":"pw","persist":true}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stranger := browser(t)
	resp = do(t, stranger, http.MethodGet, srv.URL+"/v1/session", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[user.CurrentSessionResponse](t, resp).User)

	resp = do(t, stranger, http.MethodPost, srv.URL+"/v1/logout", "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, alice, http.MethodGet, srv.URL+"/v1/session", "", "")
	current := decode[user.CurrentSessionResponse](t, resp)
	require.NotNil(t, current.User)
	assert.Equal(t, "a@x.com", current.User.Email)
	assert.Equal(t, domain.PersistenceLongLived, current.Persistence)

	// Requisição sem cookie algum também cai num contexto novo.
	resp = do(t, http.DefaultClient, http.MethodGet, srv.URL+"/v1/session", "", "")
	assert.Nil(t, decode[user.CurrentSessionResponse](t, resp).User)
}

// PUT /v1/profile ignora acumuladores de avaliação do corpo e devolve o registro gravado.
func TestUpdateProfileKeepsStoredRatings(t *testing.T) {
	srv := newServer(t)
	alice := browser(t)
	a := register(t, alice, srv.URL, "a@x.com", "0700000001")

	rater := browser(t)
	b := register(t, rater, srv.URL, "b@x.com", "0700000002")
	resp := do(t, rater, http.MethodPost, srv.URL+"/v1/ratings", `{"email":"a@x.com","rating":5}`, b.Token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, alice, http.MethodPut, srv.URL+"/v1/profile",
		`{"name":"Alice A.","email":"a@x.com","ratingSum":500,"ratingCount":100}`, a.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[domain.PublicProfile](t, resp)
	assert.Equal(t, "Alice A.", got.Name)
	assert.Equal(t, "0700000001", got.Phone)
	assert.Equal(t, 5, got.RatingSum)
	assert.Equal(t, 1, got.RatingCount)

	resp = do(t, alice, http.MethodGet, srv.URL+"/v1/session", "", "")
	current := decode[user.CurrentSessionResponse](t, resp)
	require.NotNil(t, current.User)
	assert.Equal(t, got, *current.User)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t)
	do(t, browser(t), http.MethodPost, srv.URL+"/v1/login/guest", "", "")

	resp := do(t, http.DefaultClient, http.MethodGet, srv.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSwaggerDocument(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.DefaultClient, http.MethodGet, srv.URL+"/swagger/doc.json", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
