package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sokofresh/internal/api/user"
	"sokofresh/internal/domain"
	apperror "sokofresh/internal/errors"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/pkg/middleware"
	"sokofresh/internal/pkg/token"
)

// MockUserService é uma implementação mock da interface user.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Login(ctx context.Context, identifier, password string, persist bool) (domain.PublicProfile, error) {
	args := m.Called(ctx, identifier, password, persist)
	return args.Get(0).(domain.PublicProfile), args.Error(1)
}

func (m *MockUserService) LoginWithExternalIdentity(ctx context.Context) (domain.PublicProfile, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.PublicProfile), args.Error(1)
}

func (m *MockUserService) LoginAsGuest(ctx context.Context) (domain.PublicProfile, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.PublicProfile), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, registration domain.Registration) (domain.PublicProfile, error) {
	args := m.Called(ctx, registration)
	return args.Get(0).(domain.PublicProfile), args.Error(1)
}

func (m *MockUserService) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUserService) GetCurrentSession(ctx context.Context) (*domain.PublicProfile, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*domain.PublicProfile)
	return p, args.Error(1)
}

func (m *MockUserService) EditProfile(ctx context.Context, email string, changes domain.ProfileChanges) (domain.PublicProfile, error) {
	args := m.Called(ctx, email, changes)
	return args.Get(0).(domain.PublicProfile), args.Error(1)
}

func (m *MockUserService) RateUser(ctx context.Context, email string, rating int) error {
	return m.Called(ctx, email, rating).Error(0)
}

func (m *MockUserService) Subscribe(listener func(*domain.PublicProfile)) func() {
	args := m.Called(listener)
	return args.Get(0).(func())
}

func (m *MockUserService) CurrentMode() domain.PersistenceMode {
	return m.Called().Get(0).(domain.PersistenceMode)
}

type stubTokens struct{ err error }

func (s stubTokens) Issue(g token.Grant) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "tok:" + g.Email + ":" + g.Role + ":" + g.SessionID, nil
}

const clientID = "client-1"

// provide entrega o mesmo mock para qualquer cliente e guarda quais foram pedidos.
func provide(svc *MockUserService, asked *[]string) user.ProviderFunc {
	return func(_ context.Context, id string) (user.UserService, error) {
		if asked != nil {
			*asked = append(*asked, id)
		}
		return svc, nil
	}
}

func newHandler(svc *MockUserService) *user.Handler {
	return user.NewHandler(provide(svc, nil), stubTokens{}, logger.NewNop())
}

// request monta a requisição como se já tivesse passado por middleware.ClientSession.
func request(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(middleware.WithClientID(r.Context(), clientID))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) domain.ErrorResponse {
	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

var alice = domain.PublicProfile{Name: "Alice", Email: "a@x.com", Phone: "0700000001", County: "Kisumu"}

func TestRegisterHandler_Success(t *testing.T) {
	svc := new(MockUserService)
	reg := domain.Registration{Name: "Alice", Email: "a@x.com", Phone: "0700000001", Password: "pw"}
	svc.On("Register", mock.Anything, reg).Return(alice, nil)
	svc.On("CurrentMode").Return(domain.PersistenceShortLived)

	payload, _ := json.Marshal(reg)
	rr := httptest.NewRecorder()
	newHandler(svc).RegisterHandler(rr, request(http.MethodPost, "/v1/register", bytes.NewReader(payload)))

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp user.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, alice, resp.User)
	assert.Equal(t, "tok:a@x.com:member:"+clientID, resp.Token)
	assert.Equal(t, domain.PersistenceShortLived, resp.Persistence)
	assert.NotContains(t, rr.Body.String(), "passwordHash")
	svc.AssertExpectations(t)
}

func TestRegisterHandler_Conflict(t *testing.T) {
	svc := new(MockUserService)
	svc.On("Register", mock.Anything, mock.Anything).Return(domain.PublicProfile{}, apperror.NewEmailInUseError("a@x.com"))

	rr := httptest.NewRecorder()
	newHandler(svc).RegisterHandler(rr, request(http.MethodPost, "/v1/register", strings.NewReader(`{"email":"a@x.com"}`)))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apperror.CodeEmailInUse, decodeError(t, rr).Reason)
}

func TestRegisterHandler_BadJSON(t *testing.T) {
	svc := new(MockUserService)

	rr := httptest.NewRecorder()
	newHandler(svc).RegisterHandler(rr, request(http.MethodPost, "/v1/register", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	svc := new(MockUserService)
	svc.On("Login", mock.Anything, "a@x.com", "wrong", true).Return(domain.PublicProfile{}, apperror.NewInvalidCredentialsError())

	rr := httptest.NewRecorder()
	body := `{"identifier":"a@x.com","password":"wrong","persist":true}`
	newHandler(svc).LoginHandler(rr, request(http.MethodPost, "/v1/login", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apperror.CodeInvalidCredentials, decodeError(t, rr).Reason)
}

func TestLoginHandler_TokenFailure(t *testing.T) {
	svc := new(MockUserService)
	svc.On("Login", mock.Anything, "a@x.com", "pw", false).Return(alice, nil)

	h := user.NewHandler(provide(svc, nil), stubTokens{err: errors.New("boom")}, logger.NewNop())
	rr := httptest.NewRecorder()
	h.LoginHandler(rr, request(http.MethodPost, "/v1/login", strings.NewReader(`{"identifier":"a@x.com","password":"pw"}`)))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGuestLoginHandler_IssuesGuestRole(t *testing.T) {
	svc := new(MockUserService)
	svc.On("LoginAsGuest", mock.Anything).Return(domain.GuestProfile(), nil)
	svc.On("CurrentMode").Return(domain.PersistenceShortLived)

	rr := httptest.NewRecorder()
	newHandler(svc).GuestLoginHandler(rr, request(http.MethodPost, "/v1/login/guest", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp user.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "tok:"+domain.GuestEmail+":guest:"+clientID, resp.Token)
}

func TestCurrentSessionHandler_NoSession(t *testing.T) {
	svc := new(MockUserService)
	svc.On("GetCurrentSession", mock.Anything).Return(nil, nil)
	svc.On("CurrentMode").Return(domain.PersistenceNone)

	rr := httptest.NewRecorder()
	newHandler(svc).CurrentSessionHandler(rr, request(http.MethodGet, "/v1/session", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user":null,"persistence":"none"}`, rr.Body.String())
}

func TestLogoutHandler(t *testing.T) {
	svc := new(MockUserService)
	svc.On("Logout", mock.Anything).Return(nil)

	rr := httptest.NewRecorder()
	newHandler(svc).LogoutHandler(rr, request(http.MethodPost, "/v1/logout", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	svc.AssertExpectations(t)
}

func withClaims(r *http.Request, email string) *http.Request {
	return r.WithContext(middleware.WithUserClaims(r.Context(), middleware.UserClaims{Email: email, Role: domain.RoleMember, SessionID: clientID}))
}

func TestUpdateProfileHandler_ReturnsStoredProjection(t *testing.T) {
	svc := new(MockUserService)
	stored := alice
	stored.County = "Nakuru"
	stored.RatingSum, stored.RatingCount = 8, 2
	svc.On("EditProfile", mock.Anything, "a@x.com", domain.ProfileChanges{Name: "Alice", County: "Nakuru"}).Return(stored, nil)

	req := withClaims(request(http.MethodPut, "/v1/profile", strings.NewReader(`{"name":"Alice","county":"Nakuru"}`)), "a@x.com")
	rr := httptest.NewRecorder()
	newHandler(svc).UpdateProfileHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.PublicProfile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, stored, got)
	svc.AssertExpectations(t)
}

// Acumuladores de avaliação e e-mail no corpo são ignorados: o registro vem do token
// e as notas ficam como estão gravadas.
func TestUpdateProfileHandler_IgnoresRatingsAndEmailFromBody(t *testing.T) {
	svc := new(MockUserService)
	svc.On("EditProfile", mock.Anything, "a@x.com", domain.ProfileChanges{Name: "Alice"}).Return(alice, nil)

	body := `{"name":"Alice","email":"b@x.com","ratingSum":500,"ratingCount":100}`
	req := withClaims(request(http.MethodPut, "/v1/profile", strings.NewReader(body)), "a@x.com")
	rr := httptest.NewRecorder()
	newHandler(svc).UpdateProfileHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.PublicProfile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Zero(t, got.RatingSum)
	assert.Zero(t, got.RatingCount)
	assert.Equal(t, "a@x.com", got.Email)
	svc.AssertExpectations(t)
}

func TestUpdateProfileHandler_WithoutClaims(t *testing.T) {
	svc := new(MockUserService)

	rr := httptest.NewRecorder()
	newHandler(svc).UpdateProfileHandler(rr, request(http.MethodPut, "/v1/profile", strings.NewReader(`{"name":"X"}`)))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "EditProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfileHandler_NotFound(t *testing.T) {
	svc := new(MockUserService)
	svc.On("EditProfile", mock.Anything, "a@x.com", mock.Anything).Return(domain.PublicProfile{}, apperror.NewUserNotFoundError("a@x.com"))

	req := withClaims(request(http.MethodPut, "/v1/profile", strings.NewReader(`{"name":"Alice"}`)), "a@x.com")
	rr := httptest.NewRecorder()
	newHandler(svc).UpdateProfileHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apperror.CodeUserNotFound, decodeError(t, rr).Reason)
}

func TestHandler_ResolvesServiceFromClient(t *testing.T) {
	svc := new(MockUserService)
	svc.On("Logout", mock.Anything).Return(nil)
	var asked []string
	h := user.NewHandler(provide(svc, &asked), stubTokens{}, logger.NewNop())

	rr := httptest.NewRecorder()
	h.LogoutHandler(rr, request(http.MethodPost, "/v1/logout", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{clientID}, asked)

	// Sem contexto de navegação não há sessão para encerrar.
	rr = httptest.NewRecorder()
	h.LogoutHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNumberOfCalls(t, "Logout", 1)
}

func TestRateUserHandler(t *testing.T) {
	svc := new(MockUserService)
	svc.On("RateUser", mock.Anything, "mary@x.com", 5).Return(nil)
	svc.On("RateUser", mock.Anything, "mary@x.com", 9).Return(apperror.NewValidationError("A avaliação deve estar entre 1 e 5."))

	rr := httptest.NewRecorder()
	newHandler(svc).RateUserHandler(rr, request(http.MethodPost, "/v1/ratings", strings.NewReader(`{"email":"mary@x.com","rating":5}`)))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	newHandler(svc).RateUserHandler(rr, request(http.MethodPost, "/v1/ratings", strings.NewReader(`{"email":"mary@x.com","rating":9}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionEventsHandler_StreamsChanges(t *testing.T) {
	svc := new(MockUserService)
	registered := make(chan func(*domain.PublicProfile), 1)
	unsubscribed := make(chan struct{})
	svc.On("Subscribe", mock.Anything).Run(func(args mock.Arguments) {
		registered <- args.Get(0).(func(*domain.PublicProfile))
	}).Return(func() { close(unsubscribed) })
	svc.On("GetCurrentSession", mock.Anything).Return(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/session/events", nil).WithContext(middleware.WithClientID(ctx, clientID))
	rr := httptest.NewRecorder()
	h := newHandler(svc)
	h.KeepAlive = time.Hour

	done := make(chan struct{})
	go func() {
		h.SessionEventsHandler(rr, req)
		close(done)
	}()

	listener := <-registered
	guest := domain.GuestProfile()
	listener(&guest)
	listener(nil)

	// Espera os eventos chegarem antes de desconectar.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	<-unsubscribed

	body := rr.Body.String()
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, 3, strings.Count(body, "event: session\n"))
	assert.True(t, strings.HasPrefix(body, "event: session\ndata: null\n\n"))
	assert.Contains(t, body, `"email":"`+domain.GuestEmail+`"`)
	assert.True(t, strings.HasSuffix(body, "data: null\n\n"))
}
