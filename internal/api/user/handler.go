package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sokofresh/internal/domain"
	apperror "sokofresh/internal/errors"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/pkg/middleware"
	"sokofresh/internal/pkg/token"
)

// UserService define o contrato das operações de sessão e credenciais usadas pelo handler.
type UserService interface {
	Login(ctx context.Context, identifier, password string, persist bool) (domain.PublicProfile, error)
	LoginWithExternalIdentity(ctx context.Context) (domain.PublicProfile, error)
	LoginAsGuest(ctx context.Context) (domain.PublicProfile, error)
	Register(ctx context.Context, registration domain.Registration) (domain.PublicProfile, error)
	Logout(ctx context.Context) error
	GetCurrentSession(ctx context.Context) (*domain.PublicProfile, error)
	EditProfile(ctx context.Context, email string, changes domain.ProfileChanges) (domain.PublicProfile, error)
	RateUser(ctx context.Context, email string, rating int) error
	Subscribe(listener func(*domain.PublicProfile)) func()
	CurrentMode() domain.PersistenceMode
}

// SessionProvider entrega o serviço do contexto de navegação da requisição.
type SessionProvider interface {
	ForClient(ctx context.Context, clientID string) (UserService, error)
}

// ProviderFunc adapta uma função a SessionProvider.
type ProviderFunc func(ctx context.Context, clientID string) (UserService, error)

func (f ProviderFunc) ForClient(ctx context.Context, clientID string) (UserService, error) {
	return f(ctx, clientID)
}

// TokenIssuer emite o token de acesso de uma sessão.
type TokenIssuer interface {
	Issue(grant token.Grant) (string, error)
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Identifier string `json:"identifier" example:"a@x.com"` // e-mail ou telefone
	Password   string `json:"password"`
	Persist    bool   `json:"persist"` // true = sessão sobrevive a reinícios
}

// RatingRequest representa o payload de uma avaliação.
type RatingRequest struct {
	Email  string `json:"email" example:"mary.wanjiku@sokofresh.dev"`
	Rating int    `json:"rating" example:"5"`
}

// SessionResponse é devolvida por todas as operações que abrem uma sessão.
type SessionResponse struct {
	User        domain.PublicProfile   `json:"user"`
	Token       string                 `json:"token"`
	Persistence domain.PersistenceMode `json:"persistence"`
}

// ProfileUpdateRequest são os campos que o usuário edita no próprio perfil.
// O registro vem do token; avaliações não são aceitas aqui.
type ProfileUpdateRequest struct {
	Name      string `json:"name" example:"Mary Wanjiku"`
	Phone     string `json:"phone" example:"0712 345 678"`
	County    string `json:"county" example:"Kiambu"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// CurrentSessionResponse descreve a sessão atual; User nulo = sem sessão.
type CurrentSessionResponse struct {
	User        *domain.PublicProfile  `json:"user"`
	Persistence domain.PersistenceMode `json:"persistence"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Sessions SessionProvider
	Tokens   TokenIssuer
	Logger   logger.Logger

	// Intervalo do comentário de keep-alive do stream de eventos.
	KeepAlive time.Duration
}

// NewHandler cria uma nova instância do Handler, injetando o provedor de sessões, o emissor de tokens e o Logger.
func NewHandler(sessions SessionProvider, tokens TokenIssuer, log logger.Logger) *Handler {
	return &Handler{
		Sessions:  sessions,
		Tokens:    tokens,
		Logger:    log,
		KeepAlive: 25 * time.Second,
	}
}

// service resolve o serviço do cliente da requisição. Em caso de falha a resposta já foi escrita.
func (h *Handler) service(w http.ResponseWriter, r *http.Request) (UserService, string, bool) {
	clientID, ok := middleware.GetClientIDFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, nil, apperror.NewUnauthorizedError("Contexto de navegação ausente."), http.StatusOK)
		return nil, "", false
	}
	svc, err := h.Sessions.ForClient(r.Context(), clientID)
	if err != nil {
		h.handleServiceResponse(w, nil, err, http.StatusOK)
		return nil, "", false
	}
	return svc, clientID, true
}

// handleServiceResponse padroniza o tratamento de erros e respostas HTTP.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if encErr := json.NewEncoder(w).Encode(data); encErr != nil {
				h.Logger.Error("Falha ao serializar resposta.", encErr)
			}
		}
		return
	}

	// Mapeamento de Erros de Negócio para Status HTTP
	status, category, message := apperror.MapToHTTPStatus(err)

	// Log apenas de erros graves
	if status >= 500 {
		h.Logger.Error("Erro interno no serviço de usuário:", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Reason:   apperror.CodeOf(err),
		Message:  message,
	})
}

// respondWithSession emite o token (preso ao contexto de navegação) e responde.
func (h *Handler) respondWithSession(w http.ResponseWriter, svc UserService, clientID string, profile domain.PublicProfile, status int) {
	signed, err := h.Tokens.Issue(token.Grant{Email: profile.Email, Role: string(profile.Role()), SessionID: clientID})
	if err != nil {
		h.handleServiceResponse(w, nil, apperror.NewInternalError("Falha ao emitir o token de acesso.", err), status)
		return
	}
	h.handleServiceResponse(w, SessionResponse{
		User:        profile,
		Token:       signed,
		Persistence: svc.CurrentMode(),
	}, nil, status)
}

// RegisterHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria o usuário (e-mail e telefone únicos), grava o hash da senha e abre uma sessão de curta duração.
// @Tags session
// @Accept json
// @Produce json
// @Param registration body domain.Registration true "Dados de registro"
// @Success 201 {object} SessionResponse "Usuário criado e logado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou campos obrigatórios ausentes"
// @Failure 409 {object} domain.ErrorResponse "EMAIL_IN_USE ou PHONE_IN_USE"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.handleServiceResponse(w, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}
	svc, clientID, ok := h.service(w, r)
	if !ok {
		return
	}

	profile, err := svc.Register(r.Context(), reg)
	if err != nil {
		h.handleServiceResponse(w, nil, err, http.StatusCreated)
		return
	}
	h.respondWithSession(w, svc, clientID, profile, http.StatusCreated)
}

// LoginHandler lida com a requisição POST /v1/login.
// @Summary Autentica por e-mail ou telefone
// @Description Confere a senha, abre a sessão no escopo escolhido (persist) e emite um JWT.
// @Tags session
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais"
// @Success 200 {object} SessionResponse "Sessão aberta"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "INVALID_CREDENTIALS"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}
	svc, clientID, ok := h.service(w, r)
	if !ok {
		return
	}

	profile, err := svc.Login(r.Context(), req.Identifier, req.Password, req.Persist)
	if err != nil {
		h.handleServiceResponse(w, nil, err, http.StatusOK)
		return
	}
	h.respondWithSession(w, svc, clientID, profile, http.StatusOK)
}

// ExternalLoginHandler lida com a requisição POST /v1/login/external.
// @Summary Login pela identidade externa (conta de demonstração)
// @Tags session
// @Produce json
// @Success 200 {object} SessionResponse "Sessão de longa duração aberta"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login/external [post]
func (h *Handler) ExternalLoginHandler(w http.ResponseWriter, r *http.Request) {
	svc, clientID, ok := h.service(w, r)
	if !ok {
		return
	}
	profile, err := svc.LoginWithExternalIdentity(r.Context())
	if err != nil {
		h.handleServiceResponse(w, nil, err, http.StatusOK)
		return
	}
	h.respondWithSession(w, svc, clientID, profile, http.StatusOK)
}

// GuestLoginHandler lida com a requisição POST /v1/login/guest.
// @Summary Entra como convidado
// @Tags session
// @Produce json
// @Success 200 {object} SessionResponse "Sessão de convidado aberta"
// @Router /login/guest [post]
func (h *Handler) GuestLoginHandler(w http.ResponseWriter, r *http.Request) {
	svc, clientID, ok := h.service(w, r)
	if !ok {
		return
	}
	profile, err := svc.LoginAsGuest(r.Context())
	if err != nil {
		h.handleServiceResponse(w, nil, err, http.StatusOK)
		return
	}
	h.respondWithSession(w, svc, clientID, profile, http.StatusOK)
}

// LogoutHandler lida com a requisição POST /v1/logout.
// @Summary Encerra a sessão do contexto de navegação (cookie soko_sid)
// @Tags session
// @Success 204 "Sessão encerrada"
// @Router /logout [post]
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	err := svc.Logout(r.Context())
	h.handleServiceResponse(w, nil, err, http.StatusNoContent)
}

// CurrentSessionHandler lida com a requisição GET /v1/session.
// @Summary Consulta a sessão atual
// @Description Lê a sessão gravada do contexto de navegação (longa duração primeiro). user nulo = sem sessão.
// @Tags session
// @Produce json
// @Success 200 {object} CurrentSessionResponse
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /session [get]
func (h *Handler) CurrentSessionHandler(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	profile, err := svc.GetCurrentSession(r.Context())
	if err != nil {
		h.handleServiceResponse(w, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, CurrentSessionResponse{User: profile, Persistence: svc.CurrentMode()}, nil, http.StatusOK)
}

// UpdateProfileHandler lida com a requisição PUT /v1/profile.
// @Summary Atualiza o perfil da sessão autenticada
// @Description O registro é o do token. Campos vazios ficam como estão; avaliações não mudam por aqui.
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body ProfileUpdateRequest true "Campos editáveis"
// @Success 200 {object} domain.PublicProfile "Perfil gravado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Sem sessão de convidado ativa"
// @Failure 404 {object} domain.ErrorResponse "USER_NOT_FOUND"
// @Failure 409 {object} domain.ErrorResponse "PHONE_IN_USE"
// @Router /profile [put]
func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	// 1. Quem está editando vem do token, nunca do corpo
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return
	}

	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}

	// 2. Aplicar e devolver o que ficou gravado
	profile, err := svc.EditProfile(r.Context(), claims.Email, domain.ProfileChanges{
		Name:      req.Name,
		Phone:     req.Phone,
		County:    req.County,
		AvatarURL: req.AvatarURL,
	})
	h.handleServiceResponse(w, profile, err, http.StatusOK)
}

// RateUserHandler lida com a requisição POST /v1/ratings.
// @Summary Avalia um agricultor
// @Tags profile
// @Accept json
// @Security BearerAuth
// @Param rating body RatingRequest true "E-mail do avaliado e nota (1 a 5)"
// @Success 204 "Avaliação registrada"
// @Failure 400 {object} domain.ErrorResponse "Nota fora do intervalo"
// @Failure 404 {object} domain.ErrorResponse "USER_NOT_FOUND"
// @Router /ratings [post]
func (h *Handler) RateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusNoContent)
		return
	}

	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	err := svc.RateUser(r.Context(), req.Email, req.Rating)
	h.handleServiceResponse(w, nil, err, http.StatusNoContent)
}

// SessionEventsHandler lida com a requisição GET /v1/session/events.
// @Summary Stream (SSE) das mudanças de sessão
// @Description Envia a sessão do contexto de navegação ao conectar e a cada mudança confirmada. data "null" = sem sessão.
// @Tags session
// @Produce text/event-stream
// @Success 200 {object} domain.PublicProfile
// @Router /session/events [get]
func (h *Handler) SessionEventsHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.handleServiceResponse(w, nil, apperror.NewInternalError("Streaming não suportado.", nil), http.StatusOK)
		return
	}
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}

	// 1. Registrar o observador antes de ler o estado inicial
	events := make(chan *domain.PublicProfile, 16)
	unsubscribe := svc.Subscribe(func(p *domain.PublicProfile) {
		select {
		case events <- p:
		default:
			h.Logger.Warn("Cliente de eventos lento; mudança descartada.", nil)
		}
	})
	defer unsubscribe()

	current, err := svc.GetCurrentSession(r.Context())
	if err != nil {
		h.handleServiceResponse(w, nil, err, http.StatusOK)
		return
	}

	// 2. Cabeçalhos do stream
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, current); err != nil {
		return
	}
	flusher.Flush()

	// 3. Repassar as mudanças até o cliente desconectar
	ticker := time.NewTicker(h.KeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case p := <-events:
			if err := writeEvent(w, p); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, p *domain.PublicProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: session\ndata: %s\n\n", data)
	return err
}
