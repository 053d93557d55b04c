package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "SokoFresh-API"

	// Tolerância de relógio entre quem emite e quem valida.
	clockSkew = 30 * time.Second
)

var (
	ErrEmptySecret     = errors.New("chave de assinatura vazia")
	ErrIncompleteGrant = errors.New("grant sem e-mail, papel ou sessão")
	ErrMissingClaims   = errors.New("token sem e-mail, papel ou sessão")
)

// Grant descreve a sessão para a qual o token é emitido.
// SessionID é o identificador do contexto de navegação (cookie de sessão).
type Grant struct {
	Email     string
	Role      string
	SessionID string
}

// SessionClaims é o corpo do JWT. O e-mail é a chave natural do usuário;
// o ID do registro nunca sai do serviço.
type SessionClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Grant devolve a sessão descrita pelas claims.
func (c *SessionClaims) Grant() Grant {
	return Grant{Email: c.Email, Role: c.Role, SessionID: c.SessionID}
}

// Signer emite e confere tokens HS256 de uma sessão.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewSigner cria o emissor. O segredo só é exigido aqui, no momento do uso.
func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	s := &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// Issue assina um token para a sessão informada.
func (s *Signer) Issue(g Grant) (string, error) {
	// 1. Conferir o grant
	if g.Email == "" || g.Role == "" || g.SessionID == "" {
		return "", ErrIncompleteGrant
	}

	// 2. Montar as claims (jti único por emissão)
	now := s.now()
	claims := SessionClaims{
		Email:     g.Email,
		Role:      g.Role,
		SessionID: g.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   g.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	// 3. Assinar
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("falha ao assinar o token: %w", err)
	}
	return signed, nil
}

// Verify confere assinatura, emissor e validade e devolve as claims.
// Erros de validade continuam comparáveis com errors.Is (jwt.ErrTokenExpired etc.).
func (s *Signer) Verify(raw string) (*SessionClaims, error) {
	// 1. Assinatura, algoritmo e datas
	claims := &SessionClaims{}
	if _, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("token inválido: %w", err)
	}

	// 2. Campos da sessão
	if claims.Email == "" || claims.Role == "" || claims.SessionID == "" {
		return nil, ErrMissingClaims
	}
	return claims, nil
}
