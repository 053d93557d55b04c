package middleware

import (
	"context"
	"net/http"
	"strings"

	"sokofresh/internal/domain"
	apperror "sokofresh/internal/errors"
	"sokofresh/internal/pkg/token"
)

// ContextKey é o tipo das chaves de contexto deste pacote (não exportado por valor).
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
	ClientIDKey
)

// UserClaims representa os dados da sessão extraídos do token JWT,
// que serão anexados ao contexto.
type UserClaims struct {
	Email     string
	Role      domain.UserRole
	SessionID string
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	Verify(raw string) (*token.SessionClaims, error)
}

// NewAuthMiddleware cria um middleware que valida o JWT e anexa as claims
// (Email, Role e SessionID) ao contexto da requisição.
// Se a requisição já traz um cliente (ClientSession), o token precisa ter sido emitido para ele.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extrair o Token do Header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || tokenString == "" {
				http.Error(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado.").Error(), http.StatusUnauthorized)
				return
			}

			// 2. Validar o Token
			claims, err := tokenSvc.Verify(tokenString)
			if err != nil {
				http.Error(w, apperror.NewUnauthorizedError("Token inválido ou expirado.").Error(), http.StatusUnauthorized)
				return
			}

			// 3. Conferir o contexto de navegação
			if clientID, ok := GetClientIDFromContext(r.Context()); ok && clientID != claims.SessionID {
				http.Error(w, apperror.NewUnauthorizedError("Token emitido para outra sessão de navegação.").Error(), http.StatusUnauthorized)
				return
			}

			// 4. Anexar Claims ao Contexto
			ctx := WithUserClaims(r.Context(), UserClaims{
				Email:     claims.Email,
				Role:      domain.UserRole(claims.Role),
				SessionID: claims.SessionID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserClaims anexa as claims ao contexto.
func WithUserClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// PermissionMiddleware libera o acesso apenas às roles informadas.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Tentar extrair as Claims do contexto
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado.").Error(), http.StatusUnauthorized)
				return
			}

			// 2. Verificar Permissão (AuthZ)
			for _, requiredRole := range requiredRoles {
				if claims.Role == requiredRole {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, apperror.NewUnauthorizedError("Acesso negado. Você não tem a permissão necessária.").Error(), http.StatusForbidden)
		})
	}
}
