package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName é o cookie que identifica o contexto de navegação.
const SessionCookieName = "soko_sid"

// CookieOptions controla o cookie emitido por ClientSession.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration // 0 = cookie de sessão do navegador
}

// ClientSession garante que toda requisição pertença a um contexto de navegação.
// Sem cookie (ou com valor que não é UUID) um novo ID é gerado e devolvido em Set-Cookie.
func ClientSession(opts CookieOptions) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Reaproveitar o cookie enviado
			if c, err := r.Cookie(SessionCookieName); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id.String())))
					return
				}
			}

			// 2. Emitir um novo
			id := uuid.NewString()
			cookie := &http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if opts.MaxAge > 0 {
				cookie.MaxAge = int(opts.MaxAge.Seconds())
			}
			http.SetCookie(w, cookie)

			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
		})
	}
}

// WithClientID anexa o contexto de navegação ao contexto da requisição.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDKey, clientID)
}

// GetClientIDFromContext extrai o contexto de navegação anexado por ClientSession.
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ClientIDKey).(string)
	return id, ok && id != ""
}
