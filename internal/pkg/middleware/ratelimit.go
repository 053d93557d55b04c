package middleware

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"sokofresh/internal/pkg/cache"
	"sokofresh/internal/pkg/logger"
)

// RateLimiter aplica uma janela fixa por IP: a primeira requisição cria o contador
// com o TTL da janela, as seguintes incrementam até o limite.
func RateLimiter(client cache.Client, limit int, window time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip
			ctx := r.Context()

			count, err := client.GetInt(ctx, key)
			if errors.Is(err, cache.ErrCacheMiss) {
				if err := client.Set(ctx, key, 1, window); err != nil {
					log.Error("Falha ao iniciar contador do rate limiter.", err)
				}
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-1))
				next.ServeHTTP(w, r)
				return
			} else if err != nil {
				log.Error("Falha ao consultar o rate limiter.", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if count >= limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			if _, err := client.Incr(ctx, key); err != nil {
				log.Error("Falha ao incrementar o rate limiter.", err)
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-count-1))
			next.ServeHTTP(w, r)
		})
	}
}
