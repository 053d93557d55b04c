// Package metrics expõe os contadores Prometheus do serviço de sessão e credenciais.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registra os eventos de login, registro, avaliação e atualização de perfil.
// Implementa userservice.Recorder.
type Collector struct {
	logins         *prometheus.CounterVec
	registrations  *prometheus.CounterVec
	ratings        *prometheus.CounterVec
	profileUpdates *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
}

// NewCollector cria o Collector e registra as métricas no Registerer informado.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sokofresh_login_attempts_total",
			Help: "Tentativas de login por método e resultado",
		}, []string{"method", "result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sokofresh_registrations_total",
			Help: "Registros de usuário por resultado",
		}, []string{"result"}),
		ratings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sokofresh_ratings_total",
			Help: "Avaliações de usuário por resultado",
		}, []string{"result"}),
		profileUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sokofresh_profile_updates_total",
			Help: "Atualizações de perfil por resultado",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sokofresh_http_requests_total",
			Help: "Requisições HTTP por código de status",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sokofresh_http_request_duration_seconds",
			Help:    "Latência das requisições HTTP (segundos)",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.registrations,
		c.ratings,
		c.profileUpdates,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (c *Collector) LoginAttempt(method string, success bool) {
	c.logins.WithLabelValues(method, result(success)).Inc()
}

func (c *Collector) Registration(success bool) {
	c.registrations.WithLabelValues(result(success)).Inc()
}

func (c *Collector) Rating(success bool) {
	c.ratings.WithLabelValues(result(success)).Inc()
}

func (c *Collector) ProfileUpdate(success bool) {
	c.profileUpdates.WithLabelValues(result(success)).Inc()
}

// RecordHTTPRequest registra o status e a duração de uma requisição.
func (c *Collector) RecordHTTPRequest(statusCode int, d time.Duration) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(d.Seconds())
}

// Middleware mede cada requisição servida pelo handler seguinte.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		c.RecordHTTPRequest(rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush repassa para o writer original (necessário para o stream de eventos).
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Handler devolve o handler de scrape do Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
