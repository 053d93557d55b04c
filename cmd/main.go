package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"sokofresh/config"
	"sokofresh/internal/api/router"
	"sokofresh/internal/api/user"
	"sokofresh/internal/bootstrap"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/pkg/metrics"
	"sokofresh/internal/pkg/middleware"
	"sokofresh/internal/pkg/token"
)

// @title SokoFresh Session API
// @version 1.0
// @description Sessão e credenciais do marketplace SokoFresh.
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	log.Println("⚡ Inicializando serviço SokoFresh...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger
	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "storage": cfg.StorageDriver})

	// 2. Conexão com Recursos de Infraestrutura
	ctx := context.Background()
	stores, err := bootstrap.OpenStores(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Falha ao abrir o armazenamento.", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			appLog.Error("Falha ao fechar conexões.", err)
		}
	}()

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Semeia o conjunto uma vez; cada navegador ganha o seu serviço no Registry.
	if err := bootstrap.NewUserService(cfg, stores, collector, appLog).Initialize(ctx); err != nil {
		appLog.Fatal("Falha ao inicializar o conjunto de usuários.", err)
	}
	sessions := bootstrap.NewRegistry(cfg, stores, collector, appLog)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx, time.Minute)
	appLog.Debug("Serviço de Sessão inicializado.", nil)

	// O segredo do JWT só é exigido aqui; o sokoctl não assina tokens.
	tokenSvc, err := token.NewSigner(cfg.JWTSecretKey, cfg.TokenExpiry)
	if err != nil {
		appLog.Fatal("❌ JWT_SECRET_KEY deve ser definida.", err)
	}
	userHandler := user.NewHandler(bootstrap.SessionProvider(sessions), tokenSvc, appLog)

	// 4. Roteador e Servidor
	r := router.NewRouter(router.Deps{
		UserHandler:     userHandler,
		Tokens:          tokenSvc,
		Logger:          appLog,
		Cookie:          middleware.CookieOptions{Secure: cfg.CookieSecure, MaxAge: cfg.CookieMaxAge},
		RateLimitClient: stores.Cache,
		RateLimit:       cfg.RateLimitMaxRequests,
		RateWindow:      cfg.RateLimitPeriod,
		Metrics:         collector,
		Gatherer:        registry,
	})
	if stores.Cache == nil {
		appLog.Warn("Rate limiter desligado (REDIS_ADDR vazio).", nil)
	}

	// Sem WriteTimeout: o stream de eventos (SSE) fica aberto.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("🚀 Servidor SokoFresh ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
