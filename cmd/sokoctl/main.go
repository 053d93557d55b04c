// Command sokoctl administra o conjunto durável de usuários do SokoFresh
// (semente inicial, listagem e avaliações) direto no armazenamento configurado.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"sokofresh/config"
	"sokofresh/internal/bootstrap"
	"sokofresh/internal/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Usando apenas o ambiente do sistema.")
	}

	open := func(ctx context.Context) (AdminService, func() error, error) {
		cfg := config.LoadConfig()
		appLog := logger.NewLogger(cfg.LogLevel)
		stores, err := bootstrap.OpenStores(ctx, cfg, appLog)
		if err != nil {
			return nil, nil, err
		}
		return bootstrap.NewUserService(cfg, stores, nil, appLog), stores.Close, nil
	}

	if err := newRootCmd(open, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
