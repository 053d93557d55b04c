package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sokofresh/internal/domain"
)

// AdminService é o subconjunto do serviço de sessão usado pelo CLI.
type AdminService interface {
	Initialize(ctx context.Context) error
	ListUsers(ctx context.Context) ([]domain.PublicProfile, error)
	RateUser(ctx context.Context, email string, rating int) error
}

// Opener abre o serviço e devolve a função que fecha o armazenamento.
type Opener func(ctx context.Context) (AdminService, func() error, error)

func newRootCmd(open Opener, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "sokoctl",
		Short:         "Administração do conjunto de usuários do SokoFresh",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(
		newInitCmd(open),
		newUsersCmd(open),
		newRateCmd(open),
	)
	return root
}

// withService abre o serviço, garante a inicialização e fecha ao final.
func withService(cmd *cobra.Command, open Opener, fn func(ctx context.Context, svc AdminService) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	return fn(ctx, svc)
}

func newInitCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Aplica as migrações e cria as contas padrão se o conjunto estiver vazio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc AdminService) error {
				users, err := svc.ListUsers(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("✅ Conjunto pronto: %d usuário(s).\n", len(users))
				return nil
			})
		},
	}
}

func newUsersCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "Lista os usuários (projeção pública)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc AdminService) error {
				users, err := svc.ListUsers(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "EMAIL\tNAME\tPHONE\tCOUNTY\tRATING")
				for _, u := range users {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f (%d)\n", u.Email, u.Name, u.Phone, u.County, u.AverageRating(), u.RatingCount)
				}
				return tw.Flush()
			})
		},
	}
}

func newRateCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <email> <1-5>",
		Short: "Registra uma avaliação para o usuário",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("avaliação inválida %q: %w", args[1], err)
			}
			return withService(cmd, open, func(ctx context.Context, svc AdminService) error {
				if err := svc.RateUser(ctx, args[0], rating); err != nil {
					return err
				}
				cmd.Printf("⭐ Avaliação %d registrada para %s.\n", rating, args[0])
				return nil
			})
		},
	}
}
