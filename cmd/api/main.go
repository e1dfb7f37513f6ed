package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-dropship-admin/internal/app"
	"go-dropship-admin/internal/service"
	"go-dropship-admin/pkg/config"
	"go-dropship-admin/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "api",
		Short:        "Dropship admin backend",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithLevel(cfg.LogLevel)
	logger.SetDefault(log)
	return app.New(ctx, cfg, log)
}

func serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !skipMigrate {
				// AutoMigrate on start keeps dev setups simple; run `api migrate` in production.
				if err := a.Migrate(); err != nil {
					return err
				}
				if err := a.Seed.Seed(ctx, service.DefaultAdminAccount); err != nil {
					a.Log.Error(err, "Seeding failed")
				}
			}

			go a.Hub.Run()

			server := a.Fiber()
			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Listen(":" + a.Config.Port)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.Log.Info("Shutting down server...")
			if err := server.Shutdown(); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			a.Log.Info("Server exited")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not auto-migrate and seed on start")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Migrate(); err != nil {
				return err
			}
			a.Log.Info("Migration complete")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	account := service.DefaultAdminAccount
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the default permission catalogue and the bootstrap admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Seed.Seed(cmd.Context(), account)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&account.Email, "admin-email", account.Email, "email of the bootstrap admin")
	fs.StringVar(&account.Password, "admin-password", account.Password, "password of the bootstrap admin")
	fs.StringVar(&account.Name, "admin-name", account.Name, "display name of the bootstrap admin")
	return cmd
}
