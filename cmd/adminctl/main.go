package main

import (
	"context"
	"fmt"
	"os"

	"go-dropship-admin/internal/app"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/service"
	"go-dropship-admin/pkg/config"
	"go-dropship-admin/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "adminctl",
		Short:        "Operator tooling for the dropship admin backend",
		SilenceUsage: true,
	}
	root.AddCommand(resetPasswordCmd(), issueTokenCmd(), setPermissionCmd())

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

func resetPasswordCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset the password of a principal account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Auth.ResetPassword(cmd.Context(), email, password); err != nil {
				return err
			}
			a.Log.Infof("Password for %s has been reset", email)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&email, "email", service.DefaultAdminAccount.Email, "account email")
	fs.StringVar(&password, "password", "", "new password (8-72 characters)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func issueTokenCmd() *cobra.Command {
	var (
		id   uint
		role string
	)
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Sign a bearer token for an existing principal or staff member",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Auth.IssueToken(cmd.Context(), id, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.UintVar(&id, "id", 0, "principal or staff id")
	fs.StringVar(&role, "role", string(model.RoleAdmin), "admin, supplier, dropshipper or a staff role")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func setPermissionCmd() *cobra.Command {
	var (
		panel, module, action string
		enabled               bool
		operatorID            uint
	)
	cmd := &cobra.Command{
		Use:   "set-permission",
		Short: "Switch a (panel, module, action) permission on or off platform-wide",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := model.ParsePanel(panel)
			if !ok {
				return fmt.Errorf("unknown panel %q", panel)
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			perm, err := a.PermRepo.FindByKey(cmd.Context(), p, module, action)
			if err != nil {
				return fmt.Errorf("permission %s/%s/%s: %w", p, module, action, err)
			}

			operator, err := a.Resolver.Resolve(cmd.Context(), int64(operatorID), string(model.RoleAdmin))
			if err != nil {
				return err
			}
			if _, err := a.Policy.SetPermissionStatus(cmd.Context(), operator, model.PanelAdmin, perm.ID, enabled); err != nil {
				return err
			}
			a.Log.Infof("%s/%s/%s status set to %t", p, module, action, enabled)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&panel, "panel", string(model.PanelAdmin), "Admin, Supplier or Dropshipper")
	fs.StringVar(&module, "module", "", "permission module, e.g. Brand")
	fs.StringVar(&action, "action", "", "permission action, e.g. \"Soft Delete\"")
	fs.BoolVar(&enabled, "enabled", true, "new status")
	fs.UintVar(&operatorID, "operator-id", 1, "admin principal recorded as the actor")
	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}
