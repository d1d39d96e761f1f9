package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	admindomain "portfolio-cms/backend/internal/admin/domain"
	adminrepo "portfolio-cms/backend/internal/admin/repository"
	"portfolio-cms/backend/internal/security"
)

type env struct {
	repo   adminrepo.Repository
	hasher *security.Hasher
}

type opener func(ctx context.Context) (*env, func(), error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Portfolio admin credential recovery",
		Long:          "Inspect and repair the admin credential directly in the database, e.g. after losing the authenticator device.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the admin mobile and whether 2FA is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, open, func(ctx context.Context, e *env) error {
				cred, err := load(ctx, e)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "mobile:      %s\n2fa_enabled: %t\nupdated_at:  %s\n",
					cred.Mobile, cred.MFAEnabled(), cred.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
				return nil
			})
		},
	}

	var password string
	setPasswordCmd := &cobra.Command{
		Use:   "set-password",
		Short: "Replace the admin password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := security.ValidatePassword(password); err != nil {
				return err
			}
			return withEnv(cmd, open, func(ctx context.Context, e *env) error {
				if _, err := load(ctx, e); err != nil {
					return err
				}
				hash, err := e.hasher.Hash([]byte(password))
				if err != nil {
					return err
				}
				if err := e.repo.SetPassword(ctx, hash); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "admin password updated")
				return nil
			})
		},
	}
	setPasswordCmd.Flags().StringVarP(&password, "password", "p", "", "New password (8-72 characters)")
	_ = setPasswordCmd.MarkFlagRequired("password")

	disableMFACmd := &cobra.Command{
		Use:   "disable-mfa",
		Short: "Remove the enrolled TOTP secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, open, func(ctx context.Context, e *env) error {
				cred, err := load(ctx, e)
				if err != nil {
					return err
				}
				if !cred.MFAEnabled() {
					fmt.Fprintln(cmd.OutOrStdout(), "2fa already disabled")
					return nil
				}
				if err := e.repo.SetMFASecret(ctx, ""); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "2fa disabled")
				return nil
			})
		},
	}

	root.AddCommand(showCmd, setPasswordCmd, disableMFACmd)
	return root
}

func withEnv(cmd *cobra.Command, open opener, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, e)
}

func load(ctx context.Context, e *env) (*admindomain.Credential, error) {
	cred, err := e.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, errors.New("admin credential not initialized; start the server once to create it")
	}
	return cred, nil
}
