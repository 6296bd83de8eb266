package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sangkips/billdesk/internal/app"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/spf13/cobra"
)

func addSessionCommands(root *cobra.Command) {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the billing API",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("BILLDESK_PASSWORD")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				state, err := a.Session.Login(ctx, username, password)
				if err != nil {
					return err
				}
				if state == entity.SessionPendingOTP {
					fmt.Fprintln(cmd.OutOrStdout(), "An OTP has been sent. Run `billdesk verify-otp <code>` to finish signing in.")
					return nil
				}
				printWhoami(cmd, a.Session.Snapshot())
				return nil
			})
		},
	}
	loginCmd.Flags().StringP("username", "u", "", "username")
	loginCmd.Flags().String("password", "", "password, defaults to $BILLDESK_PASSWORD")
	_ = loginCmd.MarkFlagRequired("username")

	verifyCmd := &cobra.Command{
		Use:   "verify-otp <code>",
		Short: "Complete an admin sign-in with the emailed OTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Session.VerifyOTP(ctx, args[0]); err != nil {
					return err
				}
				printWhoami(cmd, a.Session.Snapshot())
				return nil
			})
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Session.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				printWhoami(cmd, a.Session.Snapshot())
				return nil
			})
		},
	}

	root.AddCommand(loginCmd, verifyCmd, logoutCmd, whoamiCmd)
}

func printWhoami(cmd *cobra.Command, s entity.Session) {
	out := cmd.OutOrStdout()
	switch s.State() {
	case entity.SessionAuthenticated:
		name := "unknown user"
		if s.CurrentUser != nil {
			name = s.CurrentUser.DisplayName()
		}
		fmt.Fprintf(out, "Signed in as %s (%s)\n", name, s.Role())
	case entity.SessionPendingOTP:
		fmt.Fprintf(out, "Waiting for the OTP of %s\n", s.PendingAdminUsername)
	default:
		fmt.Fprintln(out, "Not signed in")
	}
}
