package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/triovision/erpauth"
	"github.com/triovision/erpauth/tui"
)

func newLoginCmd(a *app) *cobra.Command {
	var (
		identifier    string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Without flags, opens the interactive sign-in form.

For scripts, pass --identifier and pipe the password:
  printf '%s\n' "$PASSWORD" | erpauth login --identifier Trio042 --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.clientFor(ctx)
			if err != nil {
				return err
			}

			if identifier == "" && !passwordStdin {
				final, err := tea.NewProgram(tui.NewLoginModel(ctx, client)).Run()
				if err != nil {
					return err
				}
				if res := final.(tui.LoginModel).Result(); res != nil {
					fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				}
				return nil
			}

			if identifier == "" || !passwordStdin {
				return errors.New("--identifier and --password-stdin must be used together")
			}
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			form := client.LoginForm()
			form.SetIdentifier(identifier)
			form.SetPassword(password)
			res, err := form.Submit(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&identifier, "identifier", "", "Trio ID or email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account in the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			info, err := client.Whoami()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:    %s\n", info.UserID)
			if info.UserName != "" {
				fmt.Fprintf(out, "name:    %s\n", info.UserName)
			}
			if info.Email != "" {
				fmt.Fprintf(out, "email:   %s\n", info.Email)
			}
			if !info.ExpiresAt.IsZero() {
				state := "valid"
				if info.Expired(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "expires: %s (%s)\n", info.ExpiresAt.Format(time.RFC3339), state)
			}
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account with email OTP verification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.clientFor(ctx)
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(tui.NewRegisterModel(ctx, client)).Run()
			if err != nil {
				return err
			}
			if res := final.(tui.RegisterModel).Result(); res != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\nSign in with: erpauth login\n", res.Message)
			}
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset a forgotten password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.clientFor(ctx)
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(tui.NewResetModel(ctx, client)).Run()
			if err != nil {
				return err
			}
			if final.(tui.ResetModel).Done() {
				fmt.Fprintln(cmd.OutOrStdout(), "Password updated. Sign in with: erpauth login")
			}
			return nil
		},
	}
}

// signedInUser names the session owner for the dashboard header, or "".
func signedInUser(client *erpauth.Client) string {
	info, err := client.Whoami()
	if err != nil {
		return ""
	}
	return info.UserID
}
