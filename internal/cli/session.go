package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/lu-zhengda/mailboard/internal/app"
	"github.com/lu-zhengda/mailboard/internal/domain"
)

func newLoginCmd() *cobra.Command {
	var emailFlag, passwordFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Long: "Sign in to the email list API. When the API cannot be reached an offline\n" +
			"demo session is created for the given address instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := interactiveLogin(cmd.Context(), e, emailFlag, passwordFlag)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONSession(sess))
			}
			printSuccess(fmt.Sprintf("Signed in as %s <%s>", sess.User.Name, sess.User.Email))
			if app.IsDemoSession(sess) {
				printWarning("the API is unreachable; using offline sample data")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&emailFlag, "email", "", "account email (prompted if empty)")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "account password (prompted if empty)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Logout(cmd.Context()); err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "logout"})
			}
			printSuccess("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			sess := e.session.Session()
			if jsonFlag {
				return printJSON(toJSONSession(sess))
			}
			if sess == nil {
				fmt.Println("Not signed in.")
				return nil
			}
			fmt.Printf("Name:  %s\n", sess.User.Name)
			fmt.Printf("Email: %s\n", sess.User.Email)
			fmt.Printf("Role:  %s\n", sess.User.Role)
			if app.IsDemoSession(sess) {
				fmt.Println("Mode:  offline demo")
			}
			return nil
		},
	}
}

// interactiveLogin prompts for whatever credentials are missing and signs in.
func interactiveLogin(ctx context.Context, e *env, email, password string) (*domain.Session, error) {
	if email == "" || password == "" {
		if err := promptCredentials(&email, &password); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil, errors.New("sign-in cancelled")
			}
			return nil, fmt.Errorf("failed to read credentials: %w", err)
		}
	}

	sess, err := e.session.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	e.emails.Refresh()
	return sess, nil
}

func promptCredentials(email, password *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(email).
				Validate(requireValue("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(requireValue("password")),
		),
	)
	return form.Run()
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
