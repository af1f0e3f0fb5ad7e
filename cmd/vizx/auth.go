package main

import (
	"fmt"
	"time"

	"github.com/dataviz-pro/vizx/pkg/api"
	"github.com/dataviz-pro/vizx/pkg/session"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			tok, err := app.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := app.sessions.Set(session.Session{Token: tok.AccessToken, User: tok.User}); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s)\n", tok.User.FullName, tok.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var email, password, fullName, role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			tok, err := app.client.Register(cmd.Context(), api.RegisterRequest{
				Email:    email,
				Password: password,
				FullName: fullName,
				Role:     api.Role(role),
			})
			if err != nil {
				return err
			}
			if err := app.sessions.Set(session.Session{Token: tok.AccessToken, User: tok.User}); err != nil {
				return err
			}
			fmt.Printf("Welcome, %s\n", tok.User.FullName)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (min 6 chars)")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(api.RoleMember), "account role (admin|member)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("full-name")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.sessions.Clear(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			user, err := app.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> role=%s\n", user.FullName, user.Email, user.Role)
			if exp, ok := app.sessions.Expiry(); ok {
				fmt.Printf("session expires %s\n", exp.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the API health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			h, err := app.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", h.Status, h.Timestamp.Format(time.RFC3339))
			return nil
		},
	}
}
