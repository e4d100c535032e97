package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawdeck/internal/activity"
	"github.com/openclaw/clawdeck/internal/config"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the queue backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		reader := bufio.NewReader(cmd.InOrStdin())
		email := strings.TrimSpace(loginEmail)
		if email == "" {
			fmt.Print("Email: ")
			line, _ := reader.ReadString('\n')
			email = strings.TrimSpace(line)
		}
		password := loginPassword
		if password == "" {
			fmt.Print("Password: ")
			line, _ := reader.ReadString('\n')
			password = strings.TrimRight(line, "\r\n")
		}
		if email == "" || password == "" {
			return fmt.Errorf("email and password are required")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		client := backendClient(cfg)
		user, err := client.Login(ctx, email, password)
		if err != nil {
			return err
		}
		if err := saveSession(cfg, &session{Token: client.Token(), Email: user.Email}); err != nil {
			return err
		}
		recordActivity(cfg, activity.KindLogin, "", user.Email)
		fmt.Printf("Signed in as %s (%s)\n", user.FullName, user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		// Best-effort server-side revoke; the local session is cleared
		// regardless.
		if err := backendClient(cfg).Logout(ctx); err != nil {
			fmt.Printf("Warning: backend logout failed: %v\n", err)
		}
		if err := clearSession(cfg); err != nil {
			return err
		}
		recordActivity(cfg, activity.KindLogout, "", "")
		fmt.Println("Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in operator",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		user, err := backendClient(cfg).Me(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> (%s)\n", user.FullName, user.Email, user.Role)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Operator email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Operator password (prompted when omitted)")
}
