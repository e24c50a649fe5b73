package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tally/internal/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		user   string
		ttl    time.Duration
		secret string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API",
		Long:  "Issue a signed bearer token. The secret comes from --secret, AUTH_JWT_SECRET or auth.jwt_secret in the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("AUTH_JWT_SECRET")
			}
			if secret == "" {
				secret = a.file.Auth.JWTSecret
			}
			if secret == "" {
				return errors.New("no signing secret: pass --secret, set AUTH_JWT_SECRET or auth.jwt_secret")
			}
			if ttl <= 0 {
				return fmt.Errorf("invalid --ttl %v: must be positive", ttl)
			}

			token, err := auth.NewJWTManager(secret).Generate(user, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, token)
			return err
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC signing secret")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
