package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/rehab-plan-backend/internal/http/middleware"
)

var (
	tokenUser string
	tokenTZ   string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token for local testing",
	Long: `Print an HS256 token signed with AUTH_JWT_SECRET.

Example:
  curl -H "Authorization: Bearer $(rehab token --user u1)" localhost:8080/api/v1/programs`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Auth.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is not set; the API trusts X-User-ID instead")
		}
		tok, err := middleware.SignToken([]byte(cfg.Auth.JWTSecret), tokenUser, tokenTZ, tokenTTL)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "demo-user", "subject (user id)")
	tokenCmd.Flags().StringVar(&tokenTZ, "tz", "", "IANA time zone claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
