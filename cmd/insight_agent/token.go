package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/insight-scraper/internal/config"
	"github.com/jonathan/insight-scraper/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token --subject S",
	Short: "Issue a bearer token for the API",
	Long:  `Sign a JWT for --subject (or the single argument), using the secret named by auth.jwt_secret_name.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject := tokenSubject
		if subject == "" && len(args) == 1 {
			subject = args[0]
		}
		if subject == "" {
			return fmt.Errorf("a token subject is required")
		}

		// Token issuance needs the signing secret even when the server is run without auth.
		v.Set("auth.enabled", true)

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		jwtCfg, err := config.NewJWTConfig(a.creds.JWTSigningToken, a.cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		token, err := server.NewJWTService(jwtCfg).GenerateToken(subject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var tokenSubject string

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject, usually the client name")
	rootCmd.AddCommand(tokenCmd)
}
