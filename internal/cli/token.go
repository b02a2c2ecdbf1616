package cli

import (
	"time"

	"planboard/internal/web"

	"github.com/spf13/cobra"
)

func newTokenCmd(app *App) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the current user (needs auth.hs256Secret)",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := app.owner()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg := app.config()
			auth := &web.Auth{}
			if cfg.Auth != nil {
				auth.Secret = []byte(cfg.Auth.HS256Secret)
				auth.Audience = cfg.Auth.Audience
				auth.Issuer = cfg.Auth.Issuer
			}
			tok, err := auth.Sign(owner, ttl)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"token":     tok,
				"owner":     owner,
				"expiresAt": time.Now().Add(ttl).UTC().Format(time.RFC3339),
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
