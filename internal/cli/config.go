package cli

import (
	"planboard/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ~/.planboard/config.json",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the config (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, redactConfig(app.config()))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List settable keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, store.ConfigKeys)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one key (\"\" clears it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.config()
			if err := cfg.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, redactConfig(cfg))
		},
	})
	return cmd
}

func redactConfig(cfg *store.GlobalConfig) store.GlobalConfig {
	out := *cfg
	if cfg.Auth != nil {
		auth := *cfg.Auth
		if auth.HS256Secret != "" {
			auth.HS256Secret = "********"
		}
		out.Auth = &auth
	}
	return out
}
