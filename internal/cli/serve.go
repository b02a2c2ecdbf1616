package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"planboard/internal/web"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Example: strings.TrimSpace(`
# Local mode: HS256 tokens minted with "planboard token"
planboard config set auth.hs256Secret "$(openssl rand -hex 32)"
planboard serve --addr 127.0.0.1:8080
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}
			cfg := app.config()
			logger := app.logs()

			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			auth, err := web.NewAuth(cfg.Auth)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer auth.Close()
			if cfg.Auth == nil || (cfg.Auth.HS256Secret == "" && cfg.Auth.JWKSURL == "") {
				logger.Warn("serve.auth.disabled: only published entities are readable")
			}

			srv := web.New(web.Config{
				Backend:    st.Backend,
				Subscriber: st.Subscriber,
				Auth:       auth,
				Logger:     logger,
				Defaults:   app.editorDefaults(),
				Year:       cfg.CalendarYear,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(listenAddr) }()
			logger.WithFields(log.Fields{"addr": listenAddr}).Info("http.listen")

			select {
			case err := <-errc:
				if err != nil {
					return writeErr(cmd, err)
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return writeErr(cmd, err)
			}
			logger.Info("http.shutdown")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("PLANBOARD_ADDR", "127.0.0.1:8080"), "Listen address")
	return cmd
}
