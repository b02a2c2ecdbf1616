package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"planboard/internal/persist"
	"planboard/internal/session"
	"planboard/internal/store"
	"planboard/internal/tui"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui <board-or-calendar-id>",
		Short: "Edit a board or calendar interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			kind, ok := store.KindForID(id)
			if !ok || !kind.Editable() {
				return writeErr(cmd, fmt.Errorf("%q is not a board or calendar id", id))
			}
			owner, err := app.owner()
			if err != nil {
				return writeErr(cmd, err)
			}

			// The terminal belongs to the program, so logs go to a file.
			logger, closeLog, err := app.tuiLogger()
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeLog()
			app.logger = logger

			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			ctx := cmd.Context()
			pushErrors := tui.NewPushErrors()
			sess, err := session.Open(ctx, st.Backend, owner, kind, id, session.Options{
				Persist: persist.Opts{
					Debounce: app.config().DebounceDuration(),
					Notifier: pushErrors,
					Logger:   logger,
				},
				Defaults: app.editorDefaults(),
				Logger:   logger,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			theme := ""
			if t := app.config().TUI; t != nil {
				theme = t.Theme
			}
			runErr := tui.Run(ctx, sess, tui.Options{
				Theme:      theme,
				Year:       app.calendarYear(),
				PushErrors: pushErrors,
				Logger:     logger,
			})
			if err := sess.Close(ctx); err != nil {
				logger.WithFields(log.Fields{"id": id, "err": err}).Error("tui.flush.failed")
				return writeErr(cmd, err)
			}
			if runErr != nil {
				return writeErr(cmd, runErr)
			}
			return nil
		},
	}
}

// tuiLogger keeps the configured level but writes to tui.log in the config dir.
func (app *App) tuiLogger() (*log.Logger, func(), error) {
	dir, err := store.ConfigDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "tui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	level := app.LogLevel
	if level == "" {
		level = "info"
	}
	logger, err := newLogger(f, level, app.LogFormat)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return logger, func() { _ = f.Close() }, nil
}
