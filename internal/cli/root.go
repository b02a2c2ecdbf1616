package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"planboard/internal/format"
	"planboard/internal/model"
	"planboard/internal/store"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type App struct {
	DataDir    string
	User       string
	PrettyJSON bool
	Format     string
	LogLevel   string
	LogFormat  string

	cfg    *store.GlobalConfig
	logger *log.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "planboard",
		Short:        "Boards, calendars and documents from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a board and add a column
  planboard boards create --title "Sprint"
  planboard boards columns add brd-xxxxxxxx --name "Todo"

  # Edit a board interactively
  planboard tui brd-xxxxxxxx

  # Direct lookup (shortcut for: planboard boards show <board-id>)
  planboard brd-xxxxxxxx
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, fmt.Errorf("load config: %w", err))
		}
		app.cfg = cfg
		level := app.LogLevel
		if level == "" {
			level = "warn"
			if cmd.Name() == "serve" {
				level = "info"
			}
		}
		logger, err := newLogger(cmd.ErrOrStderr(), level, app.LogFormat)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.logger = logger
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", envOr("PLANBOARD_DATA_DIR", ""), "SQLite data directory (overrides dataDir in config)")
	cmd.PersistentFlags().StringVar(&app.User, "user", envOr("PLANBOARD_USER", ""), "Owner id (overrides currentUser in config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("PLANBOARD_FORMAT", "json"), "Output format (json|edn)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("PLANBOARD_LOG_LEVEL", ""), "Log level (debug|info|warn|error; default warn, info for serve)")
	cmd.PersistentFlags().StringVar(&app.LogFormat, "log-format", envOr("PLANBOARD_LOG_FORMAT", "text"), "Log format (text|json)")

	cmd.AddCommand(newEntityCmd(app, model.KindDocument))
	cmd.AddCommand(newEntityCmd(app, model.KindBoard))
	cmd.AddCommand(newEntityCmd(app, model.KindCalendar))
	cmd.AddCommand(newEntityCmd(app, model.KindGuestbook))
	cmd.AddCommand(newTokenCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// CollectionName is the command (and HTTP path) name for a kind.
func CollectionName(kind model.Kind) string {
	return string(kind) + "s"
}

func newLogger(w io.Writer, level, fmtName string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := log.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	switch strings.TrimSpace(fmtName) {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", fmtName)
	}
	return logger, nil
}

func (app *App) config() *store.GlobalConfig {
	if app.cfg == nil {
		app.cfg = &store.GlobalConfig{}
	}
	return app.cfg
}

func (app *App) logs() *log.Logger {
	if app.logger == nil {
		app.logger = log.StandardLogger()
	}
	return app.logger
}

// openStack opens the configured backend. Callers close it.
func (app *App) openStack(cmd *cobra.Command) (*store.Stack, error) {
	return store.OpenStack(cmd.Context(), app.config(), app.DataDir, app.logs())
}

// owner returns the acting user. Commands that only read published entities use
// ownerOrAnonymous instead.
func (app *App) owner() (string, error) {
	if u := app.ownerOrAnonymous(); u != "" {
		return u, nil
	}
	return "", errors.New("no current user; run `planboard config set currentUser <id>` (or pass --user)")
}

func (app *App) ownerOrAnonymous() string {
	if u := strings.TrimSpace(app.User); u != "" {
		return u
	}
	return strings.TrimSpace(app.config().CurrentUser)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), format.Envelope{Data: v}, app.Format, app.PrettyJSON)
}

func writeOutMeta(cmd *cobra.Command, app *App, v any, meta map[string]any) error {
	return format.Write(cmd.OutOrStdout(), format.Envelope{Data: v, Meta: meta}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
