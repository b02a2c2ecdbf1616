// Package tui is the interactive terminal editor for one board or calendar.
package tui

import (
	"context"

	"planboard/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	// Theme is "auto", "light" or "dark".
	Theme string
	// Year resolves calendar grid cells to dates.
	Year int
	// PushErrors delivers failed background pushes; it must be the notifier the
	// session's updater was built with.
	PushErrors PushErrors
	Logger     *log.Logger
}

// PushErrors forwards failed background pushes into the running program.
type PushErrors chan error

func NewPushErrors() PushErrors { return make(PushErrors, 4) }

// PushFailed never blocks the updater; errors beyond the buffer are dropped.
func (p PushErrors) PushFailed(err error) {
	select {
	case p <- err:
	default:
	}
}

// Run drives sess until the user quits. The caller owns the session and flushes it
// afterwards.
func Run(ctx context.Context, sess *session.Session, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference(opts.Theme)

	m, err := newModel(ctx, sess, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	return err
}
