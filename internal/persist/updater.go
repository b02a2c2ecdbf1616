// Package persist pushes edited board content to the store in the background.
package persist

import (
	"context"
	"sync"
	"time"

	"planboard/internal/model"

	log "github.com/sirupsen/logrus"
)

// Patcher is the write half of store.Backend.
type Patcher interface {
	Patch(ctx context.Context, owner string, kind model.Kind, id string, p model.EntityPatch) (model.Entity, error)
}

// Notifier hears about failed pushes. Local state is never rolled back.
type Notifier interface {
	PushFailed(err error)
}

type NotifierFunc func(err error)

func (f NotifierFunc) PushFailed(err error) { f(err) }

// Updater coalesces bursts of edits into one Patch carrying the latest content.
// Last write wins; there are no retries.
type Updater struct {
	store    Patcher
	owner    string
	kind     model.Kind
	id       string
	debounce time.Duration
	notifier Notifier
	logger   *log.Logger
	timeout  time.Duration

	// pushMu serializes pushes so Flush waits for one already in flight.
	pushMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	latest  string
	pushed  int
}

type Opts struct {
	Store    Patcher
	Owner    string
	Kind     model.Kind
	ID       string
	Debounce time.Duration
	Notifier Notifier
	Logger   *log.Logger
	// Timeout bounds each background push. Defaults to 30s.
	Timeout time.Duration
}

const DefaultDebounce = 500 * time.Millisecond

func New(opts Opts) *Updater {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Updater{
		store:    opts.Store,
		owner:    opts.Owner,
		kind:     opts.Kind,
		id:       opts.ID,
		debounce: debounce,
		notifier: opts.Notifier,
		logger:   logger,
		timeout:  timeout,
	}
}

// Notify records content as the latest state and (re)arms the debounce timer.
func (u *Updater) Notify(content string) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.pending = true
	u.latest = content
	if u.timer == nil {
		u.timer = time.AfterFunc(u.debounce, u.onTimer)
		u.mu.Unlock()
		return
	}
	u.timer.Reset(u.debounce)
	u.mu.Unlock()
}

func (u *Updater) onTimer() {
	// Holding pushMu for the whole run lets a timer that fires mid-push wait for it and
	// then pick up whatever arrived meanwhile.
	u.pushMu.Lock()
	defer u.pushMu.Unlock()

	u.mu.Lock()
	if !u.pending {
		u.mu.Unlock()
		return
	}
	u.pending = false
	content := u.latest
	u.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
	defer cancel()
	if err := u.push(ctx, content); err != nil {
		u.report(err)
	}
}

func (u *Updater) push(ctx context.Context, content string) error {
	_, err := u.store.Patch(ctx, u.owner, u.kind, u.id, model.EntityPatch{Content: &content})
	u.mu.Lock()
	if err == nil {
		u.pushed++
	}
	u.mu.Unlock()
	if err == nil {
		u.logger.WithFields(log.Fields{"kind": u.kind, "id": u.id, "bytes": len(content)}).Debug("persist.update")
	}
	return err
}

func (u *Updater) report(err error) {
	u.logger.WithFields(log.Fields{"kind": u.kind, "id": u.id, "err": err}).Warn("persist.update.failed")
	if u.notifier != nil {
		u.notifier.PushFailed(err)
	}
}

// Flush stops the timer and pushes pending content synchronously.
func (u *Updater) Flush(ctx context.Context) error {
	if u == nil {
		return nil
	}
	u.pushMu.Lock()
	defer u.pushMu.Unlock()

	u.mu.Lock()
	if u.timer != nil {
		u.timer.Stop()
	}
	if !u.pending {
		u.mu.Unlock()
		return nil
	}
	u.pending = false
	content := u.latest
	u.mu.Unlock()

	if err := u.push(ctx, content); err != nil {
		u.report(err)
		return err
	}
	return nil
}

// Discard stops the timer and drops pending content without pushing it.
func (u *Updater) Discard() {
	if u == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.timer != nil {
		u.timer.Stop()
	}
	u.pending = false
	u.latest = ""
}

// Pending reports whether content is waiting for the next push.
func (u *Updater) Pending() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pending
}

// Pushes returns the number of successful pushes.
func (u *Updater) Pushes() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pushed
}
