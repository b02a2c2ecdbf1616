// Package session ties one board or calendar entity to an editor and keeps the
// stored content in sync with it.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"planboard/internal/board"
	"planboard/internal/codec"
	"planboard/internal/editor"
	"planboard/internal/ids"
	"planboard/internal/model"
	"planboard/internal/perm"
	"planboard/internal/persist"
	"planboard/internal/store"

	log "github.com/sirupsen/logrus"
)

type Options struct {
	Persist  persist.Opts
	Defaults editor.Defaults
	IDs      ids.Generator
	Logger   *log.Logger
}

// Session is owned by the goroutine that drives the editor (TUI update loop, one
// request, one CLI command).
type Session struct {
	Entity model.Entity
	Editor *editor.Editor

	// ReadOnly is set when the caller may read but not write the entity. Edits still
	// apply locally but are never pushed.
	ReadOnly bool

	// Transient UI state.
	SearchOpen bool
	Query      string

	backend store.Backend
	owner   string
	updater *persist.Updater
	logger  *log.Logger
	docs    map[string]model.Entity
}

// Open fetches the entity, decodes its content and builds an editor whose changes
// are pushed through a debounced updater.
func Open(ctx context.Context, backend store.Backend, owner string, kind model.Kind, id string, opts Options) (*Session, error) {
	variant, ok := model.VariantForKind(kind)
	if !ok {
		return nil, fmt.Errorf("%s is not a board kind", kind)
	}
	e, err := backend.Get(ctx, owner, kind, id)
	if err != nil {
		return nil, err
	}
	initial, hasContent, err := codec.Decode(e.ContentString())
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", kind, id, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &Session{
		Entity:   e,
		ReadOnly: !perm.CanEdit(owner, e),
		backend:  backend,
		owner:    owner,
		logger:   logger,
	}
	if !s.ReadOnly {
		po := opts.Persist
		po.Store = backend
		po.Owner = owner
		po.Kind = kind
		po.ID = id
		if po.Logger == nil {
			po.Logger = logger
		}
		s.updater = persist.New(po)
	}

	s.Editor = editor.New(editor.Options{
		Variant:  variant,
		Initial:  initial,
		OnChange: s.onChange,
		IDs:      opts.IDs,
		Defaults: opts.Defaults,
		Logger:   logger,
	})
	// A synthesized default board is persisted like any other edit.
	if !hasContent && len(s.Editor.Board()) > 0 {
		s.onChange(s.Editor.Board())
	}
	return s, nil
}

func (s *Session) onChange(b model.Board) {
	content, err := codec.Encode(b)
	if err != nil {
		s.logger.WithFields(log.Fields{"id": s.Entity.ID, "err": err}).Error("session.encode.failed")
		return
	}
	s.Entity.Content = &content
	if s.updater != nil {
		s.updater.Notify(content)
	}
}

func (s *Session) Kind() model.Kind { return s.Entity.Kind }

// Board returns the current editor snapshot.
func (s *Session) Board() model.Board { return s.Editor.Board() }

// Documents loads (once) the owner's live documents keyed by id.
func (s *Session) Documents(ctx context.Context) (map[string]model.Entity, error) {
	if s.docs != nil {
		return s.docs, nil
	}
	docs := map[string]model.Entity{}
	if strings.TrimSpace(s.owner) != "" {
		list, err := s.backend.List(ctx, s.owner, model.KindDocument, store.ListOptions{})
		if err != nil {
			return nil, err
		}
		for _, d := range list {
			docs[d.ID] = d
		}
	}
	s.docs = docs
	return docs, nil
}

// RefreshDocuments drops the cached document list.
func (s *Session) RefreshDocuments() { s.docs = nil }

// Visible is the board with references to missing documents filtered out. Before
// Documents has been loaded it is the raw board.
func (s *Session) Visible() model.Board {
	if s.docs == nil || s.ReadOnly {
		return s.Board()
	}
	return board.FilterMissing(s.Board(), func(id string) bool {
		_, ok := s.docs[id]
		return ok
	})
}

// Title returns a document's title, or its id when unknown.
func (s *Session) Title(id string) string {
	if d, ok := s.docs[id]; ok && strings.TrimSpace(d.Title) != "" {
		return d.Title
	}
	return id
}

// Titles maps every known document id to its title.
func (s *Session) Titles() map[string]string {
	out := make(map[string]string, len(s.docs))
	for id, d := range s.docs {
		out[id] = d.Title
	}
	return out
}

func (s *Session) ToggleSearch() {
	s.SearchOpen = !s.SearchOpen
	if !s.SearchOpen {
		s.Query = ""
	}
}

// SearchResults lists documents matching Query, unplaced ones first, by title.
func (s *Session) SearchResults() []model.Entity {
	q := strings.ToLower(strings.TrimSpace(s.Query))
	var out []model.Entity
	for _, d := range s.docs {
		if q != "" && !strings.Contains(strings.ToLower(d.Title), q) {
			continue
		}
		out = append(out, d)
	}
	b := s.Board()
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := board.Placed(b, out[i].ID), board.Placed(b, out[j].ID)
		if pi != pj {
			return !pi
		}
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Pending reports whether edits are waiting to be pushed.
func (s *Session) Pending() bool {
	return s.updater != nil && s.updater.Pending()
}

// Flush pushes pending edits now.
func (s *Session) Flush(ctx context.Context) error {
	return s.updater.Flush(ctx)
}

// Discard drops edits that have not been pushed yet.
func (s *Session) Discard() {
	s.updater.Discard()
}

func (s *Session) Close(ctx context.Context) error {
	return s.Flush(ctx)
}
