// Package store owns entity persistence: the owner-scoped Backend contract, its
// SQLite and Azure Tables implementations, a redis read cache and change feeds.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"planboard/internal/codec"
	"planboard/internal/model"
	"planboard/internal/perm"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Backend is the persistence collaborator. owner is the authenticated subject, or ""
// for anonymous callers.
type Backend interface {
	Get(ctx context.Context, owner string, kind model.Kind, id string) (model.Entity, error)
	List(ctx context.Context, owner string, kind model.Kind, opts ListOptions) ([]model.Entity, error)
	Create(ctx context.Context, owner string, kind model.Kind, title string) (model.Entity, error)
	Patch(ctx context.Context, owner string, kind model.Kind, id string, p model.EntityPatch) (model.Entity, error)
	Delete(ctx context.Context, owner string, kind model.Kind, id string) error

	// AddComment needs no identity; the password lets the author remove it later.
	AddComment(ctx context.Context, guestbookID, name, password, content string) (model.GuestbookComment, error)
	RemoveComment(ctx context.Context, owner, guestbookID, commentID, password string) error
}

type ListOptions struct {
	// Archived selects the trash (true) or the live list (false).
	Archived bool
	// ParentID limits documents to children of one parent; "" selects top-level documents.
	ParentID *string
	// Search is a case-insensitive title substring.
	Search string
}

// records is the raw, unauthenticated row access a Store is built on.
type records interface {
	load(ctx context.Context, kind model.Kind, id string) (model.Entity, error)
	scan(ctx context.Context, kind model.Kind, ownerID string) ([]model.Entity, error)
	insert(ctx context.Context, e model.Entity) error
	save(ctx context.Context, e model.Entity) error
	// update applies fn to the stored entity and saves it atomically.
	update(ctx context.Context, kind model.Kind, id string, fn func(*model.Entity) error) (model.Entity, error)
	remove(ctx context.Context, kind model.Kind, id string) error
	close() error
}

// Store implements Backend on top of a records implementation.
type Store struct {
	rec    records
	now    func() time.Time
	logger *log.Logger
	hooks  []func(model.ChangeEvent)
	locks  keyedLocks
}

type Option func(*Store)

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func WithLogger(l *log.Logger) Option { return func(s *Store) { s.logger = l } }

// WithChangeHook registers fn to run after every successful write.
func WithChangeHook(fn func(model.ChangeEvent)) Option {
	return func(s *Store) { s.hooks = append(s.hooks, fn) }
}

func newStore(rec records, opts ...Option) *Store {
	s := &Store{rec: rec, now: time.Now, logger: log.StandardLogger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Close() error { return s.rec.close() }

func (s *Store) emit(e model.Entity, typ string) {
	ev := model.ChangeEvent{OwnerID: e.OwnerID, Kind: e.Kind, EntityID: e.ID, Type: typ, TS: s.now().UTC()}
	s.logger.WithFields(log.Fields{"kind": e.Kind, "id": e.ID, "type": typ}).Debug("store.change")
	for _, fn := range s.hooks {
		fn(ev)
	}
}

func requireKind(kind model.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown kind %q", kind)
	}
	return nil
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return ErrUnauthenticated
	}
	return nil
}

func (s *Store) Get(ctx context.Context, owner string, kind model.Kind, id string) (model.Entity, error) {
	if err := requireKind(kind); err != nil {
		return model.Entity{}, err
	}
	e, err := s.rec.load(ctx, kind, id)
	if err != nil {
		return model.Entity{}, err
	}
	if kind == model.KindGuestbook || perm.CanRead(owner, e) {
		return redact(e), nil
	}
	if strings.TrimSpace(owner) == "" {
		return model.Entity{}, ErrUnauthenticated
	}
	return model.Entity{}, OwnerOnlyError{CallerID: owner, OwnerID: e.OwnerID, EntityID: e.ID}
}

func (s *Store) List(ctx context.Context, owner string, kind model.Kind, opts ListOptions) ([]model.Entity, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if err := requireKind(kind); err != nil {
		return nil, err
	}
	all, err := s.rec.scan(ctx, kind, owner)
	if err != nil {
		return nil, err
	}
	return filterEntities(all, opts), nil
}

func filterEntities(all []model.Entity, opts ListOptions) []model.Entity {
	search := strings.ToLower(strings.TrimSpace(opts.Search))
	out := make([]model.Entity, 0, len(all))
	for _, e := range all {
		if e.Archived != opts.Archived {
			continue
		}
		if opts.ParentID != nil {
			parent := ""
			if e.ParentID != nil {
				parent = *e.ParentID
			}
			if parent != *opts.ParentID {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Title), search) {
			continue
		}
		out = append(out, redact(e))
	}
	// Newest first.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) Create(ctx context.Context, owner string, kind model.Kind, title string) (model.Entity, error) {
	if err := requireOwner(owner); err != nil {
		return model.Entity{}, err
	}
	if err := requireKind(kind); err != nil {
		return model.Entity{}, err
	}
	id, err := newEntityID(kind)
	if err != nil {
		return model.Entity{}, err
	}
	now := s.now().UTC()
	e := model.Entity{
		ID:        id,
		Kind:      kind,
		OwnerID:   owner,
		Title:     strings.TrimSpace(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if kind == model.KindGuestbook {
		e.Comments = []model.GuestbookComment{}
	}
	if err := s.rec.insert(ctx, e); err != nil {
		return model.Entity{}, fmt.Errorf("create %s: %w", kind, err)
	}
	s.emit(e, "created")
	return e, nil
}

// loadOwned fetches an entity and enforces that owner may write it.
func (s *Store) loadOwned(ctx context.Context, owner string, kind model.Kind, id string) (model.Entity, error) {
	if err := requireOwner(owner); err != nil {
		return model.Entity{}, err
	}
	if err := requireKind(kind); err != nil {
		return model.Entity{}, err
	}
	e, err := s.rec.load(ctx, kind, id)
	if err != nil {
		return model.Entity{}, err
	}
	if !perm.CanEdit(owner, e) {
		return model.Entity{}, OwnerOnlyError{CallerID: owner, OwnerID: e.OwnerID, EntityID: e.ID}
	}
	return e, nil
}

func (s *Store) Patch(ctx context.Context, owner string, kind model.Kind, id string, p model.EntityPatch) (model.Entity, error) {
	e, err := s.loadOwned(ctx, owner, kind, id)
	if err != nil {
		return model.Entity{}, err
	}
	if kind.Editable() && p.Content != nil {
		if _, _, err := codec.Decode(*p.Content); err != nil {
			return model.Entity{}, err
		}
	}
	if !p.Apply(&e) {
		return redact(e), nil
	}
	e.UpdatedAt = s.now().UTC()
	if err := s.rec.save(ctx, e); err != nil {
		return model.Entity{}, fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	s.emit(e, "updated")
	return redact(e), nil
}

func (s *Store) Delete(ctx context.Context, owner string, kind model.Kind, id string) error {
	e, err := s.loadOwned(ctx, owner, kind, id)
	if err != nil {
		return err
	}
	if err := s.rec.remove(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	s.emit(e, "deleted")
	return nil
}

func (s *Store) AddComment(ctx context.Context, guestbookID, name, password, content string) (model.GuestbookComment, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return model.GuestbookComment{}, err
	}
	c := model.GuestbookComment{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Content:      content,
		Time:         s.now().UTC().Format(time.RFC3339),
		PasswordHash: hash,
	}

	unlock := s.locks.lock(guestbookID)
	defer unlock()
	gb, err := s.rec.update(ctx, model.KindGuestbook, guestbookID, func(gb *model.Entity) error {
		gb.Comments = append(append([]model.GuestbookComment{}, gb.Comments...), c)
		gb.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return model.GuestbookComment{}, fmt.Errorf("add comment: %w", err)
	}
	s.emit(gb, "updated")
	c.PasswordHash = ""
	return c, nil
}

// RemoveComment deletes a comment when password matches the one it was posted with.
// Without a password the caller must own the guestbook.
func (s *Store) RemoveComment(ctx context.Context, owner, guestbookID, commentID, password string) error {
	unlock := s.locks.lock(guestbookID)
	defer unlock()
	gb, err := s.rec.update(ctx, model.KindGuestbook, guestbookID, func(gb *model.Entity) error {
		idx := -1
		for i, c := range gb.Comments {
			if c.ID == commentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return NotFoundError{Kind: "comment", ID: commentID}
		}

		matches := false
		if password != "" {
			ok, err := VerifyPassword(password, gb.Comments[idx].PasswordHash)
			if err != nil || !ok {
				return ErrIncorrectPassword
			}
			matches = true
		} else if err := requireOwner(owner); err != nil {
			return err
		}
		if !perm.CanRemoveComment(owner, *gb, matches) {
			return OwnerOnlyError{CallerID: owner, OwnerID: gb.OwnerID, EntityID: gb.ID}
		}

		kept := make([]model.GuestbookComment, 0, len(gb.Comments)-1)
		kept = append(kept, gb.Comments[:idx]...)
		gb.Comments = append(kept, gb.Comments[idx+1:]...)
		gb.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(gb, "updated")
	return nil
}

// keyedLocks serializes writers per entity id inside one process.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.m == nil {
		k.m = map[string]*keyedLock{}
	}
	l := k.m[key]
	if l == nil {
		l = &keyedLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}

// redact strips guestbook password hashes; they never leave the store.
func redact(e model.Entity) model.Entity {
	if len(e.Comments) == 0 {
		return e
	}
	out := make([]model.GuestbookComment, len(e.Comments))
	for i, c := range e.Comments {
		c.PasswordHash = ""
		out[i] = c
	}
	e.Comments = out
	return e
}
