package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"planboard/internal/model"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	getFn    func(ctx context.Context, owner string, kind model.Kind, id string) (model.Entity, error)
	listFn   func(ctx context.Context, owner string, kind model.Kind, opts ListOptions) ([]model.Entity, error)
	patchFn  func(ctx context.Context, owner string, kind model.Kind, id string, p model.EntityPatch) (model.Entity, error)
	createFn func(ctx context.Context, owner string, kind model.Kind, title string) (model.Entity, error)
}

func (s *stubBackend) Get(ctx context.Context, owner string, kind model.Kind, id string) (model.Entity, error) {
	if s.getFn == nil {
		return model.Entity{}, errors.New("unexpected Get call")
	}
	return s.getFn(ctx, owner, kind, id)
}

func (s *stubBackend) List(ctx context.Context, owner string, kind model.Kind, opts ListOptions) ([]model.Entity, error) {
	if s.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return s.listFn(ctx, owner, kind, opts)
}

func (s *stubBackend) Create(ctx context.Context, owner string, kind model.Kind, title string) (model.Entity, error) {
	if s.createFn == nil {
		return model.Entity{}, errors.New("unexpected Create call")
	}
	return s.createFn(ctx, owner, kind, title)
}

func (s *stubBackend) Patch(ctx context.Context, owner string, kind model.Kind, id string, p model.EntityPatch) (model.Entity, error) {
	if s.patchFn == nil {
		return model.Entity{}, errors.New("unexpected Patch call")
	}
	return s.patchFn(ctx, owner, kind, id, p)
}

func (s *stubBackend) Delete(context.Context, string, model.Kind, string) error {
	return errors.New("unexpected Delete call")
}

func (s *stubBackend) AddComment(context.Context, string, string, string, string) (model.GuestbookComment, error) {
	return model.GuestbookComment{}, errors.New("unexpected AddComment call")
}

func (s *stubBackend) RemoveComment(context.Context, string, string, string, string) error {
	return errors.New("unexpected RemoveComment call")
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheListMissThenHit(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	expected := []model.Entity{{ID: "brd-1", Kind: model.KindBoard, OwnerID: "alice", Title: "Sprint"}}

	var calls int
	cache := NewCache(&stubBackend{
		listFn: func(_ context.Context, owner string, kind model.Kind, _ ListOptions) ([]model.Entity, error) {
			calls++
			require.Equal(t, "alice", owner)
			return append([]model.Entity(nil), expected...), nil
		},
	}, client, time.Minute, nil)

	for i := 0; i < 2; i++ {
		got, err := cache.List(ctx, "alice", model.KindBoard, ListOptions{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Sprint", got[0].Title)
	}
	assert.Equal(t, 1, calls, "second list is served from redis")
	ttl := mr.TTL(listCacheKey("alice", model.KindBoard))
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected TTL %v", ttl)

	_, err := cache.List(ctx, "alice", model.KindBoard, ListOptions{Archived: true})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "filtered lists bypass the cache")
}

func TestCacheGetRechecksAccess(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()
	private := model.Entity{ID: "brd-1", Kind: model.KindBoard, OwnerID: "alice"}

	var calls int
	cache := NewCache(&stubBackend{
		getFn: func(_ context.Context, owner string, _ model.Kind, _ string) (model.Entity, error) {
			calls++
			if owner != "alice" {
				return model.Entity{}, ErrUnauthorized
			}
			return private, nil
		},
	}, client, time.Minute, nil)

	_, err := cache.Get(ctx, "alice", model.KindBoard, "brd-1")
	require.NoError(t, err)
	_, err = cache.Get(ctx, "alice", model.KindBoard, "brd-1")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = cache.Get(ctx, "bob", model.KindBoard, "brd-1")
	assert.ErrorIs(t, err, ErrUnauthorized, "a cached entity must not leak to other callers")
}

func TestCachePatchEvictsAndPublishes(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	board := model.Entity{ID: "brd-1", Kind: model.KindBoard, OwnerID: "alice", Title: "old"}
	cache := NewCache(&stubBackend{
		getFn: func(context.Context, string, model.Kind, string) (model.Entity, error) { return board, nil },
		listFn: func(context.Context, string, model.Kind, ListOptions) ([]model.Entity, error) {
			return []model.Entity{board}, nil
		},
		patchFn: func(_ context.Context, _ string, _ model.Kind, _ string, p model.EntityPatch) (model.Entity, error) {
			p.Apply(&board)
			return board, nil
		},
	}, client, time.Minute, nil)

	_, err := cache.Get(ctx, "alice", model.KindBoard, "brd-1")
	require.NoError(t, err)
	_, err = cache.List(ctx, "alice", model.KindBoard, ListOptions{})
	require.NoError(t, err)
	require.True(t, mr.Exists(entityCacheKey(model.KindBoard, "brd-1")))

	sub := client.Subscribe(ctx, ChangesChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	title := "new"
	_, err = cache.Patch(ctx, "alice", model.KindBoard, "brd-1", model.EntityPatch{Title: &title})
	require.NoError(t, err)

	assert.False(t, mr.Exists(entityCacheKey(model.KindBoard, "brd-1")))
	assert.False(t, mr.Exists(listCacheKey("alice", model.KindBoard)))

	select {
	case msg := <-sub.Channel():
		assert.Contains(t, msg.Payload, `"entityId":"brd-1"`)
		assert.Contains(t, msg.Payload, `"type":"updated"`)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change message")
	}
}
