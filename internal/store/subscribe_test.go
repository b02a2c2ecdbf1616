package store

import (
	"context"
	"testing"
	"time"

	"planboard/internal/model"

	"github.com/stretchr/testify/require"
)

func nextSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "subscription closed early")
		return s
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestLocalHubSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewLocalHub(nil)
	s := openTestStore(t, WithChangeHook(hub.Publish))
	hub.Attach(s)

	ch, err := hub.Subscribe(ctx, "alice", model.KindBoard)
	require.NoError(t, err)
	require.Empty(t, nextSnapshot(t, ch).Entities)

	_, err = s.Create(ctx, "bob", model.KindBoard, "not mine")
	require.NoError(t, err)
	_, err = s.Create(ctx, "alice", model.KindDocument, "other kind")
	require.NoError(t, err)
	b, err := s.Create(ctx, "alice", model.KindBoard, "Sprint")
	require.NoError(t, err)

	snap := nextSnapshot(t, ch)
	require.Equal(t, model.KindBoard, snap.Kind)
	require.Len(t, snap.Entities, 1)
	require.Equal(t, b.ID, snap.Entities[0].ID)

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// A snapshot may have been in flight; the channel must still close.
			_, ok = <-ch
		}
		require.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("subscription did not close after cancel")
	}

	_, err = hub.Subscribe(context.Background(), "", model.KindBoard)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRedisSubscriberSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, client := newRedis(t)
	cache := NewCache(openTestStore(t), client, time.Minute, nil)
	sub := NewRedisSubscriber(cache, client, nil)

	ch, err := sub.Subscribe(ctx, "alice", model.KindCalendar)
	require.NoError(t, err)
	require.Empty(t, nextSnapshot(t, ch).Entities)

	cal, err := cache.Create(ctx, "alice", model.KindCalendar, "Holidays")
	require.NoError(t, err)

	snap := nextSnapshot(t, ch)
	require.Len(t, snap.Entities, 1)
	require.Equal(t, cal.ID, snap.Entities[0].ID)
}
