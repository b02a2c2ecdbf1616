package store

import (
	"context"
	"sync"
	"time"

	"planboard/internal/model"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Snapshot is a full replacement of the live list for one kind.
type Snapshot struct {
	Kind     model.Kind     `json:"kind"`
	Entities []model.Entity `json:"entities"`
}

// Subscriber turns change notifications into live-list snapshots. The first snapshot
// is sent immediately; the channel closes when ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, owner string, kind model.Kind) (<-chan Snapshot, error)
}

// follow re-lists owner's kind for every matching event until ctx is done.
func follow(ctx context.Context, b Backend, logger *log.Logger, owner string, kind model.Kind, events <-chan model.ChangeEvent, out chan<- Snapshot) {
	defer close(out)
	send := func() bool {
		list, err := b.List(ctx, owner, kind, ListOptions{})
		if err != nil {
			if ctx.Err() == nil {
				logger.WithFields(log.Fields{"owner": owner, "kind": kind, "err": err}).Warn("subscribe.list.failed")
			}
			return ctx.Err() == nil
		}
		select {
		case out <- Snapshot{Kind: kind, Entities: list}:
			return true
		case <-ctx.Done():
			return false
		}
	}
	if !send() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.OwnerID != owner || ev.Kind != kind {
				continue
			}
			if !send() {
				return
			}
		}
	}
}

// LocalHub fans change events out to in-process subscribers. Register Publish as a
// Store change hook when no redis is configured.
type LocalHub struct {
	backend Backend
	logger  *log.Logger

	mu   sync.Mutex
	subs map[chan model.ChangeEvent]struct{}
}

func NewLocalHub(logger *log.Logger) *LocalHub {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LocalHub{logger: logger, subs: map[chan model.ChangeEvent]struct{}{}}
}

// Attach sets the backend used to build snapshots. The hub is usually created
// before the store so it can be passed as a change hook.
func (h *LocalHub) Attach(b Backend) { h.backend = b }

func (h *LocalHub) Publish(ev model.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; the next event re-lists anyway.
		}
	}
}

func (h *LocalHub) Subscribe(ctx context.Context, owner string, kind model.Kind) (<-chan Snapshot, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	events := make(chan model.ChangeEvent, 16)
	h.mu.Lock()
	h.subs[events] = struct{}{}
	h.mu.Unlock()

	out := make(chan Snapshot, 1)
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.subs, events)
			h.mu.Unlock()
		}()
		follow(ctx, h.backend, h.logger, owner, kind, events, out)
	}()
	return out, nil
}

// RedisSubscriber follows ChangesChannel, so it sees writes from every process
// sharing the redis instance.
type RedisSubscriber struct {
	backend Backend
	redis   *redis.Client
	logger  *log.Logger
}

func NewRedisSubscriber(b Backend, client *redis.Client, logger *log.Logger) *RedisSubscriber {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &RedisSubscriber{backend: b, redis: client, logger: logger}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context, owner string, kind model.Kind) (<-chan Snapshot, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	sub := s.redis.Subscribe(ctx, ChangesChannel)
	// Wait for the subscription so no change published after Subscribe returns is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	events := make(chan model.ChangeEvent, 16)
	go s.pump(ctx, sub, events)

	out := make(chan Snapshot, 1)
	go follow(ctx, s.backend, s.logger, owner, kind, events, out)
	return out, nil
}

// pump decodes pubsub messages, resubscribing when the channel closes.
func (s *RedisSubscriber) pump(ctx context.Context, sub *redis.PubSub, events chan<- model.ChangeEvent) {
	defer close(events)
	for {
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var ev model.ChangeEvent
				if err := sonic.UnmarshalString(msg.Payload, &ev); err != nil {
					s.logger.WithFields(log.Fields{"err": err}).Warn("subscribe.decode.failed")
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					_ = sub.Close()
					return
				}
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
		sub = s.redis.Subscribe(ctx, ChangesChannel)
	}
}
