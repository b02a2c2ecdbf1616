package store

import (
	"context"
	"time"

	"planboard/internal/model"
	"planboard/internal/perm"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ChangesChannel carries a JSON model.ChangeEvent for every write made through a Cache.
const ChangesChannel = "planboard:changes"

// Cache wraps a Backend with redis-backed caching for reads and publishes a change
// event after each write.
type Cache struct {
	base   Backend
	redis  *redis.Client
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

func NewCache(base Backend, client *redis.Client, ttl time.Duration, logger *log.Logger) *Cache {
	if base == nil {
		panic("store.NewCache: base backend is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Cache{base: base, redis: client, ttl: ttl, logger: logger, now: time.Now}
}

func entityCacheKey(kind model.Kind, id string) string {
	return "planboard:entity:" + string(kind) + ":" + id
}

func listCacheKey(owner string, kind model.Kind) string {
	return "planboard:list:" + owner + ":" + string(kind)
}

// Get serves cached entities after re-checking read access for this caller.
func (c *Cache) Get(ctx context.Context, owner string, kind model.Kind, id string) (model.Entity, error) {
	var e model.Entity
	if c.load(ctx, entityCacheKey(kind, id), &e) {
		if kind == model.KindGuestbook || perm.CanRead(owner, e) {
			return e, nil
		}
	}
	e, err := c.base.Get(ctx, owner, kind, id)
	if err != nil {
		return model.Entity{}, err
	}
	c.store(ctx, entityCacheKey(kind, id), e)
	return e, nil
}

// List caches only the unfiltered live list; trash, tree and search views pass through.
func (c *Cache) List(ctx context.Context, owner string, kind model.Kind, opts ListOptions) ([]model.Entity, error) {
	cacheable := opts == (ListOptions{}) && owner != ""
	if cacheable {
		var cached []model.Entity
		if c.load(ctx, listCacheKey(owner, kind), &cached) {
			return cached, nil
		}
	}
	out, err := c.base.List(ctx, owner, kind, opts)
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.store(ctx, listCacheKey(owner, kind), out)
	}
	return out, nil
}

func (c *Cache) Create(ctx context.Context, owner string, kind model.Kind, title string) (model.Entity, error) {
	e, err := c.base.Create(ctx, owner, kind, title)
	if err != nil {
		return model.Entity{}, err
	}
	c.changed(ctx, e.OwnerID, kind, e.ID, "created")
	return e, nil
}

func (c *Cache) Patch(ctx context.Context, owner string, kind model.Kind, id string, p model.EntityPatch) (model.Entity, error) {
	e, err := c.base.Patch(ctx, owner, kind, id, p)
	if err != nil {
		return model.Entity{}, err
	}
	c.changed(ctx, e.OwnerID, kind, id, "updated")
	return e, nil
}

func (c *Cache) Delete(ctx context.Context, owner string, kind model.Kind, id string) error {
	if err := c.base.Delete(ctx, owner, kind, id); err != nil {
		return err
	}
	c.changed(ctx, owner, kind, id, "deleted")
	return nil
}

func (c *Cache) AddComment(ctx context.Context, guestbookID, name, password, content string) (model.GuestbookComment, error) {
	cm, err := c.base.AddComment(ctx, guestbookID, name, password, content)
	if err != nil {
		return model.GuestbookComment{}, err
	}
	c.guestbookChanged(ctx, guestbookID)
	return cm, nil
}

func (c *Cache) RemoveComment(ctx context.Context, owner, guestbookID, commentID, password string) error {
	if err := c.base.RemoveComment(ctx, owner, guestbookID, commentID, password); err != nil {
		return err
	}
	c.guestbookChanged(ctx, guestbookID)
	return nil
}

func (c *Cache) guestbookChanged(ctx context.Context, id string) {
	// Guestbooks are world-readable, so an anonymous read finds the owner.
	gb, err := c.base.Get(ctx, "", model.KindGuestbook, id)
	if err != nil {
		c.evict(ctx, entityCacheKey(model.KindGuestbook, id))
		return
	}
	c.changed(ctx, gb.OwnerID, model.KindGuestbook, id, "updated")
}

func (c *Cache) changed(ctx context.Context, owner string, kind model.Kind, id, typ string) {
	c.evict(ctx, entityCacheKey(kind, id), listCacheKey(owner, kind))
	if c.redis == nil {
		return
	}
	ev := model.ChangeEvent{OwnerID: owner, Kind: kind, EntityID: id, Type: typ, TS: c.now().UTC()}
	data, err := sonic.Marshal(ev)
	if err != nil {
		return
	}
	if err := c.redis.Publish(ctx, ChangesChannel, data).Err(); err != nil {
		c.logger.WithFields(log.Fields{"kind": kind, "id": id, "err": err}).Warn("cache.publish.failed")
	}
}

func (c *Cache) load(ctx context.Context, key string, v any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}
