package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Stack is a ready-to-use backend with its change feed.
type Stack struct {
	Backend    Backend
	Subscriber Subscriber

	store *Store
	redis *redis.Client
}

func (s *Stack) Close() error {
	var firstErr error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenStack builds the configured backend. dataDir overrides cfg.DataDir when set.
// With a redis URL reads are cached and changes fan out over pubsub; otherwise an
// in-process hub serves subscriptions.
func OpenStack(ctx context.Context, cfg *GlobalConfig, dataDir string, logger *log.Logger) (*Stack, error) {
	if cfg == nil {
		cfg = &GlobalConfig{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	var rc *redis.Client
	if u := strings.TrimSpace(cfg.RedisURL); u != "" {
		opt, err := redis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rc = redis.NewClient(opt)
	}

	hub := NewLocalHub(logger)
	opts := []Option{WithLogger(logger)}
	if rc == nil {
		opts = append(opts, WithChangeHook(hub.Publish))
	}

	var (
		st  *Store
		err error
	)
	switch strings.TrimSpace(cfg.Backend) {
	case "", "sqlite":
		dir := strings.TrimSpace(dataDir)
		if dir == "" {
			dir = strings.TrimSpace(cfg.DataDir)
		}
		if dir == "" {
			if dir, err = DefaultDataDir(); err != nil {
				return nil, err
			}
		}
		st, err = OpenSQLite(ctx, dir, opts...)
	case "aztables":
		table := cfg.TablesName
		if table == "" {
			table = "planboard"
		}
		st, err = OpenTables(ctx, cfg.TablesConnection, table, opts...)
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		if rc != nil {
			_ = rc.Close()
		}
		return nil, err
	}

	stack := &Stack{store: st, redis: rc}
	if rc != nil {
		cache := NewCache(st, rc, cfg.CacheTTLDuration(), logger)
		stack.Backend = cache
		stack.Subscriber = NewRedisSubscriber(cache, rc, logger)
	} else {
		hub.Attach(st)
		stack.Backend = st
		stack.Subscriber = hub
	}
	logger.WithFields(log.Fields{"backend": cfg.Backend, "redis": rc != nil}).Debug("store.open")
	return stack, nil
}
