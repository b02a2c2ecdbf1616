package web

import (
	"net/http"

	"planboard/internal/store"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// streamEntities sends the owner's live list as Server-Sent Events, one snapshot
// event per change.
func (s *Server) streamEntities(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	owner := ownerOf(c)
	if owner == "" {
		return store.ErrUnauthenticated
	}
	if s.cfg.Subscriber == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "subscriptions are not configured")
	}
	ctx := c.Request().Context()
	snapshots, err := s.cfg.Subscriber.Subscribe(ctx, owner, kind)
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			data, err := sonic.ConfigStd.Marshal(snap)
			if err != nil {
				s.cfg.Logger.WithFields(log.Fields{"owner": owner, "kind": kind, "err": err}).Warn("http.stream.encode.failed")
				continue
			}
			if _, err := res.Write([]byte("event: snapshot\ndata: ")); err != nil {
				return nil
			}
			if _, err := res.Write(data); err != nil {
				return nil
			}
			if _, err := res.Write([]byte("\n\n")); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
