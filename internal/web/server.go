// Package web serves the entity store and board editing over HTTP.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"planboard/internal/codec"
	"planboard/internal/editor"
	"planboard/internal/store"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const ownerKey = "owner"

type Config struct {
	Backend    store.Backend
	Subscriber store.Subscriber
	Auth       Authenticator
	Logger     *log.Logger

	// Defaults seeds boards that have no content yet.
	Defaults editor.Defaults
	// Year resolves calendar slots for ICS export; 0 means the current year.
	Year int
	Now  func() time.Time
}

type Server struct {
	cfg    Config
	echo   *echo.Echo
	tracer trace.Tracer
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Server{cfg: cfg, tracer: otel.Tracer("planboard/web")}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = s.handleError
	e.Use(s.observe, s.authenticate)
	s.echo = e
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.GET("/api/:kind", s.listEntities)
	e.POST("/api/:kind", s.createEntity)
	e.GET("/api/:kind/stream", s.streamEntities)
	e.GET("/api/:kind/:id", s.getEntity)
	e.PATCH("/api/:kind/:id", s.patchEntity)
	e.DELETE("/api/:kind/:id", s.deleteEntity)
	e.POST("/api/:kind/:id/ops", s.applyOps)
	e.GET("/api/:kind/:id/export.ics", s.exportICS)
	e.POST("/api/:kind/:id/comments", s.addComment)
	e.DELETE("/api/:kind/:id/comments/:commentId", s.removeComment)
}

func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// observe wraps every request in a span and logs one http.request entry.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx, span := s.tracer.Start(req.Context(), "http.request",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", req.Method),
				attribute.String("http.route", c.Path()),
			))
		defer span.End()
		c.SetRequest(req.WithContext(ctx))

		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		status := c.Response().Status
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		} else {
			span.SetStatus(codes.Ok, "")
		}

		fields := log.Fields{
			"method":      req.Method,
			"route":       c.Path(),
			"status":      status,
			"duration_ms": float64(time.Since(start)) / float64(time.Millisecond),
		}
		if owner := ownerOf(c); owner != "" {
			fields["owner"] = owner
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		entry := s.cfg.Logger.WithFields(fields)
		if status >= http.StatusInternalServerError {
			entry.Error("http.request")
		} else {
			entry.Info("http.request")
		}
		return nil
	}
}

// authenticate resolves the caller from the Authorization header, or from a token
// query parameter for EventSource clients that cannot set headers.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.cfg.Auth == nil {
			return next(c)
		}
		h := c.Request().Header.Get(echo.HeaderAuthorization)
		if h == "" {
			if tok := c.QueryParam("token"); tok != "" {
				h = "Bearer " + tok
			}
		}
		owner, err := s.cfg.Auth.OwnerFromHeader(h)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
		}
		c.Set(ownerKey, owner)
		return next(c)
	}
}

func ownerOf(c echo.Context) string {
	owner, _ := c.Get(ownerKey).(string)
	return owner
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he := statusError(err)
	msg, ok := he.Message.(string)
	if !ok {
		msg = http.StatusText(he.Code)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, errorResponse{Error: msg})
}

// statusError maps store and editor errors to HTTP statuses.
func statusError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var opErr editor.OpError
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, store.ErrUnauthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, store.ErrUnauthorized), errors.Is(err, store.ErrIncorrectPassword):
		code = http.StatusForbidden
	case errors.Is(err, codec.ErrMalformed):
		code = http.StatusUnprocessableEntity
	case errors.As(err, &opErr), errors.Is(err, editor.ErrUnknownOp), errors.Is(err, errBadRequest):
		code = http.StatusBadRequest
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}

type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i any) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return nil
}
